// Package validation checks input batches against the row schema before they
// reach the prediction pipeline.
package validation

import (
	"fmt"

	"github.com/okian/churn/internal/domain/schema"
	"github.com/okian/churn/internal/domain/table"
)

// inputsLoc is the first element of every error location; it names the
// request collection the row index refers to.
const inputsLoc = "inputs"

// ErrorDetail is one field-level failure.
type ErrorDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ErrorList collects failures across all rows of a batch. It is nil when the
// batch fully conforms.
type ErrorList []ErrorDetail

// Fields returns the distinct field names that failed, in first-seen order.
func (l ErrorList) Fields() []string {
	seen := make(map[string]struct{}, len(l))
	var out []string
	for _, d := range l {
		if len(d.Loc) < 3 {
			continue
		}
		name, ok := d.Loc[2].(string)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Check projects batch onto features, replaces missing markers and validates
// every row against the schema. The cleaned table is returned even when rows
// fail; callers decide what to do with the error list. An empty batch is
// vacuously valid. Missing feature columns on a non-empty batch are a hard
// error wrapping table.ErrMissingFeatureColumns.
func Check(features []string, batch table.Table) (table.Table, ErrorList, error) {
	if batch.Len() == 0 {
		return table.New(features, nil), nil, nil
	}

	projected, err := batch.Project(features)
	if err != nil {
		return table.Table{}, nil, fmt.Errorf("validation: %w", err)
	}
	cleaned := projected.ReplaceMissing()

	var errs ErrorList
	for i, rec := range cleaned.Records {
		_, fieldErrs := schema.Decode(rec)
		for _, fe := range fieldErrs {
			errs = append(errs, ErrorDetail{
				Loc:  []any{inputsLoc, i, fe.Field},
				Msg:  fe.Msg,
				Type: fe.Type,
			})
		}
	}
	return cleaned, errs, nil
}
