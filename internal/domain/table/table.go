// Package table holds the column-ordered batch passed between validation and
// the prediction pipeline.
package table

import (
	"fmt"
	"math"
	"slices"
)

// Record is one raw row keyed by column name.
type Record = map[string]any

// Table is an ordered set of records sharing a column list. A record may lack
// a key for a declared column; readers treat that as a missing value.
type Table struct {
	Columns []string
	Records []Record
}

// New returns a table over the given columns and records. The column slice is
// copied; records are shared.
func New(columns []string, records []Record) Table {
	return Table{Columns: slices.Clone(columns), Records: records}
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// HasColumn reports whether name is one of the table columns.
func (t Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Column returns the values of one column in record order.
func (t Table) Column(name string) ([]any, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	out := make([]any, len(t.Records))
	for i, rec := range t.Records {
		out[i] = rec[name]
	}
	return out, nil
}

// Project returns a table restricted to columns, in the given order. Every
// record is copied and keeps exactly those keys. A column the table does not
// declare yields a *MissingColumnsError.
func (t Table) Project(columns []string) (Table, error) {
	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return Table{}, &MissingColumnsError{Columns: missing}
	}

	records := make([]Record, len(t.Records))
	for i, rec := range t.Records {
		out := make(Record, len(columns))
		for _, c := range columns {
			out[c] = rec[c]
		}
		records[i] = out
	}
	return New(columns, records), nil
}

// ReplaceMissing returns a copy where every NaN marker is an explicit nil, so
// numeric and textual gaps look the same to readers.
func (t Table) ReplaceMissing() Table {
	records := make([]Record, len(t.Records))
	for i, rec := range t.Records {
		out := make(Record, len(rec))
		for k, v := range rec {
			if isNaN(v) {
				v = nil
			}
			out[k] = v
		}
		records[i] = out
	}
	return New(t.Columns, records)
}

func isNaN(v any) bool {
	switch x := v.(type) {
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	default:
		return false
	}
}
