package table

import (
	"errors"
	"strings"
)

// Sentinel error kinds for this package.
var (
	ErrMissingFeatureColumns = errors.New("missing feature columns")
	ErrUnknownColumn         = errors.New("unknown column")
)

// MissingColumnsError lists the requested columns a table does not carry.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return ErrMissingFeatureColumns.Error() + ": " + strings.Join(e.Columns, ", ")
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingFeatureColumns }
