package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound = errors.New("dataset not found")
	ErrInvalid  = errors.New("dataset invalid")
)
