package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrMissingInputs = errors.New("missing inputs")
	ErrBodyTooLarge  = errors.New("request body too large")
)
