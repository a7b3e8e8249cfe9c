package modelconfig

import "errors"

// Sentinel error kinds for this package.
var (
	ErrConfigNotFound = errors.New("model config not found")
	ErrConfigInvalid  = errors.New("invalid model config")
)
