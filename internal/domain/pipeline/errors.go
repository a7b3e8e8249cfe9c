package pipeline

import "errors"

// Sentinel error kinds for this package.
var (
	ErrArtifactNotFound = errors.New("pipeline artifact not found")
	ErrArtifactInvalid  = errors.New("invalid pipeline artifact")
	ErrMissingInput     = errors.New("pipeline input column missing")
)
