package service

import (
	"errors"
)

// Sentinel error kinds for the prediction service.
var (
	// ErrPipelineFault reports that the pipeline could not produce labels for
	// a batch. The cause is logged, never surfaced to callers.
	ErrPipelineFault = errors.New("prediction failed")

	// ErrNoPipeline is returned by New when no pipeline was supplied.
	ErrNoPipeline = errors.New("pipeline not configured")

	// ErrNoFeatures is returned by New when the feature list is empty.
	ErrNoFeatures = errors.New("feature list not configured")
)
