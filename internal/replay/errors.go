package replay

import (
	"errors"
	"fmt"
)

// Sentinel kinds for replay errors.
var (
	ErrUnhealthy = errors.New("service health check failed")
	ErrNoRows    = errors.New("no rows to replay")
)

// LabelCountError reports a response whose labels do not match the batch.
type LabelCountError struct {
	Got, Want int
}

func (e *LabelCountError) Error() string {
	return fmt.Sprintf("got %d labels for %d rows", e.Got, e.Want)
}
