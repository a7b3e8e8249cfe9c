package replay

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Progress and output constants.
const (
	ProgressInterval     = time.Second
	PercentageMultiplier = 100
	directoryPermission  = 0o750
)
