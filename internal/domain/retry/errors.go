package retry

import "errors"

// ErrSchedule wraps failures of the task scheduler.
var ErrSchedule = errors.New("schedule retry")
