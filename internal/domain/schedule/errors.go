package schedule

import "errors"

// Error values double as business codes on the wire.
var (
	ErrInvalidInterval  = errors.New("invalid_interval")
	ErrInvalidClock     = errors.New("invalid_time")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrClosed           = errors.New("closed_day")
	ErrOutsideOpenHours = errors.New("outside_working_hours")
	ErrOverlap          = errors.New("time_conflict")
)
