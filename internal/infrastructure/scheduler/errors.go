package scheduler

import "errors"

var (
	// ErrInvalidTriggerWindow is returned when the configured sync window is unknown
	ErrInvalidTriggerWindow = errors.New("scheduler: invalid sync window")
)
