package task

import "errors"

var (
	// ErrNotFound is returned when a task is not found.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidStatus is returned for a status label outside InProgress/Completed.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrInvalidPriority is returned for a priority label outside Low/Medium/High.
	ErrInvalidPriority = errors.New("invalid task priority")
	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)
