package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrNoCleaner is returned when a sweeper has nothing to clean
	ErrNoCleaner = errors.New("sweeper requires a cleaner")
)
