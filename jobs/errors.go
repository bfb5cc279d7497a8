package jobs

import "errors"

var (
	// ErrJobNotFound is returned when looking up an unknown job id.
	ErrJobNotFound = errors.New("job not found")
)
