package exclusion

import "errors"

var (
	// ErrInvalidPattern indicates a pattern that could not be compiled.
	ErrInvalidPattern = errors.New("invalid exclusion pattern")
)
