package config

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is returned when a configuration file cannot be opened or read.
	ErrIO = errors.New("config file could not be read")
	// ErrMalformedConfig is returned when a configuration file is not a mapping of profile name to profile body.
	ErrMalformedConfig = errors.New("malformed config file")
	// ErrEmptyConfig is returned when a configuration file defines no profiles.
	ErrEmptyConfig = errors.New("no config tables")
	// ErrCanonicalize is returned when a path cannot be resolved against the filesystem.
	ErrCanonicalize = errors.New("path could not be canonicalized")
	// ErrProfileNotFound is returned when a named profile is missing from the loaded file.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidInput is returned for option values that cannot be interpreted.
	ErrInvalidInput = errors.New("invalid configuration value")
)

// FieldError reports a profile key holding an unusable value. It matches ErrInvalidInput.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}
