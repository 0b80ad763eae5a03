package config

import "errors"

var (
	// ErrParsingConfig wraps env parse failures (bad durations, unknown enum values).
	ErrParsingConfig = errors.New("config: cannot parse environment")

	// ErrInvalidConfig wraps validator failures.
	ErrInvalidConfig = errors.New("config: validation failed")

	ErrConfigNotLoaded = errors.New("config: not loaded")
	ErrNilPointer      = errors.New("config: nil target")
)
