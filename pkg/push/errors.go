package push

import "errors"

var (
	// ErrPreferenceNotFound is returned by stores when a user has no preference row.
	ErrPreferenceNotFound = errors.New("notification preference not found")

	// ErrInvalidPayload indicates a payload with no displayable content.
	ErrInvalidPayload = errors.New("invalid notification payload")

	// ErrInvalidDevice indicates a device registration missing user, token or platform.
	ErrInvalidDevice = errors.New("invalid device registration")

	// ErrInvalidPreference indicates a preference without a user.
	ErrInvalidPreference = errors.New("invalid notification preference")

	// ErrInvalidLogEntry indicates a log entry missing its ID or user.
	ErrInvalidLogEntry = errors.New("invalid notification log entry")

	// ErrWriterClosed is returned by AsyncLogWriter after Close.
	ErrWriterClosed = errors.New("notification log writer is closed")
)
