package fcm

import "errors"

var (
	ErrNotConfigured = errors.New("fcm is not configured")
	ErrInitFailed    = errors.New("fcm client initialization failed")
)
