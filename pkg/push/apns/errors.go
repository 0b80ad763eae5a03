package apns

import "errors"

var (
	ErrNotConfigured = errors.New("apns is not configured")
	ErrInvalidKey    = errors.New("apns auth key cannot be loaded")
)
