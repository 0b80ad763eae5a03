package engine

import "errors"

var (
	ErrInvalidConfig   = errors.New("engine: invalid configuration")
	ErrStoreInit       = errors.New("engine: store initialization failed")
	ErrHealthcheck     = errors.New("engine: healthcheck failed")
	ErrAlreadyShutdown = errors.New("engine: already closed")
)
