package redis

import "errors"

var (
	ErrEmptyURL    = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL  = errors.New("redis: cannot parse REDIS_URL")
	ErrNotReady    = errors.New("redis: server not reachable before connect timeout")
	ErrUnreachable = errors.New("redis: ping failed")
)
