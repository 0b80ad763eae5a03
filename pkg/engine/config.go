package engine

import (
	"time"

	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/push/apns"
	"github.com/dmitrymomot/pushkit/pkg/push/fcm"
)

// Store drivers accepted in PUSH_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config selects the storage backend and tunes dispatch. Provider settings
// are validated by the adapters themselves, so a missing APNs or FCM setup
// only disables that platform.
type Config struct {
	Store       string `env:"PUSH_STORE" envDefault:"memory" validate:"oneof=memory postgres redis"`
	Concurrency int    `env:"PUSH_CONCURRENCY" envDefault:"8" validate:"gte=1"`

	AsyncLog        bool          `env:"PUSH_ASYNC_LOG" envDefault:"true"`
	LogBufferSize   int           `env:"PUSH_LOG_BUFFER_SIZE" envDefault:"1000" validate:"gte=1"`
	LogBatchSize    int           `env:"PUSH_LOG_BATCH_SIZE" envDefault:"100" validate:"gte=1"`
	LogBatchTimeout time.Duration `env:"PUSH_LOG_BATCH_TIMEOUT" envDefault:"100ms"`
	LogWriteTimeout time.Duration `env:"PUSH_LOG_WRITE_TIMEOUT" envDefault:"5s"`

	Log  logger.Config `validate:"-"`
	APNS apns.Config   `validate:"-"`
	FCM  fcm.Config    `validate:"-"`
}
