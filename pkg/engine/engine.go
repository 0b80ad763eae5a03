package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/pushkit/pkg/config"
	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/pg"
	"github.com/dmitrymomot/pushkit/pkg/push"
	"github.com/dmitrymomot/pushkit/pkg/push/apns"
	"github.com/dmitrymomot/pushkit/pkg/push/fcm"
	"github.com/dmitrymomot/pushkit/pkg/push/pgstore"
	"github.com/dmitrymomot/pushkit/pkg/push/pushmetrics"
	"github.com/dmitrymomot/pushkit/pkg/push/redisstore"
	"github.com/dmitrymomot/pushkit/pkg/redis"
)

// Engine owns a ready Dispatcher together with the store, providers and
// background log writer it depends on.
type Engine struct {
	dispatcher *push.Dispatcher
	store      push.Store
	registry   *push.Registry
	gatherer   prometheus.Gatherer
	logger     *slog.Logger

	checks  []func(context.Context) error
	closers []func(context.Context) error

	mu     sync.Mutex
	closed bool
}

// NewFromEnv loads Config from the environment (and an optional .env file)
// and builds the engine.
func NewFromEnv(ctx context.Context, opts ...Option) (*Engine, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return New(ctx, cfg, opts...)
}

// New builds every component from cfg. Connections opened before a failure
// are closed again.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	o := &options{providers: make(map[push.Platform]push.Provider)}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		l, err := logger.NewFromConfig(cfg.Log)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		o.logger = l
	}
	log := o.logger.With(logger.Component("push"))

	e := &Engine{logger: log, gatherer: prometheus.DefaultGatherer}
	if o.gatherer != nil {
		e.gatherer = o.gatherer
	}

	store := o.store
	if store == nil {
		var err error
		store, err = e.openStore(ctx, cfg.Store, log)
		if err != nil {
			_ = e.Close(context.Background())
			return nil, err
		}
	}
	e.store = store

	e.registry = push.NewRegistry()
	if p, ok := o.providers[push.PlatformIOS]; ok {
		e.registry.Register(push.PlatformIOS, p)
	} else {
		e.registry.Register(push.PlatformIOS, apns.New(cfg.APNS, apns.WithLogger(log)))
	}
	if p, ok := o.providers[push.PlatformAndroid]; ok {
		e.registry.Register(push.PlatformAndroid, p)
	} else {
		e.registry.Register(push.PlatformAndroid, fcm.New(ctx, cfg.FCM, fcm.WithLogger(log)))
	}
	// web push has no transport; an override may still add one
	if p, ok := o.providers[push.PlatformWeb]; ok {
		e.registry.Register(push.PlatformWeb, p)
	}

	var logs push.LogWriter = store
	if cfg.AsyncLog {
		w := push.NewAsyncLogWriter(store, push.AsyncLogOptions{
			BufferSize:     cfg.LogBufferSize,
			BatchSize:      cfg.LogBatchSize,
			BatchTimeout:   cfg.LogBatchTimeout,
			StorageTimeout: cfg.LogWriteTimeout,
		}, log)
		// flushed before the store connection goes away
		e.closers = append([]func(context.Context) error{w.Close}, e.closers...)
		logs = w
	}

	dispatcherOpts := []push.DispatcherOption{
		push.WithLogger(log),
		push.WithConcurrency(cfg.Concurrency),
		push.WithObserver(pushmetrics.New(o.registerer)),
	}
	if o.tracerProvider != nil {
		dispatcherOpts = append(dispatcherOpts, push.WithTracerProvider(o.tracerProvider))
	}
	e.dispatcher = push.NewDispatcher(store, store, logs, e.registry, dispatcherOpts...)

	log.LogAttrs(ctx, slog.LevelInfo, "Push engine ready",
		slog.String("store", storeName(cfg.Store, o.store != nil)),
		slog.Any("platforms", e.registry.Platforms()),
		logger.Count("concurrency", cfg.Concurrency),
	)
	return e, nil
}

func (e *Engine) openStore(ctx context.Context, driver string, log *slog.Logger) (push.Store, error) {
	switch driver {
	case StoreMemory:
		return push.NewMemoryStore(), nil

	case StorePostgres:
		var cfg pg.Config
		if err := config.Parse(&cfg, ""); err != nil {
			return nil, errors.Join(ErrStoreInit, err)
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, errors.Join(ErrStoreInit, err)
		}
		e.closers = append(e.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
			return nil, errors.Join(ErrStoreInit, err)
		}
		e.checks = append(e.checks, pg.Healthcheck(pool))
		return pgstore.New(pool), nil

	case StoreRedis:
		var cfg redis.Config
		if err := config.Parse(&cfg, ""); err != nil {
			return nil, errors.Join(ErrStoreInit, err)
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, errors.Join(ErrStoreInit, err)
		}
		e.closers = append(e.closers, func(context.Context) error {
			return client.Close()
		})
		e.checks = append(e.checks, redis.Healthcheck(client))
		return redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix)), nil
	}
	return nil, fmt.Errorf("%w: unknown store driver %q", ErrStoreInit, driver)
}

func storeName(driver string, supplied bool) string {
	if supplied {
		return "custom"
	}
	return driver
}

// Dispatcher returns the configured dispatcher.
func (e *Engine) Dispatcher() *push.Dispatcher {
	return e.dispatcher
}

// Store returns the store backing the engine, e.g. for device registration.
func (e *Engine) Store() push.Store {
	return e.store
}

// Registry returns the provider registry.
func (e *Engine) Registry() *push.Registry {
	return e.registry
}

// Healthcheck verifies every backing connection.
func (e *Engine) Healthcheck(ctx context.Context) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return errors.Join(ErrHealthcheck, ErrAlreadyShutdown)
	}

	for _, check := range e.checks {
		if err := check(ctx); err != nil {
			return errors.Join(ErrHealthcheck, err)
		}
	}
	return nil
}

// Close flushes pending log writes and releases connections. It is safe to
// call more than once.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	closers := e.closers
	e.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "Push engine shutdown incomplete", logger.Error(err))
		return err
	}
	return nil
}
