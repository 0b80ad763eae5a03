package engine

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/pushkit/pkg/push"
)

type options struct {
	logger         *slog.Logger
	registerer     prometheus.Registerer
	gatherer       prometheus.Gatherer
	tracerProvider trace.TracerProvider
	store          push.Store
	providers      map[push.Platform]push.Provider
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger passed to every component. Without it the
// logger is built from Config.Log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry registers the push metrics on reg and serves them from the ops
// handler. prometheus.DefaultRegisterer is used otherwise.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registerer = reg
			o.gatherer = reg
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for dispatch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithStore uses store instead of the configured driver. The engine does not
// close a supplied store.
func WithStore(store push.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithProvider overrides the provider built for platform from configuration.
func WithProvider(platform push.Platform, p push.Provider) Option {
	return func(o *options) {
		if p != nil {
			o.providers[platform] = p
		}
	}
}
