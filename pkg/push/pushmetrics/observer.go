// Package pushmetrics exports dispatch outcomes as Prometheus counters.
package pushmetrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/pushkit/pkg/push"
)

const namespace = "push"

// Observer implements push.Observer with Prometheus counters.
type Observer struct {
	sent    *prometheus.CounterVec
	failed  *prometheus.CounterVec
	evicted *prometheus.CounterVec
	denied  *prometheus.CounterVec
}

var _ push.Observer = (*Observer)(nil)

// New registers the push counters with reg. A nil reg uses
// prometheus.DefaultRegisterer. Counters already registered on reg by an
// earlier call are reused, so several dispatchers can share one registry.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Observer{
		sent: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sent_total",
			Help:      "Notifications accepted by a provider.",
		}, []string{"platform"})),
		failed: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_total",
			Help:      "Notifications rejected by a provider or failed locally.",
		}, []string{"platform", "category"})),
		evicted: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_evicted_total",
			Help:      "Device tokens removed after a permanent delivery failure.",
		}, []string{"platform"})),
		denied: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "denied_total",
			Help:      "Dispatches declined before reaching a provider.",
		}, []string{"reason"})),
	}
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (o *Observer) Denied(_ context.Context, reason string) {
	o.denied.WithLabelValues(reason).Inc()
}

func (o *Observer) Sent(_ context.Context, platform push.Platform) {
	o.sent.WithLabelValues(string(platform)).Inc()
}

func (o *Observer) Failed(_ context.Context, platform push.Platform, category push.Category) {
	o.failed.WithLabelValues(string(platform), string(category)).Inc()
}

func (o *Observer) Evicted(_ context.Context, platform push.Platform) {
	o.evicted.WithLabelValues(string(platform)).Inc()
}
