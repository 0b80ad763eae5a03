package engine

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/pushkit/pkg/logger"
)

// OpsHandler serves liveness, readiness and metrics for the engine:
//
//	GET /healthz  200 "ALIVE"
//	GET /readyz   200 "READY" or 503 "NOT_READY"
//	GET /metrics  Prometheus exposition
//
// Mount it on the host application's router or serve it on a private port.
func (e *Engine) OpsHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	})
	r.Get("/readyz", e.readiness)
	r.Handle("/metrics", promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (e *Engine) readiness(w http.ResponseWriter, r *http.Request) {
	if err := e.Healthcheck(r.Context()); err != nil {
		e.logger.LogAttrs(r.Context(), slog.LevelError, "Readiness check failed", logger.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("NOT_READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}
