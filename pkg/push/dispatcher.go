package push

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/pushkit/pkg/logger"
)

const tracerName = "github.com/dmitrymomot/pushkit/pkg/push"

// Dispatcher delivers payloads to users: preference gate, token selection,
// provider call, failure classification, eviction and logging.
// It never panics or returns an error; every outcome is a Result.
type Dispatcher struct {
	gate        *PreferenceGate
	selector    *TokenSelector
	providers   *Registry
	devices     DeviceStore
	prefs       PreferenceStore
	logs        LogWriter
	observer    Observer
	logger      *slog.Logger
	tracer      trace.Tracer
	concurrency int
	now         func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger for the Dispatcher.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithConcurrency bounds the number of users dispatched in parallel during
// fan-out. Values below 1 are ignored; the default of 1 is sequential.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) {
		if tp != nil {
			d.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock overrides the time source used for log entries.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a dispatcher. The registry is read-only from here on.
func NewDispatcher(devices DeviceStore, prefs PreferenceStore, logs LogWriter, providers *Registry, opts ...DispatcherOption) *Dispatcher {
	if providers == nil {
		providers = NewRegistry()
	}
	d := &Dispatcher{
		gate:        NewPreferenceGate(prefs),
		selector:    NewTokenSelector(devices),
		providers:   providers,
		devices:     devices,
		prefs:       prefs,
		logs:        logs,
		observer:    NopObserver{},
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchToUser delivers payload to the user's most recent device.
//
// Declined dispatches (preference, no device) return Success=false with zero
// counts and the reason in Errors. A provider failure counts as Failed and,
// when classified permanent, evicts the (userID, token) registration.
// Nothing is retried.
func (d *Dispatcher) DispatchToUser(ctx context.Context, userID string, payload Payload) Result {
	ctx, span := d.tracer.Start(ctx, "push.DispatchToUser",
		trace.WithAttributes(attribute.String("push.user_id", userID)))
	defer span.End()

	res := d.dispatch(ctx, userID, payload)

	span.SetAttributes(
		attribute.Int("push.sent", res.Sent),
		attribute.Int("push.failed", res.Failed),
	)
	if res.Failed > 0 {
		span.SetStatus(codes.Error, strings.Join(res.Errors, "; "))
	}
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, userID string, payload Payload) Result {
	if err := payload.Validate(); err != nil {
		return skipped(err.Error())
	}

	decision, err := d.gate.Allow(ctx, userID, payload)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "Failed to load notification preference",
			logger.UserID(userID),
			logger.Error(err),
		)
		return skipped("preference lookup failed: " + err.Error())
	}
	if !decision.Allow {
		d.observer.Denied(ctx, decision.Reason)
		d.logger.LogAttrs(ctx, slog.LevelDebug, "Push declined by preference",
			logger.UserID(userID),
			slog.String("reason", decision.Reason),
		)
		return skipped(decision.Reason)
	}

	target, err := d.selector.SelectTarget(ctx, userID)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "Failed to load device registrations",
			logger.UserID(userID),
			logger.Error(err),
		)
		return skipped("device lookup failed: " + err.Error())
	}
	if target == nil {
		d.observer.Denied(ctx, ReasonNoToken)
		return skipped(ReasonNoToken)
	}

	sent := d.send(ctx, *target, payload)

	res := newResult()
	if sent.Success {
		res.Sent = 1
		res.Success = true
		d.observer.Sent(ctx, target.Platform)
		if err := d.writeLog(ctx, userID, payload); err != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "Failed to write notification log",
				logger.UserID(userID),
				logger.Error(err),
			)
			res.Errors = append(res.Errors, "log write failed: "+err.Error())
		}
		return res
	}

	res.Failed = 1
	res.Errors = append(res.Errors, sent.Error)

	verdict := Classify(sent.Error)
	d.observer.Failed(ctx, target.Platform, verdict.Category)
	d.logger.LogAttrs(ctx, slog.LevelWarn, "Push send failed",
		logger.UserID(userID),
		logger.Platform(string(target.Platform)),
		logger.Token(target.Token),
		logger.Category(string(verdict.Category)),
		slog.String("reason", sent.Error),
	)

	if verdict.Permanent {
		if err := d.devices.DeleteDevice(ctx, userID, target.Token); err != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "Failed to evict dead device token",
				logger.UserID(userID),
				logger.Token(target.Token),
				logger.Error(err),
			)
			res.Errors = append(res.Errors, "token eviction failed: "+err.Error())
		} else {
			d.observer.Evicted(ctx, target.Platform)
			d.logger.LogAttrs(ctx, slog.LevelInfo, "Evicted dead device token",
				logger.UserID(userID),
				logger.Platform(string(target.Platform)),
				logger.Token(target.Token),
			)
		}
	}
	return res
}

// send routes to the provider of the target's platform. Platforms without a
// registered provider fail locally.
func (d *Dispatcher) send(ctx context.Context, target DeviceRegistration, payload Payload) SendResult {
	provider, ok := d.providers.Provider(target.Platform)
	if !ok {
		return SendResult{Error: fmt.Sprintf("%s%q has no push transport", PrefixUnsupportedPlatform, target.Platform)}
	}
	return provider.Send(ctx, target.Token, payload.Title, payload.Body, payload.Data())
}

func (d *Dispatcher) writeLog(ctx context.Context, userID string, payload Payload) error {
	if d.logs == nil {
		return nil
	}
	return d.logs.WriteLog(ctx, LogEntry{
		ID:       uuid.New().String(),
		UserID:   userID,
		Title:    payload.Title,
		Body:     payload.Body,
		EventIDs: payload.EventIDs(),
		SentAt:   d.now(),
	})
}
