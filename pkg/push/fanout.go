package push

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/pushkit/pkg/logger"
)

// DispatchToUsers runs DispatchToUser for every user and aggregates the
// results in input order. Up to the configured concurrency users are
// dispatched in parallel; per-user dispatches share no mutable state.
// Users not started before ctx is cancelled are reported in Errors.
func (d *Dispatcher) DispatchToUsers(ctx context.Context, userIDs []string, payload Payload) Result {
	ctx, span := d.tracer.Start(ctx, "push.DispatchToUsers",
		trace.WithAttributes(attribute.Int("push.users", len(userIDs))))
	defer span.End()

	results := make([]Result, len(userIDs))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, userID := range userIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = skipped("dispatch cancelled for user " + userID + ": " + err.Error())
				return nil
			}
			results[i] = d.DispatchToUser(ctx, userID, payload)
			return nil
		})
	}
	_ = g.Wait()

	agg := newResult()
	agg.Success = true
	for _, r := range results {
		agg = agg.Merge(r)
	}

	span.SetAttributes(
		attribute.Int("push.sent", agg.Sent),
		attribute.Int("push.failed", agg.Failed),
	)
	d.logger.LogAttrs(ctx, slog.LevelInfo, "Push fan-out finished",
		logger.Count("users", len(userIDs)),
		logger.Count("sent", agg.Sent),
		logger.Count("failed", agg.Failed),
	)
	return agg
}

// DispatchToAllEligible broadcasts payload to every enabled user whose
// category filter admits it.
//
// A payload without "category" or "categories" is sent to nobody. Users with a
// non-empty filter pass the pre-filter only when the payload's scalar
// "category" is in their set; users without a filter always pass. Every
// eligible user is then re-checked by the preference gate.
func (d *Dispatcher) DispatchToAllEligible(ctx context.Context, payload Payload) Result {
	if !payload.HasCategoryData() {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "Broadcast skipped: payload has no category",
			slog.String("title", payload.Title),
		)
		return skipped(ReasonNoCategory)
	}

	prefs, err := d.prefs.ListEnabledPreferences(ctx)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "Failed to list enabled preferences",
			logger.Error(err),
		)
		return skipped("preference lookup failed: " + err.Error())
	}

	category, hasCategory := payload.Category()
	eligible := make([]string, 0, len(prefs))
	for _, p := range prefs {
		if !p.Enabled {
			continue
		}
		if !p.Filtered() || (hasCategory && p.Subscribes(category)) {
			eligible = append(eligible, p.UserID)
		}
	}

	return d.DispatchToUsers(ctx, eligible, payload)
}
