package push

import "context"

// Observer receives dispatch outcomes, typically to feed metrics.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	Denied(ctx context.Context, reason string)
	Sent(ctx context.Context, platform Platform)
	Failed(ctx context.Context, platform Platform, category Category)
	Evicted(ctx context.Context, platform Platform)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Denied(context.Context, string)             {}
func (NopObserver) Sent(context.Context, Platform)             {}
func (NopObserver) Failed(context.Context, Platform, Category) {}
func (NopObserver) Evicted(context.Context, Platform)          {}
