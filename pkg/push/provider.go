package push

import (
	"context"
	"regexp"
)

// SendResult is the normalized outcome of one provider call.
type SendResult struct {
	Success bool
	Error   string
}

// Provider delivers one message to one device token. Implementations never
// return Go errors; failures are described in SendResult.Error and classified
// by Classify. Implementations must be safe for concurrent use.
type Provider interface {
	Send(ctx context.Context, token, title, body string, data map[string]any) SendResult
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, token, title, body string, data map[string]any) SendResult

func (f ProviderFunc) Send(ctx context.Context, token, title, body string, data map[string]any) SendResult {
	return f(ctx, token, title, body, data)
}

// Registry maps platforms to providers. It is filled once at startup and only
// read afterwards.
type Registry struct {
	providers map[Platform]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Platform]Provider)}
}

// Register binds a provider to a platform, replacing any previous binding.
func (r *Registry) Register(platform Platform, p Provider) *Registry {
	if p != nil {
		r.providers[platform] = p
	}
	return r
}

// Provider returns the provider for platform.
func (r *Registry) Provider(platform Platform) (Provider, bool) {
	p, ok := r.providers[platform]
	return p, ok
}

// Platforms returns the registered platforms.
func (r *Registry) Platforms() []Platform {
	out := make([]Platform, 0, len(r.providers))
	for p := range r.providers {
		out = append(out, p)
	}
	return out
}

// placeholderToken matches identifiers some mobile builds send in place of a
// real push token before completing registration, e.g. "ios_user_abc123".
var placeholderToken = regexp.MustCompile(`^(ios|android|web)_user_\S+$`)

// IsPlaceholderToken reports whether token is a client-side placeholder rather
// than a device token issued by a push service.
func IsPlaceholderToken(token string) bool {
	return placeholderToken.MatchString(token)
}

// PlaceholderTokenResult is the local rejection adapters return for placeholder tokens.
func PlaceholderTokenResult(provider string) SendResult {
	return SendResult{Error: PrefixPlaceholderToken + provider + " rejected a client placeholder instead of a device token"}
}
