package pushmetrics_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/push"
	"github.com/dmitrymomot/pushkit/pkg/push/pushmetrics"
)

func TestObserver_CountsDispatchOutcomes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	obs := pushmetrics.New(reg)

	store := push.NewMemoryStore()
	require.NoError(t, store.SavePreference(ctx, push.Preference{UserID: "ok", Enabled: true}))
	require.NoError(t, store.SaveDevice(ctx, push.DeviceRegistration{UserID: "ok", Token: "good", Platform: push.PlatformAndroid}))
	require.NoError(t, store.SavePreference(ctx, push.Preference{UserID: "dead", Enabled: true}))
	require.NoError(t, store.SaveDevice(ctx, push.DeviceRegistration{UserID: "dead", Token: "ios_user_1", Platform: push.PlatformIOS}))
	require.NoError(t, store.SavePreference(ctx, push.Preference{UserID: "off", Enabled: false}))

	registry := push.NewRegistry().
		Register(push.PlatformAndroid, push.ProviderFunc(func(context.Context, string, string, string, map[string]any) push.SendResult {
			return push.SendResult{Success: true}
		})).
		Register(push.PlatformIOS, push.ProviderFunc(func(_ context.Context, token, _, _ string, _ map[string]any) push.SendResult {
			return push.PlaceholderTokenResult("apns")
		}))

	d := push.NewDispatcher(store, store, store, registry, push.WithObserver(obs), push.WithConcurrency(3))
	d.DispatchToUsers(ctx, []string{"ok", "dead", "off", "nobody"}, push.NewPayload("t", "b", nil))

	expected := `
# HELP push_denied_total Dispatches declined before reaching a provider.
# TYPE push_denied_total counter
push_denied_total{reason="notifications not enabled"} 2
# HELP push_failed_total Notifications rejected by a provider or failed locally.
# TYPE push_failed_total counter
push_failed_total{category="permanent-invalid-token",platform="ios"} 1
# HELP push_sent_total Notifications accepted by a provider.
# TYPE push_sent_total counter
push_sent_total{platform="android"} 1
# HELP push_tokens_evicted_total Device tokens removed after a permanent delivery failure.
# TYPE push_tokens_evicted_total counter
push_tokens_evicted_total{platform="ios"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestNew_SharesRegisteredCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	first := pushmetrics.New(reg)
	second := pushmetrics.New(reg)
	first.Sent(ctx, push.PlatformIOS)
	second.Sent(ctx, push.PlatformIOS)

	n, err := testutil.GatherAndCount(reg, "push_sent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expected := `
# HELP push_sent_total Notifications accepted by a provider.
# TYPE push_sent_total counter
push_sent_total{platform="ios"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "push_sent_total"))
}
