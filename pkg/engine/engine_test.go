package engine_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/config"
	"github.com/dmitrymomot/pushkit/pkg/engine"
	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/push"
)

func memoryConfig() engine.Config {
	return engine.Config{
		Store:           engine.StoreMemory,
		Concurrency:     2,
		AsyncLog:        true,
		LogBufferSize:   10,
		LogBatchSize:    5,
		LogBatchTimeout: 5 * time.Millisecond,
		LogWriteTimeout: time.Second,
		Log:             logger.Config{Env: "test", Level: "error"},
	}
}

func accept(context.Context, string, string, string, map[string]any) push.SendResult {
	return push.SendResult{Success: true}
}

func TestNew_MemoryStoreEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e, err := engine.New(ctx, memoryConfig(),
		engine.WithRegistry(prometheus.NewRegistry()),
		engine.WithProvider(push.PlatformAndroid, push.ProviderFunc(accept)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	store := e.Store()
	require.NoError(t, store.SavePreference(ctx, push.Preference{UserID: "u1", Enabled: true, CategoryIDs: []string{"music"}}))
	require.NoError(t, store.SaveDevice(ctx, push.DeviceRegistration{UserID: "u1", Token: "fcm-1", Platform: push.PlatformAndroid}))
	require.NoError(t, store.SavePreference(ctx, push.Preference{UserID: "u2", Enabled: true}))
	require.NoError(t, store.SaveDevice(ctx, push.DeviceRegistration{UserID: "u2", Token: "apns-1", Platform: push.PlatformIOS}))

	res := e.Dispatcher().DispatchToAllEligible(ctx, push.NearbyEventPayload("evt-1", "Jazz", "music"))

	// u2's iOS device hits the unconfigured APNs adapter
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], push.PrefixConfigError), res.Errors[0])

	// config errors never evict
	devices, err := store.ListDevices(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, devices, 1)

	require.NoError(t, e.Close(ctx))
	logs, err := store.ListLogs(ctx, "u1", push.ListOptions{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, []string{"evt-1"}, logs[0].EventIDs)
}

func TestNew_RegistersMobilePlatformsOnly(t *testing.T) {
	t.Parallel()
	e, err := engine.New(context.Background(), memoryConfig(), engine.WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	assert.ElementsMatch(t, []push.Platform{push.PlatformIOS, push.PlatformAndroid}, e.Registry().Platforms())
}

func TestNew_WithStoreAndSyncLogs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := push.NewMemoryStore()
	cfg := memoryConfig()
	cfg.AsyncLog = false

	e, err := engine.New(ctx, cfg,
		engine.WithRegistry(prometheus.NewRegistry()),
		engine.WithStore(store),
		engine.WithProvider(push.PlatformIOS, push.ProviderFunc(accept)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	assert.Same(t, store, e.Store())

	require.NoError(t, store.SavePreference(ctx, push.Preference{UserID: "u", Enabled: true}))
	require.NoError(t, store.SaveDevice(ctx, push.DeviceRegistration{UserID: "u", Token: "t", Platform: push.PlatformIOS}))

	res := e.Dispatcher().DispatchToUser(ctx, "u", push.RoleChangedPayload("organizer"))
	assert.True(t, res.Success)

	n, err := store.CountUnread(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*engine.Config)
	}{
		{"unknown store", func(c *engine.Config) { c.Store = "sqlite" }},
		{"zero concurrency", func(c *engine.Config) { c.Concurrency = 0 }},
		{"zero batch size", func(c *engine.Config) { c.LogBatchSize = 0 }},
		{"unknown log level", func(c *engine.Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := memoryConfig()
			tt.mutate(&cfg)

			_, err := engine.New(context.Background(), cfg, engine.WithRegistry(prometheus.NewRegistry()))
			assert.ErrorIs(t, err, engine.ErrInvalidConfig)
		})
	}
}

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PUSH_STORE", "redis")
	t.Setenv("PUSH_CONCURRENCY", "16")
	t.Setenv("PUSH_LOG_BATCH_TIMEOUT", "250ms")
	t.Setenv("APNS_TOPIC", "com.example.events")
	t.Setenv("APNS_PRODUCTION", "true")
	t.Setenv("FCM_PROJECT_ID", "demo")

	var cfg engine.Config
	require.NoError(t, config.Parse(&cfg, ""))

	assert.Equal(t, engine.StoreRedis, cfg.Store)
	assert.Equal(t, 16, cfg.Concurrency)
	assert.True(t, cfg.AsyncLog)
	assert.Equal(t, 1000, cfg.LogBufferSize)
	assert.Equal(t, 250*time.Millisecond, cfg.LogBatchTimeout)
	assert.Equal(t, "com.example.events", cfg.APNS.Topic)
	assert.True(t, cfg.APNS.Production)
	assert.Equal(t, 10*time.Second, cfg.APNS.SendTimeout)
	assert.Equal(t, "demo", cfg.FCM.ProjectID)
	assert.Equal(t, "development", cfg.Log.Env)
	assert.True(t, cfg.Log.Trace)
	assert.NoError(t, config.Validate(cfg))
}

func TestEngine_CloseAndHealthcheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, err := engine.New(ctx, memoryConfig(), engine.WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)

	require.NoError(t, e.Healthcheck(ctx))
	require.NoError(t, e.Close(ctx))
	require.NoError(t, e.Close(ctx))
	assert.ErrorIs(t, e.Healthcheck(ctx), engine.ErrAlreadyShutdown)
}

func TestEngine_OpsHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, err := engine.New(ctx, memoryConfig(),
		engine.WithRegistry(prometheus.NewRegistry()),
		engine.WithProvider(push.PlatformIOS, push.ProviderFunc(accept)),
	)
	require.NoError(t, err)

	require.NoError(t, e.Store().SavePreference(ctx, push.Preference{UserID: "u", Enabled: true}))
	require.NoError(t, e.Store().SaveDevice(ctx, push.DeviceRegistration{UserID: "u", Token: "t", Platform: push.PlatformIOS}))
	e.Dispatcher().DispatchToUser(ctx, "u", push.NewPayload("t", "b", nil))

	srv := httptest.NewServer(e.OpsHandler())
	t.Cleanup(srv.Close)

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ALIVE", body)

	code, body = get("/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "READY", body)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `push_sent_total{platform="ios"} 1`)

	require.NoError(t, e.Close(ctx))
	code, body = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "NOT_READY", body)
}
