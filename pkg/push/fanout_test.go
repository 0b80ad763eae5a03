package push_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/push"
)

func TestDispatchToUsers_AggregatesInInputOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t, succeeding(), failing("fcm: unavailable: backend down"))
	f.user(t, "a", push.Preference{Enabled: true}, push.DeviceRegistration{Token: "A", Platform: push.PlatformIOS})
	f.user(t, "b", push.Preference{Enabled: true}, push.DeviceRegistration{Token: "B", Platform: push.PlatformAndroid})
	f.user(t, "c", push.Preference{Enabled: false}, push.DeviceRegistration{Token: "C", Platform: push.PlatformIOS})
	f.user(t, "d", push.Preference{Enabled: true})

	res := f.d.DispatchToUsers(context.Background(), []string{"a", "b", "c", "d"}, push.NewPayload("t", "b", nil))

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{
		"fcm: unavailable: backend down",
		push.ReasonNotEnabled,
		push.ReasonNoToken,
	}, res.Errors)
}

func TestDispatchToUsers_SuccessIgnoresDeclinedUsers(t *testing.T) {
	t.Parallel()
	f := newFixture(t, succeeding(), succeeding())
	f.user(t, "a", push.Preference{Enabled: true}, push.DeviceRegistration{Token: "A", Platform: push.PlatformIOS})
	f.user(t, "off", push.Preference{Enabled: false}, push.DeviceRegistration{Token: "X", Platform: push.PlatformIOS})

	res := f.d.DispatchToUsers(context.Background(), []string{"a", "off"}, push.NewPayload("t", "b", nil))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Sent)
	assert.Zero(t, res.Failed)
}

func TestDispatchToUsers_Empty(t *testing.T) {
	t.Parallel()
	f := newFixture(t, succeeding(), succeeding())

	res := f.d.DispatchToUsers(context.Background(), nil, push.NewPayload("t", "b", nil))
	assert.Equal(t, push.Result{Success: true, Errors: []string{}}, res)
}

func TestDispatchToUsers_RespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const users, limit = 20, 4

	store := push.NewMemoryStore()
	ids := make([]string, users)
	for i := range users {
		ids[i] = fmt.Sprintf("user-%02d", i)
		require.NoError(t, store.SavePreference(ctx, push.Preference{UserID: ids[i], Enabled: true}))
		require.NoError(t, store.SaveDevice(ctx, push.DeviceRegistration{UserID: ids[i], Token: "tok-" + ids[i], Platform: push.PlatformIOS}))
	}

	var inFlight, peak atomic.Int32
	ios := push.ProviderFunc(func(context.Context, string, string, string, map[string]any) push.SendResult {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return push.SendResult{Success: true}
	})

	d := push.NewDispatcher(store, store, store,
		push.NewRegistry().Register(push.PlatformIOS, ios),
		push.WithConcurrency(limit))
	res := d.DispatchToUsers(ctx, ids, push.NewPayload("t", "b", nil))

	assert.True(t, res.Success)
	assert.Equal(t, users, res.Sent)
	assert.LessOrEqual(t, peak.Load(), int32(limit))

	for _, id := range ids {
		n, err := store.CountUnread(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, n, id)
	}
}

func TestDispatchToUsers_CancelledContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t, succeeding(), succeeding())
	f.user(t, "a", push.Preference{Enabled: true}, push.DeviceRegistration{Token: "A", Platform: push.PlatformIOS})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.d.DispatchToUsers(ctx, []string{"a"}, push.NewPayload("t", "b", nil))
	assert.Zero(t, res.Sent)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "dispatch cancelled for user a")
	assert.Empty(t, f.ios.Calls())
}

func TestDispatchToAllEligible_UntaggedPayloadSendsNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, succeeding(), succeeding())
	f.user(t, "open", push.Preference{Enabled: true}, push.DeviceRegistration{Token: "A", Platform: push.PlatformIOS})

	res := f.d.DispatchToAllEligible(context.Background(), push.RoleChangedPayload("admin"))
	assert.Equal(t, push.Result{Errors: []string{push.ReasonNoCategory}}, res)
	assert.Empty(t, f.ios.Calls())
}

func TestDispatchToAllEligible_CategoryPreFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t, succeeding(), succeeding())
	f.user(t, "music-fan", push.Preference{Enabled: true, CategoryIDs: []string{"music"}},
		push.DeviceRegistration{Token: "M", Platform: push.PlatformIOS})
	f.user(t, "sport-fan", push.Preference{Enabled: true, CategoryIDs: []string{"sport"}},
		push.DeviceRegistration{Token: "S", Platform: push.PlatformIOS})
	f.user(t, "everything", push.Preference{Enabled: true},
		push.DeviceRegistration{Token: "E", Platform: push.PlatformAndroid})
	f.user(t, "muted", push.Preference{Enabled: false},
		push.DeviceRegistration{Token: "Z", Platform: push.PlatformIOS})

	res := f.d.DispatchToAllEligible(context.Background(), push.NearbyEventPayload("evt-1", "Jazz night", "music"))

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Sent)
	assert.Empty(t, res.Errors)

	require.Len(t, f.ios.Calls(), 1)
	assert.Equal(t, "M", f.ios.Calls()[0].Token)
	require.Len(t, f.android.Calls(), 1)
	assert.Equal(t, "E", f.android.Calls()[0].Token)
}

func TestDispatchToAllEligible_CategoriesOnlyPayload(t *testing.T) {
	t.Parallel()
	f := newFixture(t, succeeding(), succeeding())
	f.user(t, "music-fan", push.Preference{Enabled: true, CategoryIDs: []string{"music"}},
		push.DeviceRegistration{Token: "M", Platform: push.PlatformIOS})
	f.user(t, "everything", push.Preference{Enabled: true},
		push.DeviceRegistration{Token: "E", Platform: push.PlatformAndroid})

	payload := push.NewPayload("t", "b", map[string]any{"categories": []string{"music"}})
	res := f.d.DispatchToAllEligible(context.Background(), payload)

	// filtered users need a scalar category to pass the broadcast pre-filter
	assert.Equal(t, 1, res.Sent)
	assert.Empty(t, f.ios.Calls())
	require.Len(t, f.android.Calls(), 1)
}

func TestDispatchToAllEligible_ListError(t *testing.T) {
	t.Parallel()

	prefs := &mockPreferenceStore{}
	prefs.On("ListEnabledPreferences", mock.Anything).Return(nil, errors.New("db down"))
	store := push.NewMemoryStore()
	ios := succeeding()

	d := push.NewDispatcher(store, prefs, store, push.NewRegistry().Register(push.PlatformIOS, ios))
	res := d.DispatchToAllEligible(context.Background(),
		push.NewPayload("t", "b", map[string]any{"category": "music"}))

	assert.False(t, res.Success)
	assert.Equal(t, []string{"preference lookup failed: db down"}, res.Errors)
	assert.Empty(t, ios.Calls())
	prefs.AssertExpectations(t)
}
