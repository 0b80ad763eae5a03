// Package pushtest holds a conformance suite shared by every push.Store
// implementation.
package pushtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/push"
)

// RunStoreSuite exercises store against the push.Store contract. User ids are
// random so the suite can run against a shared database.
func RunStoreSuite(t *testing.T, store push.Store) {
	t.Helper()

	t.Run("devices", func(t *testing.T) { testDevices(t, store) })
	t.Run("preferences", func(t *testing.T) { testPreferences(t, store) })
	t.Run("logs", func(t *testing.T) { testLogs(t, store) })
}

func newUserID() string {
	return "user-" + uuid.NewString()
}

func testDevices(t *testing.T, s push.Store) {
	ctx := context.Background()
	user := newUserID()
	older := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)

	assert.ErrorIs(t, s.SaveDevice(ctx, push.DeviceRegistration{UserID: user, Token: "x"}), push.ErrInvalidDevice)

	require.NoError(t, s.SaveDevice(ctx, push.DeviceRegistration{UserID: user, Token: "tok-a", Platform: push.PlatformIOS, UpdatedAt: older}))
	require.NoError(t, s.SaveDevice(ctx, push.DeviceRegistration{UserID: user, Token: "tok-b", Platform: push.PlatformAndroid, UpdatedAt: older}))

	// re-registration refreshes the row instead of adding one
	require.NoError(t, s.SaveDevice(ctx, push.DeviceRegistration{UserID: user, Token: "tok-a", Platform: push.PlatformIOS}))

	rows, err := s.ListDevices(ctx, user)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byToken := map[string]push.DeviceRegistration{}
	for _, r := range rows {
		assert.Equal(t, user, r.UserID)
		byToken[r.Token] = r
	}
	assert.True(t, byToken["tok-a"].UpdatedAt.After(older))
	assert.Equal(t, push.PlatformAndroid, byToken["tok-b"].Platform)

	target, err := push.NewTokenSelector(s).SelectTarget(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, "tok-a", target.Token)

	require.NoError(t, s.DeleteDevice(ctx, user, "tok-a"))
	require.NoError(t, s.DeleteDevice(ctx, user, "tok-a"))
	require.NoError(t, s.DeleteDevice(ctx, newUserID(), "tok-b"))

	rows, err = s.ListDevices(ctx, user)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "tok-b", rows[0].Token)

	empty, err := s.ListDevices(ctx, newUserID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testPreferences(t *testing.T, s push.Store) {
	ctx := context.Background()
	filtered, open, muted := newUserID(), newUserID(), newUserID()

	_, err := s.GetPreference(ctx, newUserID())
	assert.ErrorIs(t, err, push.ErrPreferenceNotFound)
	assert.ErrorIs(t, s.SavePreference(ctx, push.Preference{}), push.ErrInvalidPreference)

	require.NoError(t, s.SavePreference(ctx, push.Preference{UserID: filtered, Enabled: true, CategoryIDs: []string{"music", "art"}}))
	require.NoError(t, s.SavePreference(ctx, push.Preference{UserID: open, Enabled: true}))
	require.NoError(t, s.SavePreference(ctx, push.Preference{UserID: muted, Enabled: true}))
	require.NoError(t, s.SavePreference(ctx, push.Preference{UserID: muted, Enabled: false}))

	pref, err := s.GetPreference(ctx, filtered)
	require.NoError(t, err)
	assert.True(t, pref.Enabled)
	assert.ElementsMatch(t, []string{"music", "art"}, pref.CategoryIDs)

	pref, err = s.GetPreference(ctx, open)
	require.NoError(t, err)
	assert.False(t, pref.Filtered())

	pref, err = s.GetPreference(ctx, muted)
	require.NoError(t, err)
	assert.False(t, pref.Enabled)

	enabled, err := s.ListEnabledPreferences(ctx)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, p := range enabled {
		assert.True(t, p.Enabled)
		seen[p.UserID] = true
	}
	assert.True(t, seen[filtered])
	assert.True(t, seen[open])
	assert.False(t, seen[muted])
}

func testLogs(t *testing.T, s push.Store) {
	ctx := context.Background()
	user := newUserID()
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)

	assert.ErrorIs(t, s.WriteLog(ctx, push.LogEntry{UserID: user}), push.ErrInvalidLogEntry)

	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	require.NoError(t, s.WriteLog(ctx, push.LogEntry{ID: ids[0], UserID: user, Title: "first", Body: "b", SentAt: base}))
	require.NoError(t, s.WriteLogs(ctx, []push.LogEntry{
		{ID: ids[1], UserID: user, Title: "second", Body: "b", EventIDs: []string{"e1", "e2"}, SentAt: base.Add(time.Minute)},
		{ID: ids[2], UserID: user, Title: "third", Body: "b", SentAt: base.Add(2 * time.Minute)},
	}))

	all, err := s.ListLogs(ctx, user, push.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[1], all[1].ID)
	assert.Equal(t, []string{"e1", "e2"}, all[1].EventIDs)
	assert.Equal(t, ids[0], all[2].ID)
	assert.True(t, base.Equal(all[2].SentAt))

	page, err := s.ListLogs(ctx, user, push.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	since := base.Add(time.Minute)
	recent, err := s.ListLogs(ctx, user, push.ListOptions{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	n, err := s.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.MarkRead(ctx, user, ids[0], ids[2], uuid.NewString()))
	require.NoError(t, s.MarkRead(ctx, user))

	n, err = s.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	unread, err := s.ListLogs(ctx, user, push.ListOptions{OnlyUnread: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, ids[1], unread[0].ID)
	assert.False(t, unread[0].Read)

	first, err := s.ListLogs(ctx, user, push.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Read)
	assert.NotNil(t, first[0].ReadAt)

	// ids of another user are not touched
	other := newUserID()
	require.NoError(t, s.WriteLog(ctx, push.LogEntry{ID: uuid.NewString(), UserID: other, Title: "t", Body: "b"}))
	require.NoError(t, s.MarkRead(ctx, user, ids[1]))
	n, err = s.CountUnread(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
