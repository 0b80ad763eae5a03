package push_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/push"
	"github.com/dmitrymomot/pushkit/pkg/push/pushtest"
)

func TestMemoryStore_Devices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := push.NewMemoryStore()

	t.Run("rejects incomplete registration", func(t *testing.T) {
		err := s.SaveDevice(ctx, push.DeviceRegistration{UserID: "u", Token: "t"})
		assert.ErrorIs(t, err, push.ErrInvalidDevice)
	})

	t.Run("upsert by token", func(t *testing.T) {
		first := time.Now().Add(-time.Hour)
		require.NoError(t, s.SaveDevice(ctx, push.DeviceRegistration{UserID: "u", Token: "t1", Platform: push.PlatformIOS, UpdatedAt: first}))
		require.NoError(t, s.SaveDevice(ctx, push.DeviceRegistration{UserID: "u", Token: "t1", Platform: push.PlatformAndroid}))

		rows, err := s.ListDevices(ctx, "u")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, push.PlatformAndroid, rows[0].Platform)
		assert.True(t, rows[0].UpdatedAt.After(first))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.DeleteDevice(ctx, "u", "t1"))
		require.NoError(t, s.DeleteDevice(ctx, "u", "t1"))
		require.NoError(t, s.DeleteDevice(ctx, "nobody", "t1"))

		rows, err := s.ListDevices(ctx, "u")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestMemoryStore_Preferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := push.NewMemoryStore()

	_, err := s.GetPreference(ctx, "missing")
	assert.ErrorIs(t, err, push.ErrPreferenceNotFound)
	assert.ErrorIs(t, s.SavePreference(ctx, push.Preference{}), push.ErrInvalidPreference)

	cats := []string{"music"}
	require.NoError(t, s.SavePreference(ctx, push.Preference{UserID: "b", Enabled: true, CategoryIDs: cats}))
	require.NoError(t, s.SavePreference(ctx, push.Preference{UserID: "a", Enabled: true}))
	require.NoError(t, s.SavePreference(ctx, push.Preference{UserID: "c", Enabled: false}))
	cats[0] = "mutated"

	pref, err := s.GetPreference(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"music"}, pref.CategoryIDs)

	enabled, err := s.ListEnabledPreferences(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "a", enabled[0].UserID)
	assert.Equal(t, "b", enabled[1].UserID)
}

func TestMemoryStore_Logs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := push.NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, s.WriteLog(ctx, push.LogEntry{UserID: "u"}), push.ErrInvalidLogEntry)

	require.NoError(t, s.WriteLogs(ctx, []push.LogEntry{
		{ID: "1", UserID: "u", Title: "first", SentAt: base},
		{ID: "2", UserID: "u", Title: "second", SentAt: base.Add(time.Minute)},
		{ID: "3", UserID: "u", Title: "third", SentAt: base.Add(2 * time.Minute)},
		{ID: "x", UserID: "other", Title: "foreign", SentAt: base},
	}))

	all, err := s.ListLogs(ctx, "u", push.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].ID)
	assert.Equal(t, "1", all[2].ID)

	page, err := s.ListLogs(ctx, "u", push.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "2", page[0].ID)

	past, err := s.ListLogs(ctx, "u", push.ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)

	since := base.Add(time.Minute)
	recent, err := s.ListLogs(ctx, "u", push.ListOptions{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	n, err := s.CountUnread(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.MarkRead(ctx, "u", "1", "3", "x"))
	n, err = s.CountUnread(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	unread, err := s.ListLogs(ctx, "u", push.ListOptions{OnlyUnread: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "2", unread[0].ID)

	// ids of other users are ignored
	n, err = s.CountUnread(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	read, err := s.ListLogs(ctx, "u", push.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.True(t, read[0].Read)
	assert.NotNil(t, read[0].ReadAt)
}

func TestMemoryStore_Conformance(t *testing.T) {
	t.Parallel()
	pushtest.RunStoreSuite(t, push.NewMemoryStore())
}
