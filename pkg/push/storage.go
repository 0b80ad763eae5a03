package push

import (
	"context"
	"time"
)

// DeviceStore persists device registrations.
type DeviceStore interface {
	// SaveDevice inserts or refreshes the (UserID, Token) row.
	// A zero UpdatedAt is replaced with the current time.
	SaveDevice(ctx context.Context, device DeviceRegistration) error

	// ListDevices returns all registrations of a user in the store's natural order.
	ListDevices(ctx context.Context, userID string) ([]DeviceRegistration, error)

	// DeleteDevice removes the (userID, token) row. Deleting a missing row is not an error.
	DeleteDevice(ctx context.Context, userID, token string) error
}

// PreferenceStore reads and writes notification preferences.
type PreferenceStore interface {
	// GetPreference returns ErrPreferenceNotFound when the user has no row.
	GetPreference(ctx context.Context, userID string) (*Preference, error)

	// ListEnabledPreferences returns every preference with Enabled=true.
	ListEnabledPreferences(ctx context.Context) ([]Preference, error)

	// SavePreference inserts or replaces the user's preference.
	SavePreference(ctx context.Context, pref Preference) error
}

// LogWriter persists one entry per successfully sent notification.
type LogWriter interface {
	WriteLog(ctx context.Context, entry LogEntry) error
}

// BatchLogWriter persists many entries at once. All or none are stored.
type BatchLogWriter interface {
	WriteLogs(ctx context.Context, entries []LogEntry) error
}

// LogReader serves the notification list of a user.
type LogReader interface {
	ListLogs(ctx context.Context, userID string, opts ListOptions) ([]LogEntry, error)
	MarkRead(ctx context.Context, userID string, ids ...string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Store is implemented by every bundled storage backend.
type Store interface {
	DeviceStore
	PreferenceStore
	LogWriter
	BatchLogWriter
	LogReader
}

// ListOptions provides filtering and pagination for ListLogs.
type ListOptions struct {
	Limit      int        // Maximum number of entries to return (0 = no limit)
	Offset     int        // Number of entries to skip
	OnlyUnread bool       // When true, only unread entries are returned
	Since      *time.Time // If set, only entries sent at or after this time
}
