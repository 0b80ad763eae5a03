// Package pgstore implements push.Store on PostgreSQL with pgx.
package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/pushkit/pkg/pg"
	"github.com/dmitrymomot/pushkit/pkg/push"
)

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is a PostgreSQL push.Store.
type Store struct {
	db DB
}

var _ push.Store = (*Store)(nil)

// New creates a store on db. The schema from Migrations must be applied.
func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) SaveDevice(ctx context.Context, device push.DeviceRegistration) error {
	if device.UserID == "" || device.Token == "" || device.Platform == "" {
		return push.ErrInvalidDevice
	}
	if device.UpdatedAt.IsZero() {
		device.UpdatedAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, token) DO UPDATE
		SET platform = EXCLUDED.platform, updated_at = EXCLUDED.updated_at
	`, device.UserID, device.Token, string(device.Platform), device.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: save device: %w", err)
	}
	return nil
}

func (s *Store) ListDevices(ctx context.Context, userID string) ([]push.DeviceRegistration, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, token, platform, updated_at
		FROM device_tokens
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list devices: %w", err)
	}

	devices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (push.DeviceRegistration, error) {
		var (
			d        push.DeviceRegistration
			platform string
		)
		err := row.Scan(&d.UserID, &d.Token, &platform, &d.UpdatedAt)
		d.Platform = push.Platform(platform)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list devices: %w", err)
	}
	return devices, nil
}

func (s *Store) DeleteDevice(ctx context.Context, userID, token string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return fmt.Errorf("pgstore: delete device: %w", err)
	}
	return nil
}

func (s *Store) GetPreference(ctx context.Context, userID string) (*push.Preference, error) {
	p := push.Preference{UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT is_enabled, category_ids
		FROM notification_preferences
		WHERE user_id = $1
	`, userID).Scan(&p.Enabled, &p.CategoryIDs)
	if pg.IsNotFoundError(err) {
		return nil, push.ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: get preference: %w", err)
	}
	return &p, nil
}

func (s *Store) ListEnabledPreferences(ctx context.Context) ([]push.Preference, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, is_enabled, category_ids
		FROM notification_preferences
		WHERE is_enabled
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list preferences: %w", err)
	}

	prefs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (push.Preference, error) {
		var p push.Preference
		err := row.Scan(&p.UserID, &p.Enabled, &p.CategoryIDs)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list preferences: %w", err)
	}
	return prefs, nil
}

func (s *Store) SavePreference(ctx context.Context, pref push.Preference) error {
	if pref.UserID == "" {
		return push.ErrInvalidPreference
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, is_enabled, category_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET is_enabled = EXCLUDED.is_enabled, category_ids = EXCLUDED.category_ids
	`, pref.UserID, pref.Enabled, nonNil(pref.CategoryIDs))
	if err != nil {
		return fmt.Errorf("pgstore: save preference: %w", err)
	}
	return nil
}

func (s *Store) WriteLog(ctx context.Context, entry push.LogEntry) error {
	return s.WriteLogs(ctx, []push.LogEntry{entry})
}

var logColumns = []string{"id", "user_id", "title", "body", "event_ids", "read", "read_at", "sent_at"}

// WriteLogs stores entries with a single COPY, so either all rows land or none.
func (s *Store) WriteLogs(ctx context.Context, entries []push.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	for i := range entries {
		if entries[i].ID == "" || entries[i].UserID == "" {
			return push.ErrInvalidLogEntry
		}
	}

	_, err := s.db.CopyFrom(ctx, pgx.Identifier{"notification_logs"}, logColumns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			sentAt := e.SentAt
			if sentAt.IsZero() {
				sentAt = now
			}
			return []any{e.ID, e.UserID, e.Title, e.Body, nonNil(e.EventIDs), e.Read, e.ReadAt, sentAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("pgstore: write logs: %w", err)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, userID string, opts push.ListOptions) ([]push.LogEntry, error) {
	query, args := listLogsQuery(userID, opts)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list logs: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (push.LogEntry, error) {
		var e push.LogEntry
		err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Body, &e.EventIDs, &e.Read, &e.ReadAt, &e.SentAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: list logs: %w", err)
	}
	return entries, nil
}

func listLogsQuery(userID string, opts push.ListOptions) (string, []any) {
	var b strings.Builder
	args := []any{userID}

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(logColumns, ", "))
	b.WriteString(" FROM notification_logs WHERE user_id = $1")
	if opts.OnlyUnread {
		b.WriteString(" AND NOT read")
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		fmt.Fprintf(&b, " AND sent_at >= $%d", len(args))
	}
	b.WriteString(" ORDER BY sent_at DESC, id")
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func (s *Store) MarkRead(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE notification_logs
		SET read = true, read_at = now()
		WHERE user_id = $1 AND id = ANY($2) AND NOT read
	`, userID, ids)
	if err != nil {
		return fmt.Errorf("pgstore: mark read: %w", err)
	}
	return nil
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM notification_logs WHERE user_id = $1 AND NOT read
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pgstore: count unread: %w", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
