// Package redisstore implements push.Store on Redis with go-redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/pushkit/pkg/push"
)

// DefaultKeyPrefix namespaces keys when no prefix is configured.
const DefaultKeyPrefix = "push"

// Store is a Redis push.Store. Multi-key writes run in MULTI/EXEC.
type Store struct {
	client redis.UniversalClient
	keys   keys
}

var _ push.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix sets the prefix of every key.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.keys.prefix = prefix
		}
	}
}

// New creates a store on client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		keys:   keys{prefix: DefaultKeyPrefix},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SaveDevice(ctx context.Context, device push.DeviceRegistration) error {
	if device.UserID == "" || device.Token == "" || device.Platform == "" {
		return push.ErrInvalidDevice
	}
	if device.UpdatedAt.IsZero() {
		device.UpdatedAt = time.Now()
	}

	raw, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("redisstore: encode device: %w", err)
	}
	if err := s.client.HSet(ctx, s.keys.devices(device.UserID), device.Token, raw).Err(); err != nil {
		return fmt.Errorf("redisstore: save device: %w", err)
	}
	return nil
}

func (s *Store) ListDevices(ctx context.Context, userID string) ([]push.DeviceRegistration, error) {
	values, err := s.client.HGetAll(ctx, s.keys.devices(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list devices: %w", err)
	}

	devices := make([]push.DeviceRegistration, 0, len(values))
	for _, raw := range values {
		var d push.DeviceRegistration
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("redisstore: decode device: %w", err)
		}
		devices = append(devices, d)
	}
	// hash iteration order is random; present newest first
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].UpdatedAt.After(devices[j].UpdatedAt)
	})
	return devices, nil
}

func (s *Store) DeleteDevice(ctx context.Context, userID, token string) error {
	if err := s.client.HDel(ctx, s.keys.devices(userID), token).Err(); err != nil {
		return fmt.Errorf("redisstore: delete device: %w", err)
	}
	return nil
}

func (s *Store) GetPreference(ctx context.Context, userID string) (*push.Preference, error) {
	raw, err := s.client.Get(ctx, s.keys.pref(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, push.ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get preference: %w", err)
	}

	var p push.Preference
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("redisstore: decode preference: %w", err)
	}
	return &p, nil
}

func (s *Store) ListEnabledPreferences(ctx context.Context) ([]push.Preference, error) {
	users, err := s.client.SMembers(ctx, s.keys.enabledPrefs()).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list preferences: %w", err)
	}
	if len(users) == 0 {
		return []push.Preference{}, nil
	}

	prefKeys := make([]string, len(users))
	for i, u := range users {
		prefKeys[i] = s.keys.pref(u)
	}
	values, err := s.client.MGet(ctx, prefKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list preferences: %w", err)
	}

	prefs := make([]push.Preference, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p push.Preference
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("redisstore: decode preference: %w", err)
		}
		if p.Enabled {
			prefs = append(prefs, p)
		}
	}
	sort.Slice(prefs, func(i, j int) bool { return prefs[i].UserID < prefs[j].UserID })
	return prefs, nil
}

func (s *Store) SavePreference(ctx context.Context, pref push.Preference) error {
	if pref.UserID == "" {
		return push.ErrInvalidPreference
	}

	raw, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("redisstore: encode preference: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keys.pref(pref.UserID), raw, 0)
		if pref.Enabled {
			pipe.SAdd(ctx, s.keys.enabledPrefs(), pref.UserID)
		} else {
			pipe.SRem(ctx, s.keys.enabledPrefs(), pref.UserID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: save preference: %w", err)
	}
	return nil
}

func (s *Store) WriteLog(ctx context.Context, entry push.LogEntry) error {
	return s.WriteLogs(ctx, []push.LogEntry{entry})
}

// WriteLogs stores all entries in one transaction.
func (s *Store) WriteLogs(ctx context.Context, entries []push.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	prepared := make([]push.LogEntry, len(entries))
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.UserID == "" {
			return push.ErrInvalidLogEntry
		}
		if e.SentAt.IsZero() {
			e.SentAt = now
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("redisstore: encode log: %w", err)
		}
		prepared[i] = e
		encoded[i] = raw
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, e := range prepared {
			pipe.HSet(ctx, s.keys.logs(e.UserID), e.ID, encoded[i])
			pipe.ZAdd(ctx, s.keys.logsBySent(e.UserID), redis.Z{Score: sentScore(e.SentAt), Member: e.ID})
			if !e.Read {
				pipe.SAdd(ctx, s.keys.unread(e.UserID), e.ID)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: write logs: %w", err)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, userID string, opts push.ListOptions) ([]push.LogEntry, error) {
	args := sentRange(s.keys.logsBySent(userID), opts)
	ids, err := s.client.ZRangeArgs(ctx, args).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list logs: %w", err)
	}
	entries, err := s.loadLogs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if !opts.OnlyUnread {
		return entries, nil
	}

	entries = slices.DeleteFunc(entries, func(e push.LogEntry) bool { return e.Read })
	return paginate(entries, opts.Offset, opts.Limit), nil
}

// sentRange selects ids newest first. Pagination is pushed to Redis unless
// unread filtering has to happen after the read.
func sentRange(key string, opts push.ListOptions) redis.ZRangeArgs {
	args := redis.ZRangeArgs{
		Key:     key,
		Start:   "-inf",
		Stop:    "+inf",
		ByScore: true,
		Rev:     true,
	}
	if opts.Since != nil {
		args.Start = strconv.FormatFloat(sentScore(*opts.Since), 'f', -1, 64)
	}
	if !opts.OnlyUnread && (opts.Limit > 0 || opts.Offset > 0) {
		args.Offset = int64(opts.Offset)
		args.Count = int64(opts.Limit)
		if opts.Limit == 0 {
			args.Count = -1
		}
	}
	return args
}

func (s *Store) loadLogs(ctx context.Context, userID string, ids []string) ([]push.LogEntry, error) {
	if len(ids) == 0 {
		return []push.LogEntry{}, nil
	}
	values, err := s.client.HMGet(ctx, s.keys.logs(userID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: load logs: %w", err)
	}

	entries := make([]push.LogEntry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var e push.LogEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("redisstore: decode log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) MarkRead(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	entries, err := s.loadLogs(ctx, userID, ids)
	if err != nil {
		return err
	}

	updates := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.Read {
			continue
		}
		e.MarkAsRead()
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("redisstore: encode log: %w", err)
		}
		updates[e.ID] = raw
	}
	if len(updates) == 0 {
		return nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, raw := range updates {
			pipe.HSet(ctx, s.keys.logs(userID), id, raw)
			pipe.SRem(ctx, s.keys.unread(userID), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: mark read: %w", err)
	}
	return nil
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := s.client.SCard(ctx, s.keys.unread(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstore: count unread: %w", err)
	}
	return int(n), nil
}

func sentScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func paginate(entries []push.LogEntry, offset, limit int) []push.LogEntry {
	if offset >= len(entries) {
		return []push.LogEntry{}
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
