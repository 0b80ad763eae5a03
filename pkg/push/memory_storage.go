package push

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. Suitable for development and tests.
type MemoryStore struct {
	devices map[string][]DeviceRegistration // userID -> registrations, insertion order
	prefs   map[string]Preference
	logs    map[string][]LogEntry
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string][]DeviceRegistration),
		prefs:   make(map[string]Preference),
		logs:    make(map[string][]LogEntry),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) SaveDevice(ctx context.Context, device DeviceRegistration) error {
	if device.UserID == "" || device.Token == "" || device.Platform == "" {
		return ErrInvalidDevice
	}
	if device.UpdatedAt.IsZero() {
		device.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.devices[device.UserID]
	for i := range rows {
		if rows[i].Token == device.Token {
			rows[i] = device
			return nil
		}
	}
	s.devices[device.UserID] = append(rows, device)
	return nil
}

func (s *MemoryStore) ListDevices(ctx context.Context, userID string) ([]DeviceRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.devices[userID]), nil
}

func (s *MemoryStore) DeleteDevice(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.devices[userID]
	if !ok {
		return nil
	}
	rows = slices.DeleteFunc(rows, func(d DeviceRegistration) bool {
		return d.Token == token
	})
	if len(rows) == 0 {
		delete(s.devices, userID)
		return nil
	}
	s.devices[userID] = rows
	return nil
}

func (s *MemoryStore) GetPreference(ctx context.Context, userID string) (*Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref, ok := s.prefs[userID]
	if !ok {
		return nil, ErrPreferenceNotFound
	}
	pref.CategoryIDs = slices.Clone(pref.CategoryIDs)
	return &pref, nil
}

func (s *MemoryStore) ListEnabledPreferences(ctx context.Context) ([]Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Preference, 0, len(s.prefs))
	for _, p := range s.prefs {
		if !p.Enabled {
			continue
		}
		p.CategoryIDs = slices.Clone(p.CategoryIDs)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryStore) SavePreference(ctx context.Context, pref Preference) error {
	if pref.UserID == "" {
		return ErrInvalidPreference
	}
	pref.CategoryIDs = slices.Clone(pref.CategoryIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[pref.UserID] = pref
	return nil
}

func (s *MemoryStore) WriteLog(ctx context.Context, entry LogEntry) error {
	return s.WriteLogs(ctx, []LogEntry{entry})
}

func (s *MemoryStore) WriteLogs(ctx context.Context, entries []LogEntry) error {
	for _, e := range entries {
		if e.ID == "" || e.UserID == "" {
			return ErrInvalidLogEntry
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if e.SentAt.IsZero() {
			e.SentAt = time.Now()
		}
		e.EventIDs = slices.Clone(e.EventIDs)
		s.logs[e.UserID] = append(s.logs[e.UserID], e)
	}
	return nil
}

func (s *MemoryStore) ListLogs(ctx context.Context, userID string, opts ListOptions) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]LogEntry, 0, len(s.logs[userID]))
	for _, e := range s.logs[userID] {
		if opts.OnlyUnread && e.Read {
			continue
		}
		if opts.Since != nil && e.SentAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, e)
	}

	// newest first
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].SentAt.After(filtered[j].SentAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []LogEntry{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, userID string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.logs[userID]
	if !ok {
		return nil
	}
	for i := range entries {
		if !entries[i].Read && slices.Contains(ids, entries[i].ID) {
			entries[i].MarkAsRead()
		}
	}
	return nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.logs[userID] {
		if !e.Read {
			count++
		}
	}
	return count, nil
}
