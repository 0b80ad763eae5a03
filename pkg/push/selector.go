package push

import (
	"context"
	"sort"
)

// TokenSelector implements the "last device wins" policy: a user is reachable
// through exactly one registration, the most recently updated one.
//
// Rows sharing the same UpdatedAt keep the store's natural order, so which of
// them is chosen is not deterministic across backends. Users with several
// active phones only receive pushes on the newest registration.
type TokenSelector struct {
	devices DeviceStore
}

// NewTokenSelector creates a selector backed by devices.
func NewTokenSelector(devices DeviceStore) *TokenSelector {
	return &TokenSelector{devices: devices}
}

// SelectTarget returns the newest registration of the user, or nil when the
// user has none.
func (s *TokenSelector) SelectTarget(ctx context.Context, userID string) (*DeviceRegistration, error) {
	rows, err := s.devices.ListDevices(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UpdatedAt.After(rows[j].UpdatedAt)
	})
	target := rows[0]
	return &target, nil
}
