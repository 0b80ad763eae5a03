package push

import (
	"context"
	"errors"
	"slices"
)

// Reasons reported when a dispatch is declined before any provider call.
const (
	ReasonNotEnabled    = "notifications not enabled"
	ReasonNoCategory    = "payload has no category"
	ReasonNotSubscribed = "category not subscribed"
	ReasonNoToken       = "no token"
)

// Decision is the outcome of the preference gate.
type Decision struct {
	Allow  bool
	Reason string
}

func allow() Decision              { return Decision{Allow: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// PreferenceGate decides whether a user may receive a payload. It performs
// exactly one preference read and no other I/O.
type PreferenceGate struct {
	prefs PreferenceStore
}

// NewPreferenceGate creates a gate backed by prefs.
func NewPreferenceGate(prefs PreferenceStore) *PreferenceGate {
	return &PreferenceGate{prefs: prefs}
}

// Allow evaluates the user's preference against the payload categories.
// A missing preference row denies; a store failure is returned as an error.
func (g *PreferenceGate) Allow(ctx context.Context, userID string, payload Payload) (Decision, error) {
	pref, err := g.prefs.GetPreference(ctx, userID)
	if errors.Is(err, ErrPreferenceNotFound) {
		return deny(ReasonNotEnabled), nil
	}
	if err != nil {
		return Decision{}, err
	}
	return Evaluate(*pref, payload), nil
}

// Evaluate applies the gate rules to an already loaded preference.
//
// "categories" takes precedence over "category". An untagged payload never
// passes a non-empty category filter.
func Evaluate(pref Preference, payload Payload) Decision {
	if !pref.Enabled {
		return deny(ReasonNotEnabled)
	}
	if !pref.Filtered() {
		return allow()
	}

	if categories, ok := payload.Categories(); ok {
		if slices.ContainsFunc(categories, pref.Subscribes) {
			return allow()
		}
		return deny(ReasonNotSubscribed)
	}
	if category, ok := payload.Category(); ok {
		if pref.Subscribes(category) {
			return allow()
		}
		return deny(ReasonNotSubscribed)
	}
	return deny(ReasonNoCategory)
}
