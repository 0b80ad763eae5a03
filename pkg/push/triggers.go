package push

import "fmt"

// Notification types carried in payload data under "type".
const (
	TypeEventApproved = "event_approved"
	TypeNearbyEvent   = "nearby_event"
	TypeRoleChanged   = "role_changed"
)

// EventApprovedPayload notifies an organizer that their event was approved.
func EventApprovedPayload(eventID, eventTitle string) Payload {
	return NewPayload(
		"Event approved",
		fmt.Sprintf("%q is now published.", eventTitle),
		map[string]any{
			"type":          TypeEventApproved,
			DataKeyEventIDs: []string{eventID},
		},
	)
}

// NearbyEventPayload announces a new event in the given category. The
// category makes the payload eligible for broadcast to subscribed users.
func NearbyEventPayload(eventID, eventTitle, category string) Payload {
	return NewPayload(
		"New event nearby",
		eventTitle,
		map[string]any{
			"type":          TypeNearbyEvent,
			DataKeyCategory: category,
			DataKeyEventIDs: []string{eventID},
		},
	)
}

// RoleChangedPayload tells a user their account role changed.
func RoleChangedPayload(role string) Payload {
	return NewPayload(
		"Your role has changed",
		fmt.Sprintf("You are now %s.", role),
		map[string]any{
			"type": TypeRoleChanged,
			"role": role,
		},
	)
}
