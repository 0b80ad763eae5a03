package push

import (
	"slices"
	"time"
)

// Platform identifies the push transport a device registered with.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// DeviceRegistration is one installed app instance able to receive pushes.
// Rows are unique per (UserID, Token); only the newest UpdatedAt per user is
// used for delivery.
type DeviceRegistration struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Platform  Platform  `json:"platform"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Preference is a user's opt-in state. Empty CategoryIDs means no category filter.
type Preference struct {
	UserID      string   `json:"user_id"`
	Enabled     bool     `json:"is_enabled"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

// Filtered reports whether the preference restricts delivery by category.
func (p Preference) Filtered() bool {
	return len(p.CategoryIDs) > 0
}

// Subscribes reports whether category is in the preference's category set.
func (p Preference) Subscribes(category string) bool {
	return slices.Contains(p.CategoryIDs, category)
}

// LogEntry records one successfully sent notification. Entries are append-only;
// Read is the only field updated after insert.
type LogEntry struct {
	ID       string     `json:"id"`
	UserID   string     `json:"user_id"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	EventIDs []string   `json:"event_ids"`
	Read     bool       `json:"read"`
	ReadAt   *time.Time `json:"read_at,omitempty"`
	SentAt   time.Time  `json:"sent_at"`
}

// MarkAsRead marks the entry as read with the current timestamp.
func (e *LogEntry) MarkAsRead() {
	e.Read = true
	now := time.Now()
	e.ReadAt = &now
}

// Result summarizes one dispatch or an aggregated fan-out.
type Result struct {
	Success bool     `json:"success"`
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

func newResult() Result {
	return Result{Errors: []string{}}
}

// skipped is a result for a dispatch that never reached a provider.
func skipped(reason string) Result {
	return Result{Errors: []string{reason}}
}

// Merge returns the sum of r and other. Success is recomputed as Failed == 0.
func (r Result) Merge(other Result) Result {
	out := Result{
		Sent:   r.Sent + other.Sent,
		Failed: r.Failed + other.Failed,
		Errors: make([]string, 0, len(r.Errors)+len(other.Errors)),
	}
	out.Errors = append(out.Errors, r.Errors...)
	out.Errors = append(out.Errors, other.Errors...)
	out.Success = out.Failed == 0
	return out
}
