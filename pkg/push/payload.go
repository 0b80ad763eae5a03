package push

import (
	"fmt"
	"maps"
	"strings"
)

// Recognized payload data keys.
const (
	DataKeyCategory   = "category"
	DataKeyCategories = "categories"
	DataKeyEventIDs   = "event_ids"
)

// Payload is the transport-neutral notification content: a title, a body and
// an optional data map. It is immutable once built; use NewPayload.
type Payload struct {
	Title string
	Body  string
	data  map[string]any
}

// NewPayload builds a payload, copying data so later mutations by the caller
// do not leak into in-flight dispatches.
func NewPayload(title, body string, data map[string]any) Payload {
	var cp map[string]any
	if len(data) > 0 {
		cp = maps.Clone(data)
	}
	return Payload{Title: title, Body: body, data: cp}
}

// Validate reports ErrInvalidPayload when there is nothing to display.
func (p Payload) Validate() error {
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Body) == "" {
		return fmt.Errorf("%w: title and body are empty", ErrInvalidPayload)
	}
	return nil
}

// Data returns a copy of the payload data, or nil when there is none.
func (p Payload) Data() map[string]any {
	if p.data == nil {
		return nil
	}
	return maps.Clone(p.data)
}

// Category returns the scalar "category" value.
func (p Payload) Category() (string, bool) {
	v, ok := p.data[DataKeyCategory]
	if !ok {
		return "", false
	}
	s, ok := scalarString(v)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Categories returns the "categories" array. The bool is false when the key is
// missing or not an array; an empty array is reported as present.
func (p Payload) Categories() ([]string, bool) {
	v, ok := p.data[DataKeyCategories]
	if !ok {
		return nil, false
	}
	return stringSlice(v)
}

// HasCategoryData reports whether the payload carries "category" or "categories".
func (p Payload) HasCategoryData() bool {
	if _, ok := p.Categories(); ok {
		return true
	}
	_, ok := p.Category()
	return ok
}

// EventIDs normalizes "event_ids" (a string or an array) to a slice.
func (p Payload) EventIDs() []string {
	v, ok := p.data[DataKeyEventIDs]
	if !ok {
		return nil
	}
	if s, ok := scalarString(v); ok {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	ids, _ := stringSlice(v)
	return ids
}

// StringData flattens the data map into string values for transports whose
// data payload is map[string]string. Arrays are joined with commas.
func (p Payload) StringData() map[string]string {
	return StringifyData(p.data)
}

// StringifyData converts arbitrary data values to strings.
func StringifyData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := scalarString(v); ok {
			out[k] = s
			continue
		}
		if ss, ok := stringSlice(v); ok {
			out[k] = strings.Join(ss, ",")
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case int, int32, int64, uint, uint32, uint64, float32, float64, bool:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}

func stringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := scalarString(item); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
