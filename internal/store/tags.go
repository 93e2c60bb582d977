// ABOUTME: Tagged union for the note/task tags column
// ABOUTME: Tags are either freeform text or a structured JSON object (used by captures)

package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is the decoded form of a tags column. Exactly one of Freeform or
// Structured is meaningful; Structured wins when non-nil.
type Tags struct {
	Freeform   string
	Structured map[string]any
}

// FreeformTags wraps plain tag text such as "backend,bug,auth".
func FreeformTags(s string) Tags {
	return Tags{Freeform: s}
}

// StructuredTags wraps a key/value payload.
func StructuredTags(m map[string]any) Tags {
	if m == nil {
		m = map[string]any{}
	}
	return Tags{Structured: m}
}

// ParseTags decodes a raw tags column. A JSON object becomes Structured;
// anything else (including invalid JSON) is Freeform.
func ParseTags(raw *string) Tags {
	if raw == nil {
		return Tags{}
	}
	s := strings.TrimSpace(*raw)
	if strings.HasPrefix(s, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil && m != nil {
			return Tags{Structured: m}
		}
	}
	return Tags{Freeform: *raw}
}

// IsStructured reports whether the tags carry a structured payload.
func (t Tags) IsStructured() bool {
	return t.Structured != nil
}

// IsEmpty reports whether there is nothing to store.
func (t Tags) IsEmpty() bool {
	return t.Structured == nil && t.Freeform == ""
}

// Metadata returns the structured payload, or an empty map for freeform tags.
func (t Tags) Metadata() map[string]any {
	if t.Structured == nil {
		return map[string]any{}
	}
	return t.Structured
}

// Serialize encodes the tags for storage. Empty tags serialize to nil (NULL).
func (t Tags) Serialize() (*string, error) {
	if t.IsEmpty() {
		return nil, nil
	}
	if t.Structured == nil {
		s := t.Freeform
		return &s, nil
	}
	b, err := json.Marshal(t.Structured)
	if err != nil {
		return nil, fmt.Errorf("marshaling tags: %w", err)
	}
	s := string(b)
	return &s, nil
}
