package entry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID is the opaque, server-assigned identifier of an entry.
// On the wire it may be a JSON string or a JSON number; it is always held as a string.
type ID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entry id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Entry is a single guestbook record.
type Entry struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Input is the payload for creating or replacing an entry.
type Input struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Valid reports whether both required fields are non-empty.
// Whitespace counts as content.
func (in Input) Valid() bool {
	return in.Name != "" && in.Message != ""
}

// Equal reports whether two lists hold the same entries in the same order.
func Equal(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name || a[i].Message != b[i].Message || !a[i].CreatedAt.Equal(b[i].CreatedAt) {
			return false
		}
	}
	return true
}
