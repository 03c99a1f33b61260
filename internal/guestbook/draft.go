package guestbook

import "github.com/matheus3301/guestbook/internal/entry"

// Mode is the draft's editing mode.
type Mode string

const (
	Composing Mode = "COMPOSING"
	Editing   Mode = "EDITING"
)

// Draft is the single in-progress compose/edit buffer.
// An empty EditTarget means a new entry is being composed.
type Draft struct {
	Name       string
	Message    string
	EditTarget entry.ID
}

// Mode returns Editing when the draft targets an existing entry.
func (d Draft) Mode() Mode {
	if d.EditTarget != "" {
		return Editing
	}
	return Composing
}

// Input returns the draft's fields as a create/replace payload.
func (d Draft) Input() entry.Input {
	return entry.Input{Name: d.Name, Message: d.Message}
}

// ModeChange is the payload for draft mode change events.
type ModeChange struct {
	From   Mode
	To     Mode
	Target entry.ID
}

// modeChange returns the transition from prev to next, or false when neither
// the mode nor the edit target moved.
func modeChange(prev, next Draft) (ModeChange, bool) {
	if prev.EditTarget == next.EditTarget {
		return ModeChange{}, false
	}
	return ModeChange{From: prev.Mode(), To: next.Mode(), Target: next.EditTarget}, true
}
