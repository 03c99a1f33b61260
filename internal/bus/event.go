package bus

import "time"

// Event kinds published by the guestbook controller.
const (
	EntriesLoaded    = "guestbook.entries_loaded"
	LoadFailed       = "guestbook.load_failed"
	SubmitStarted    = "guestbook.submit_started"
	SubmitFinished   = "guestbook.submit_finished"
	NoticeRaised     = "guestbook.notice"
	DraftChanged     = "draft.changed"
	DraftModeChanged = "draft.mode_changed"
)

// Event represents a state change published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// ServerStatusChanged is published by gbd when its lifecycle state moves.
const ServerStatusChanged = "server.status_changed"
