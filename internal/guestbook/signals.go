package guestbook

import "time"

// Signals are the operation status flags observed by the presentation layer.
type Signals struct {
	// InitialLoading is true until the first list fetch settles.
	InitialLoading bool
	// Submitting is true while a create/replace and its follow-up refresh run.
	Submitting bool
	// LastError describes the latest fetch failure; empty after a successful fetch.
	LastError string
}

// NoticeKind identifies a one-shot failure notice.
type NoticeKind int

const (
	SubmitFailed NoticeKind = iota
	DeleteFailed
)

func (k NoticeKind) String() string {
	switch k {
	case SubmitFailed:
		return "submit_failed"
	case DeleteFailed:
		return "delete_failed"
	}
	return "unknown"
}

// Notice is a user-facing failure message that is shown once.
type Notice struct {
	Kind NoticeKind
	Text string
	Err  error
	At   time.Time
}
