package guestbook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/guestbook/internal/bus"
	"github.com/matheus3301/guestbook/internal/entry"
	"go.uber.org/zap"
)

var (
	ErrInvalidDraft   = errors.New("name and message are required")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrNotConfirmed   = errors.New("delete not confirmed")
	ErrUnknownEntry   = errors.New("entry is not in the current list")
	ErrClosed         = errors.New("controller closed")
)

// User-facing texts.
const (
	LoadFailedText   = "Failed to load entries. The server might be waking up (this can take ~50s)."
	SubmitFailedText = "Failed to save entry. Please try again."
	DeleteFailedText = "Failed to delete the entry."
	DeletePrompt     = "Are you sure you want to delete this message?"
)

// Remote is the CRUD resource holding the authoritative entry list.
type Remote interface {
	List(ctx context.Context) ([]entry.Entry, error)
	Create(ctx context.Context, in entry.Input) (entry.Entry, error)
	Replace(ctx context.Context, id entry.ID, in entry.Input) (entry.Entry, error)
	Delete(ctx context.Context, id entry.ID) error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Controller owns the local entry list, the draft and the operation signals,
// and sequences every mutation against the remote resource. Each successful
// mutation is followed by a full list refresh; the list is never patched locally.
//
// Network calls run on the caller's goroutine and never hold the state lock,
// so the draft stays editable while a request is outstanding.
type Controller struct {
	remote  Remote
	confirm Confirmer
	bus     *bus.Bus
	logger  *zap.Logger

	mu      sync.Mutex
	entries []entry.Entry
	draft   Draft
	signals Signals
	notice  *Notice
	closed  bool
}

// New creates a controller. A nil confirmer declines every delete.
func New(remote Remote, confirm Confirmer, b *bus.Bus, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		remote:  remote,
		confirm: confirm,
		bus:     b,
		logger:  logger,
		entries: []entry.Entry{},
		signals: Signals{InitialLoading: true},
	}
}

// Start triggers the initial list fetch in the background.
func (c *Controller) Start(ctx context.Context) {
	go func() {
		_ = c.Refresh(ctx)
	}()
}

// Refresh fetches the full list and replaces the local copy on success.
// On failure the local list is kept and LastError is set.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	entries, err := c.remote.List(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.signals.InitialLoading = false
	if err != nil {
		c.signals.LastError = LoadFailedText
		c.mu.Unlock()
		c.logger.Warn("fetch entries failed", zap.Error(err))
		c.publish(bus.LoadFailed, err.Error())
		return fmt.Errorf("list entries: %w", err)
	}
	if entries == nil {
		entries = []entry.Entry{}
	}
	c.entries = slices.Clone(entries)
	c.signals.LastError = ""
	n := len(c.entries)
	c.mu.Unlock()

	c.logger.Debug("entries loaded", zap.Int("count", n))
	c.publish(bus.EntriesLoaded, n)
	return nil
}

// Submit sends the draft: a replace when editing, a create otherwise.
// A blank name or message is rejected before any network call, and so is a
// second submit while one is in flight. On success the draft is cleared and the
// list refreshed; on failure the draft is kept and a SubmitFailed notice raised.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.signals.Submitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	d := c.draft
	if !d.Input().Valid() {
		c.mu.Unlock()
		return ErrInvalidDraft
	}
	c.signals.Submitting = true
	c.mu.Unlock()
	c.publish(bus.SubmitStarted, d.Mode())

	if err := c.dispatch(ctx, d); err != nil {
		c.mu.Lock()
		if !c.closed {
			c.signals.Submitting = false
			c.setNoticeLocked(SubmitFailed, SubmitFailedText, err)
		}
		c.mu.Unlock()
		c.logger.Warn("submit entry failed", zap.Error(err), zap.String("mode", string(d.Mode())), zap.String("target", string(d.EditTarget)))
		c.publish(bus.NoticeRaised, SubmitFailed)
		c.publish(bus.SubmitFinished, false)
		return fmt.Errorf("submit entry: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.draft
	c.draft = Draft{}
	c.mu.Unlock()
	c.publishDraft(prev, Draft{})

	// The list is re-read only after the mutation resolved.
	if err := c.Refresh(ctx); errors.Is(err, ErrClosed) {
		return ErrClosed
	}

	c.mu.Lock()
	if !c.closed {
		c.signals.Submitting = false
	}
	c.mu.Unlock()
	c.publish(bus.SubmitFinished, true)
	return nil
}

func (c *Controller) dispatch(ctx context.Context, d Draft) error {
	if d.Mode() == Editing {
		if _, err := c.remote.Replace(ctx, d.EditTarget, d.Input()); err != nil {
			return fmt.Errorf("replace %s: %w", d.EditTarget, err)
		}
		c.logger.Info("entry replaced", zap.String("id", string(d.EditTarget)))
		return nil
	}
	created, err := c.remote.Create(ctx, d.Input())
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	c.logger.Info("entry created", zap.String("id", string(created.ID)))
	return nil
}

// Delete removes an entry after the confirmer approves it, then refreshes.
// When declined nothing happens and ErrNotConfirmed is returned. On failure a
// DeleteFailed notice is raised and the local list is left untouched.
// A draft targeting the deleted entry is kept as is.
func (c *Controller) Delete(ctx context.Context, id entry.ID) error {
	if c.isClosed() {
		return ErrClosed
	}
	if c.confirm == nil || !c.confirm.Confirm(DeletePrompt) {
		return ErrNotConfirmed
	}

	if err := c.remote.Delete(ctx, id); err != nil {
		c.mu.Lock()
		if !c.closed {
			c.setNoticeLocked(DeleteFailed, DeleteFailedText, err)
		}
		c.mu.Unlock()
		c.logger.Warn("delete entry failed", zap.Error(err), zap.String("id", string(id)))
		c.publish(bus.NoticeRaised, DeleteFailed)
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	c.logger.Info("entry deleted", zap.String("id", string(id)))

	if err := c.Refresh(ctx); errors.Is(err, ErrClosed) {
		return ErrClosed
	}
	return nil
}

// BeginEdit loads e into the draft, replacing whatever was there.
// e must be in the current list.
func (c *Controller) BeginEdit(e entry.Entry) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !slices.ContainsFunc(c.entries, func(x entry.Entry) bool { return x.ID == e.ID }) {
		c.mu.Unlock()
		return ErrUnknownEntry
	}
	prev := c.draft
	c.draft = Draft{Name: e.Name, Message: e.Message, EditTarget: e.ID}
	next := c.draft
	c.mu.Unlock()

	c.publishDraft(prev, next)
	return nil
}

// CancelEdit resets the draft to an empty compose buffer.
func (c *Controller) CancelEdit() {
	c.updateDraft(func(*Draft) Draft { return Draft{} })
}

// SetName updates the draft's author name.
func (c *Controller) SetName(name string) {
	c.updateDraft(func(d *Draft) Draft {
		next := *d
		next.Name = name
		return next
	})
}

// SetMessage updates the draft's message.
func (c *Controller) SetMessage(message string) {
	c.updateDraft(func(d *Draft) Draft {
		next := *d
		next.Message = message
		return next
	})
}

func (c *Controller) updateDraft(fn func(*Draft) Draft) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.draft
	next := fn(&prev)
	if next == prev {
		c.mu.Unlock()
		return
	}
	c.draft = next
	c.mu.Unlock()

	c.publishDraft(prev, next)
}

// Lookup returns the entry with the given id from the current list.
func (c *Controller) Lookup(id entry.ID) (entry.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.entries, func(e entry.Entry) bool { return e.ID == id })
	if i < 0 {
		return entry.Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns a snapshot of the current list.
func (c *Controller) Entries() []entry.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.entries)
}

// Draft returns a snapshot of the draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Signals returns a snapshot of the operation signals.
func (c *Controller) Signals() Signals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signals
}

// TakeNotice returns the pending notice and clears it.
func (c *Controller) TakeNotice() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notice == nil {
		return Notice{}, false
	}
	n := *c.notice
	c.notice = nil
	return n, true
}

// Close detaches the controller. Requests still in flight complete, but
// their results are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) setNoticeLocked(kind NoticeKind, text string, err error) {
	c.notice = &Notice{Kind: kind, Text: text, Err: err, At: time.Now()}
}

func (c *Controller) publishDraft(prev, next Draft) {
	c.publish(bus.DraftChanged, next)
	if change, ok := modeChange(prev, next); ok {
		c.publish(bus.DraftModeChanged, change)
	}
}

func (c *Controller) publish(kind string, payload any) {
	c.bus.Publish(bus.Event{Kind: kind, Payload: payload})
}
