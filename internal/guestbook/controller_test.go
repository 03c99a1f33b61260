package guestbook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/guestbook/internal/bus"
	"github.com/matheus3301/guestbook/internal/entry"
)

var errTransport = errors.New("connection refused")

// fakeRemote is an in-memory guestbook resource that records every call.
type fakeRemote struct {
	mu      sync.Mutex
	entries []entry.Entry
	nextID  int
	calls   []string

	listErr    error
	createErr  error
	replaceErr error
	deleteErr  error

	// When set, the matching call blocks until the channel is closed.
	listGate   chan struct{}
	createGate chan struct{}
}

func newFakeRemote(entries ...entry.Entry) *fakeRemote {
	return &fakeRemote{entries: entries, nextID: 100}
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeRemote) List(ctx context.Context) ([]entry.Entry, error) {
	f.record("list")
	f.mu.Lock()
	gate := f.listGate
	f.mu.Unlock()
	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.entries), nil
}

func (f *fakeRemote) Create(ctx context.Context, in entry.Input) (entry.Entry, error) {
	f.record("create")
	f.mu.Lock()
	gate := f.createGate
	f.mu.Unlock()
	if err := wait(ctx, gate); err != nil {
		return entry.Entry{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return entry.Entry{}, f.createErr
	}
	f.nextID++
	e := entry.Entry{ID: entry.ID(fmt.Sprint(f.nextID)), Name: in.Name, Message: in.Message}
	f.entries = append([]entry.Entry{e}, f.entries...)
	return e, nil
}

func (f *fakeRemote) Replace(_ context.Context, id entry.ID, in entry.Input) (entry.Entry, error) {
	f.record("replace:" + string(id))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return entry.Entry{}, f.replaceErr
	}
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].Name = in.Name
			f.entries[i].Message = in.Message
			return f.entries[i], nil
		}
	}
	return entry.Entry{}, errors.New("404 not found")
}

func (f *fakeRemote) Delete(_ context.Context, id entry.ID) error {
	f.record("delete:" + string(id))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	i := slices.IndexFunc(f.entries, func(e entry.Entry) bool { return e.ID == id })
	if i < 0 {
		return errors.New("404 not found")
	}
	f.entries = slices.Delete(f.entries, i, i+1)
	return nil
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeRemote) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeRemote) resetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func always(answer bool) ConfirmFunc {
	return func(string) bool { return answer }
}

// loaded returns a controller whose initial refresh already succeeded.
func loaded(t *testing.T, r *fakeRemote, confirm Confirmer) *Controller {
	t.Helper()
	c := New(r, confirm, nil, nil)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("initial Refresh() error = %v", err)
	}
	r.resetCalls()
	return c
}

var (
	alice = entry.Entry{ID: "1", Name: "Alice", Message: "Hello"}
	bob   = entry.Entry{ID: "7", Name: "Bob", Message: "Old"}
)

func TestNewStartsLoading(t *testing.T) {
	c := New(newFakeRemote(), nil, nil, nil)
	s := c.Signals()
	if !s.InitialLoading {
		t.Error("InitialLoading = false, want true before first fetch")
	}
	if s.Submitting || s.LastError != "" {
		t.Errorf("signals = %+v, want only InitialLoading", s)
	}
	if c.Draft() != (Draft{}) {
		t.Errorf("draft = %+v, want default", c.Draft())
	}
}

// Scenario A.
func TestRefreshEmptyList(t *testing.T) {
	c := New(newFakeRemote(), nil, nil, nil)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := c.Entries(); got == nil || len(got) != 0 {
		t.Errorf("Entries() = %#v, want empty non-nil list", got)
	}
	s := c.Signals()
	if s.InitialLoading {
		t.Error("InitialLoading = true after fetch settled")
	}
	if s.LastError != "" {
		t.Errorf("LastError = %q, want empty", s.LastError)
	}
}

// Scenario E.
func TestInitialRefreshFailure(t *testing.T) {
	r := newFakeRemote()
	r.listErr = errTransport
	c := New(r, nil, nil, nil)

	err := c.Refresh(context.Background())
	if !errors.Is(err, errTransport) {
		t.Fatalf("Refresh() error = %v, want wrapping %v", err, errTransport)
	}
	s := c.Signals()
	if s.InitialLoading {
		t.Error("InitialLoading = true after failed fetch")
	}
	if s.LastError != LoadFailedText {
		t.Errorf("LastError = %q, want %q", s.LastError, LoadFailedText)
	}
	if len(c.Entries()) != 0 {
		t.Errorf("Entries() = %v, want empty", c.Entries())
	}
}

func TestRefreshFailureKeepsListAndRecovers(t *testing.T) {
	r := newFakeRemote(alice, bob)
	c := loaded(t, r, nil)

	r.mu.Lock()
	r.listErr = errTransport
	r.mu.Unlock()
	_ = c.Refresh(context.Background())
	if !entry.Equal(c.Entries(), []entry.Entry{alice, bob}) {
		t.Errorf("Entries() = %v, want list kept after failure", c.Entries())
	}
	if c.Signals().LastError == "" {
		t.Error("LastError empty after failed fetch")
	}

	r.mu.Lock()
	r.listErr = nil
	r.mu.Unlock()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Signals().LastError != "" {
		t.Errorf("LastError = %q, want cleared by successful fetch", c.Signals().LastError)
	}
}

// P1.
func TestRefreshIdempotent(t *testing.T) {
	r := newFakeRemote(alice, bob)
	c := loaded(t, r, nil)
	before := c.Entries()

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !entry.Equal(before, c.Entries()) {
		t.Errorf("Entries() = %v, want %v", c.Entries(), before)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	c := loaded(t, newFakeRemote(alice), nil)
	got := c.Entries()
	got[0].Name = "Mallory"
	if c.Entries()[0].Name != "Alice" {
		t.Error("mutating the snapshot changed controller state")
	}
}

// P2 and Scenario B.
func TestSubmitComposeCreatesThenRefreshes(t *testing.T) {
	r := newFakeRemote(bob)
	c := loaded(t, r, nil)
	before := len(c.Entries())

	c.SetName("Alice")
	c.SetMessage("Hi")
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got, want := r.Calls(), []string{"create", "list"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	entries := c.Entries()
	if len(entries) != before+1 {
		t.Fatalf("len(Entries()) = %d, want %d", len(entries), before+1)
	}
	matches := 0
	for _, e := range entries {
		if e.Name == "Alice" && e.Message == "Hi" {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("found %d Alice/Hi entries, want 1", matches)
	}
	if c.Draft() != (Draft{}) {
		t.Errorf("draft = %+v, want default", c.Draft())
	}
	if c.Signals().Submitting {
		t.Error("Submitting = true after submit settled")
	}
}

func TestSubmitSucceedsWhenRefreshFails(t *testing.T) {
	r := newFakeRemote(bob)
	c := loaded(t, r, nil)
	r.mu.Lock()
	r.listErr = errTransport
	r.mu.Unlock()

	c.SetName("Alice")
	c.SetMessage("Hi")
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v, want nil", err)
	}

	if got, want := r.Calls(), []string{"create", "list"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if c.Draft() != (Draft{}) {
		t.Errorf("draft = %+v, want default", c.Draft())
	}
	s := c.Signals()
	if s.Submitting {
		t.Error("Submitting = true after submit settled")
	}
	if s.LastError != LoadFailedText {
		t.Errorf("LastError = %q, want %q", s.LastError, LoadFailedText)
	}
	if n, ok := c.TakeNotice(); ok {
		t.Errorf("unexpected notice %+v", n)
	}
	if got := c.Entries(); !entry.Equal(got, []entry.Entry{bob}) {
		t.Errorf("entries = %v, want the list from before the submit", got)
	}
}

// Scenario C.
func TestSubmitEditReplaces(t *testing.T) {
	r := newFakeRemote(alice, bob)
	c := loaded(t, r, nil)

	if err := c.BeginEdit(bob); err != nil {
		t.Fatal(err)
	}
	c.SetMessage("New")
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got, want := r.Calls(), []string{"replace:7", "list"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	got, ok := c.Lookup("7")
	if !ok || got.Name != "Bob" || got.Message != "New" {
		t.Errorf("Lookup(7) = %+v, %v; want Bob/New", got, ok)
	}
	if c.Draft().Mode() != Composing {
		t.Errorf("mode = %s, want COMPOSING after submit", c.Draft().Mode())
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name, author, message string
	}{
		{"empty", "", ""},
		{"no name", "", "Hi"},
		{"no message", "Alice", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRemote()
			c := loaded(t, r, nil)
			c.SetName(tt.author)
			c.SetMessage(tt.message)

			if err := c.Submit(context.Background()); !errors.Is(err, ErrInvalidDraft) {
				t.Fatalf("Submit() error = %v, want ErrInvalidDraft", err)
			}
			if calls := r.Calls(); len(calls) != 0 {
				t.Errorf("calls = %v, want none", calls)
			}
			if _, ok := c.TakeNotice(); ok {
				t.Error("validation failure raised a notice")
			}
			if c.Signals().Submitting || c.Signals().LastError != "" {
				t.Errorf("signals = %+v, want untouched", c.Signals())
			}
		})
	}
}

func TestSubmitFailurePreservesDraft(t *testing.T) {
	r := newFakeRemote(alice)
	r.createErr = errTransport
	c := loaded(t, r, nil)
	c.SetName("Carol")
	c.SetMessage("Hey")

	err := c.Submit(context.Background())
	if !errors.Is(err, errTransport) {
		t.Fatalf("Submit() error = %v, want wrapping %v", err, errTransport)
	}
	if got, want := r.Calls(), []string{"create"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v (no refresh after failure)", got, want)
	}
	if d := c.Draft(); d.Name != "Carol" || d.Message != "Hey" {
		t.Errorf("draft = %+v, want preserved", d)
	}
	n, ok := c.TakeNotice()
	if !ok || n.Kind != SubmitFailed || n.Text != SubmitFailedText {
		t.Errorf("notice = %+v, %v; want SubmitFailed", n, ok)
	}
	if _, ok := c.TakeNotice(); ok {
		t.Error("notice delivered twice")
	}
	s := c.Signals()
	if s.Submitting {
		t.Error("Submitting = true after failure settled")
	}
	if s.LastError != "" {
		t.Errorf("LastError = %q, submit failures use notices", s.LastError)
	}
}

// P6.
func TestSubmitMutualExclusion(t *testing.T) {
	r := newFakeRemote()
	gate := make(chan struct{})
	r.createGate = gate
	b := bus.New()
	events, unsub := b.Subscribe(bus.SubmitStarted, 4)
	defer unsub()

	c := New(r, nil, b, nil)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.resetCalls()
	c.SetName("Alice")
	c.SetMessage("Hi")

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()

	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for submit to start")
	}
	if !c.Signals().Submitting {
		t.Fatal("Submitting = false while create is in flight")
	}

	if err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second Submit() error = %v, want ErrSubmitInFlight", err)
	}
	// Typing stays possible while the request is outstanding.
	c.SetMessage("Hi again")

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if n := r.count("create"); n != 1 {
		t.Errorf("create calls = %d, want 1", n)
	}
	if c.Signals().Submitting {
		t.Error("Submitting = true after submit settled")
	}
}

// P3.
func TestEditRoundTrip(t *testing.T) {
	r := newFakeRemote(alice, bob)
	c := loaded(t, r, nil)
	before := c.Entries()

	if err := c.BeginEdit(bob); err != nil {
		t.Fatal(err)
	}
	c.CancelEdit()

	if c.Draft() != (Draft{}) {
		t.Errorf("draft = %+v, want default", c.Draft())
	}
	if !entry.Equal(before, c.Entries()) {
		t.Error("entries changed by edit round trip")
	}
	if calls := r.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

// P4.
func TestBeginEditOverwrites(t *testing.T) {
	c := loaded(t, newFakeRemote(alice, bob), nil)

	if err := c.BeginEdit(alice); err != nil {
		t.Fatal(err)
	}
	c.SetMessage("half-typed")
	if err := c.BeginEdit(bob); err != nil {
		t.Fatal(err)
	}

	want := Draft{Name: "Bob", Message: "Old", EditTarget: "7"}
	if got := c.Draft(); got != want {
		t.Errorf("draft = %+v, want %+v", got, want)
	}
}

func TestBeginEditUnknownEntry(t *testing.T) {
	c := loaded(t, newFakeRemote(alice), nil)
	c.SetName("keep")

	if err := c.BeginEdit(bob); !errors.Is(err, ErrUnknownEntry) {
		t.Fatalf("BeginEdit() error = %v, want ErrUnknownEntry", err)
	}
	if c.Draft() != (Draft{Name: "keep"}) {
		t.Errorf("draft = %+v, want untouched", c.Draft())
	}
}

// P5.
func TestDeleteDeclined(t *testing.T) {
	r := newFakeRemote(alice, bob)
	c := loaded(t, r, always(false))
	before := c.Entries()

	if err := c.Delete(context.Background(), "7"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("Delete() error = %v, want ErrNotConfirmed", err)
	}
	if calls := r.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
	if !entry.Equal(before, c.Entries()) {
		t.Error("entries changed after declined delete")
	}
}

func TestDeleteNilConfirmerDeclines(t *testing.T) {
	r := newFakeRemote(alice)
	c := loaded(t, r, nil)
	if err := c.Delete(context.Background(), "1"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("Delete() error = %v, want ErrNotConfirmed", err)
	}
	if calls := r.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

func TestDeleteConfirmedRefreshes(t *testing.T) {
	r := newFakeRemote(alice, bob)
	var prompt string
	c := loaded(t, r, ConfirmFunc(func(p string) bool {
		prompt = p
		return true
	}))

	if err := c.Delete(context.Background(), "7"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if prompt != DeletePrompt {
		t.Errorf("prompt = %q, want %q", prompt, DeletePrompt)
	}
	if got, want := r.Calls(), []string{"delete:7", "list"}; !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if !entry.Equal(c.Entries(), []entry.Entry{alice}) {
		t.Errorf("Entries() = %v, want only alice", c.Entries())
	}
}

// Scenario D.
func TestDeleteFailure(t *testing.T) {
	r := newFakeRemote(alice, bob)
	r.deleteErr = errTransport
	c := loaded(t, r, always(true))
	before := c.Entries()

	if err := c.Delete(context.Background(), "7"); !errors.Is(err, errTransport) {
		t.Fatalf("Delete() error = %v, want wrapping %v", err, errTransport)
	}
	n, ok := c.TakeNotice()
	if !ok || n.Kind != DeleteFailed || n.Text != DeleteFailedText {
		t.Errorf("notice = %+v, %v; want DeleteFailed", n, ok)
	}
	if !entry.Equal(before, c.Entries()) {
		t.Error("entries changed after failed delete")
	}
	if n := r.count("list"); n != 0 {
		t.Errorf("list calls = %d, want 0 after failed delete", n)
	}
}

func TestDeleteKeepsDanglingEditTarget(t *testing.T) {
	r := newFakeRemote(alice, bob)
	c := loaded(t, r, always(true))

	if err := c.BeginEdit(bob); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(context.Background(), bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lookup(bob.ID); ok {
		t.Fatal("deleted entry still listed")
	}
	if c.Draft().EditTarget != bob.ID {
		t.Errorf("EditTarget = %q, want dangling %q", c.Draft().EditTarget, bob.ID)
	}

	// Resubmitting against the vanished id fails at the remote.
	if err := c.Submit(context.Background()); err == nil {
		t.Fatal("Submit() against deleted entry succeeded")
	}
	if n, ok := c.TakeNotice(); !ok || n.Kind != SubmitFailed {
		t.Errorf("notice = %+v, %v; want SubmitFailed", n, ok)
	}
	if c.Draft().EditTarget != bob.ID {
		t.Error("draft lost after failed submit")
	}
}

func TestDraftEvents(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("draft.", 10)
	defer unsub()

	r := newFakeRemote(bob)
	c := New(r, nil, b, nil)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.BeginEdit(bob); err != nil {
		t.Fatal(err)
	}

	var change *ModeChange
	for len(ch) > 0 {
		evt := <-ch
		if evt.Kind == bus.DraftModeChanged {
			mc := evt.Payload.(ModeChange)
			change = &mc
		}
	}
	if change == nil {
		t.Fatal("no draft.mode_changed event")
	}
	if change.From != Composing || change.To != Editing || change.Target != "7" {
		t.Errorf("change = %+v, want COMPOSING -> EDITING(7)", *change)
	}

	// Setting the same value publishes nothing.
	c.SetName("Bob")
	if len(ch) != 0 {
		t.Errorf("got %d events for a no-op update", len(ch))
	}
}

func TestCloseDiscardsLateResults(t *testing.T) {
	r := newFakeRemote(alice)
	gate := make(chan struct{})
	r.listGate = gate
	c := New(r, nil, nil, nil)

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for r.count("list") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("list request never started")
		}
		time.Sleep(time.Millisecond)
	}
	c.Close()
	close(gate)
	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("Refresh() error = %v, want ErrClosed", err)
	}
	if len(c.Entries()) != 0 {
		t.Error("late result applied after Close")
	}
	if !c.Signals().InitialLoading {
		t.Error("signals changed after Close")
	}
	if err := c.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrClosed", err)
	}
}

func TestRefreshAfterCloseSkipsNetwork(t *testing.T) {
	r := newFakeRemote(alice)
	c := New(r, nil, nil, nil)
	c.Close()

	if err := c.Refresh(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Refresh() error = %v, want ErrClosed", err)
	}
	if calls := r.Calls(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

func TestStartLoadsInBackground(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.EntriesLoaded, 1)
	defer unsub()

	c := New(newFakeRemote(alice), nil, b, nil)
	c.Start(context.Background())

	select {
	case evt := <-ch:
		if evt.Payload.(int) != 1 {
			t.Errorf("payload = %v, want 1", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for initial load")
	}
	if c.Signals().InitialLoading {
		t.Error("InitialLoading = true after start load")
	}
}
