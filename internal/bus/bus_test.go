package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("guestbook.", 10)
	defer unsub()

	b.Publish(Event{Kind: EntriesLoaded, Payload: 3})

	select {
	case evt := <-ch:
		if evt.Kind != EntriesLoaded {
			t.Errorf("got kind %q, want %s", evt.Kind, EntriesLoaded)
		}
		if evt.Timestamp.IsZero() {
			t.Error("Publish() did not stamp a timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("draft.", 10)
	defer unsub()

	b.Publish(Event{Kind: SubmitStarted})
	b.Publish(Event{Kind: DraftChanged})

	select {
	case evt := <-ch:
		if evt.Kind != DraftChanged {
			t.Errorf("got kind %q, want %s", evt.Kind, DraftChanged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyNamespaceReceivesAll(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 10)
	defer unsub()

	b.Publish(Event{Kind: LoadFailed})
	b.Publish(Event{Kind: DraftModeChanged})

	if got := len(ch); got != 2 {
		t.Errorf("buffered events = %d, want 2", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("guestbook.", 10)
	unsub()
	unsub() // idempotent

	b.Publish(Event{Kind: NoticeRaised})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("guestbook.", 1)
	defer unsub()

	b.Publish(Event{Kind: SubmitStarted})
	b.Publish(Event{Kind: SubmitFinished})

	evt := <-ch
	if evt.Kind != SubmitStarted {
		t.Errorf("got %q, want %s", evt.Kind, SubmitStarted)
	}
}

func TestNilBusPublish(t *testing.T) {
	var b *Bus
	b.Publish(Event{Kind: EntriesLoaded})
}
