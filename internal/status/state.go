package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/guestbook/internal/bus"
)

// State is a gbd lifecycle state.
type State string

const (
	Booting   State = "BOOTING"
	Migrating State = "MIGRATING"
	Serving   State = "SERVING"
	Stopping  State = "STOPPING"
	Stopped   State = "STOPPED"
	Error     State = "ERROR"
)

var validTransitions = map[State][]State{
	Booting:   {Migrating, Error},
	Migrating: {Serving, Error},
	Serving:   {Stopping, Error},
	Stopping:  {Stopped, Error},
	Error:     {Stopping},
}

// Machine tracks the daemon lifecycle and rejects out-of-order moves.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine in Booting.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Booting, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Ready reports whether requests are being served.
func (m *Machine) Ready() bool {
	return m.Current() == Serving
}

// Transition moves to the given state or returns an error if the move is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	m.bus.Publish(bus.Event{
		Kind:    bus.ServerStatusChanged,
		Payload: StatusChange{From: from, To: to},
	})
	return nil
}

// StatusChange is the payload of bus.ServerStatusChanged.
type StatusChange struct {
	From State
	To   State
}
