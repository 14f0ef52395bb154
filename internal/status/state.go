package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/veil-im/veil/internal/bus"
)

// State represents a session runtime state.
type State string

const (
	Booting   State = "BOOTING"
	Loading   State = "LOADING"
	Ready     State = "READY"
	Reloading State = "RELOADING"
	Degraded  State = "DEGRADED"
	Error     State = "ERROR"
)

// validTransitions defines allowed state transitions. A failed initial
// load ends in Error; a failed reconciliation reload only degrades.
var validTransitions = map[State][]State{
	Booting:   {Loading, Error},
	Loading:   {Ready, Error},
	Ready:     {Reloading, Degraded, Error},
	Reloading: {Ready, Degraded, Error},
	Degraded:  {Reloading, Ready, Error},
	Error:     {Booting},
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in Booting.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Booting, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.NewEvent("session.status_changed", Change{From: from, To: to}))
	}
	return nil
}

// Change is the payload for status change events.
type Change struct {
	From State
	To   State
}
