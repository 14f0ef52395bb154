package status

import (
	"testing"
	"time"

	"github.com/veil-im/veil/internal/bus"
)

func TestHappyPath(t *testing.T) {
	m := NewMachine(nil)
	for _, to := range []State{Loading, Ready, Reloading, Ready} {
		if err := m.Transition(to); err != nil {
			t.Fatalf("Transition(%s) error = %v", to, err)
		}
	}
	if m.Current() != Ready {
		t.Errorf("Current() = %s, want READY", m.Current())
	}
}

func TestReloadFailureDegrades(t *testing.T) {
	m := NewMachine(nil)
	mustTransition(t, m, Loading, Ready, Reloading, Degraded, Reloading, Ready)
}

func TestInvalidTransitionRejected(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err == nil {
		t.Error("Booting→Ready accepted, want error")
	}
	if m.Current() != Booting {
		t.Errorf("failed transition changed state to %s", m.Current())
	}
}

func TestTransitionPublishesChange(t *testing.T) {
	b := bus.New()
	sub := b.Subscribe("session.", 4)
	defer sub.Cancel()

	m := NewMachine(b)
	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-sub.C:
		change, ok := evt.Payload.(Change)
		if !ok {
			t.Fatalf("payload type %T, want Change", evt.Payload)
		}
		if change.From != Booting || change.To != Loading {
			t.Errorf("change = %+v, want Booting→Loading", change)
		}
	case <-time.After(time.Second):
		t.Fatal("no status event published")
	}
}

func mustTransition(t *testing.T, m *Machine, states ...State) {
	t.Helper()
	for _, to := range states {
		if err := m.Transition(to); err != nil {
			t.Fatalf("Transition(%s) error = %v", to, err)
		}
	}
}
