package bus

import (
	"testing"
	"time"
)

func recvOne(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case evt := <-sub.C:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func TestPublishMatchesNamespacePrefix(t *testing.T) {
	b := New()
	render := b.Subscribe("render.", 4)
	defer render.Cancel()
	all := b.Subscribe("", 4)
	defer all.Cancel()

	b.Publish(NewEvent("render.timeline", nil))
	b.Publish(NewEvent("session.flash", "notice"))

	if evt := recvOne(t, render); evt.Kind != "render.timeline" {
		t.Errorf("kind = %q, want render.timeline", evt.Kind)
	}
	select {
	case evt := <-render.C:
		t.Errorf("render subscriber got unrelated event %q", evt.Kind)
	default:
	}

	if evt := recvOne(t, all); evt.Kind != "render.timeline" {
		t.Errorf("first kind = %q, want render.timeline", evt.Kind)
	}
	if evt := recvOne(t, all); evt.Kind != "session.flash" {
		t.Errorf("second kind = %q, want session.flash", evt.Kind)
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := New()
	sub := b.Subscribe("", 1)
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(NewEvent("x", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe("", 4)
	sub.Cancel()
	sub.Cancel() // idempotent

	b.Publish(NewEvent("x", nil))
	select {
	case evt := <-sub.C:
		t.Errorf("cancelled subscriber received %q", evt.Kind)
	default:
	}
}
