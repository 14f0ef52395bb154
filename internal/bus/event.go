package bus

import "time"

// Event is a domain event published on the bus. Kind is a
// dot-separated name ("render.timeline", "session.flash"); subscribers
// filter by namespace prefix.
type Event struct {
	Kind    string
	At      time.Time
	Payload any
}

// NewEvent builds an event stamped with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, At: time.Now(), Payload: payload}
}
