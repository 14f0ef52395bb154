package engine

import (
	"github.com/veil-im/veil/internal/ledger"
	"github.com/veil-im/veil/internal/model"
	"github.com/veil-im/veil/internal/status"
)

// View is a consistent, detached snapshot of everything a render
// surface draws: ranked contacts with unread badges, the active
// conversation and its full timeline.
type View struct {
	Status   status.State
	Contacts []model.Contact
	Unread   map[model.ContactID]int
	Active   model.ContactID
	Timeline model.Timeline
}

// View takes a snapshot on the run loop, so it never observes a
// half-applied mutation. Returns a zero view once the engine stops.
func (e *Engine) View() View {
	resp := make(chan View, 1)
	e.post(func() {
		contacts := make([]model.Contact, len(e.contacts))
		copy(contacts, e.contacts)
		resp <- View{
			Status:   e.machine.Current(),
			Contacts: contacts,
			Unread:   ledger.UnreadCounts(e.ledger.Timelines()),
			Active:   e.active,
			Timeline: e.ledger.Get(e.active).Clone(),
		}
	})
	select {
	case v := <-resp:
		return v
	case <-e.ctx.Done():
		return View{Status: e.machine.Current()}
	}
}
