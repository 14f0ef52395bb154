package ledger

import (
	"sort"

	"github.com/veil-im/veil/internal/model"
)

// DeriveActivity recomputes Preview and LastActivity for every contact
// from its timeline: the content and composite date+time of the last
// message of the last day bucket, or empty strings when there are no
// messages. These fields are views, never authoritative.
func DeriveActivity(contacts []model.Contact, timelines map[model.ContactID]model.Timeline) {
	for i := range contacts {
		tl := timelines[contacts[i].ID]
		if _, last, ok := tl.Last(); ok {
			contacts[i].Preview = last.Content
			contacts[i].LastActivity = tl.ActivityKey()
		} else {
			contacts[i].Preview = ""
			contacts[i].LastActivity = ""
		}
	}
}

// Rank derives activity fields and sorts contacts descending by the
// composite last-activity string. The formats in model guarantee the
// lexicographic comparison is chronological. Contacts without messages
// have an empty key and sort last; ties keep input order (stable).
func Rank(contacts []model.Contact, timelines map[model.ContactID]model.Timeline) {
	DeriveActivity(contacts, timelines)
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[j].LastActivity < contacts[i].LastActivity
	})
}
