package ledger

import "github.com/veil-im/veil/internal/model"

// CountUnread returns the number of contact-sent messages not yet
// read, across the whole timeline. Pure; used to badge the contact
// list.
func CountUnread(tl model.Timeline) int {
	n := 0
	for _, bucket := range tl {
		for _, m := range bucket.Messages {
			if m.Sender == model.SenderContact && !m.Read {
				n++
			}
		}
	}
	return n
}

// UnreadCounts computes the unread badge for every contact id present
// in timelines.
func UnreadCounts(timelines map[model.ContactID]model.Timeline) map[model.ContactID]int {
	counts := make(map[model.ContactID]int, len(timelines))
	for id, tl := range timelines {
		counts[id] = CountUnread(tl)
	}
	return counts
}
