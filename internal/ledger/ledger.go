// Package ledger holds the in-memory, mutable message model for the
// active session: per-contact timelines of day-bucketed messages.
// It is the optimistic source of truth between reconciliation reloads;
// persistence is the caller's job.
package ledger

import (
	"github.com/google/uuid"
	"github.com/veil-im/veil/internal/model"
)

// Ledger owns the session's timelines. It is not safe for concurrent
// use; the engine serializes all access on its run loop.
type Ledger struct {
	timelines map[model.ContactID]model.Timeline
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{timelines: make(map[model.ContactID]model.Timeline)}
}

// Append locates or creates the day bucket for date (matched by exact
// date equality) and appends a message with the given read state.
// Creates the timeline if absent; never fails. Returns the stored
// message, ID assigned.
func (l *Ledger) Append(contactID model.ContactID, sender model.Sender, content, tm, date string, read bool) model.Message {
	msg := model.Message{
		ID:      uuid.New().String(),
		Sender:  sender,
		Content: content,
		Time:    tm,
		Read:    read,
	}

	tl := l.timelines[contactID]
	if n := len(tl); n > 0 && tl[n-1].Date == date {
		tl[n-1].Messages = append(tl[n-1].Messages, msg)
	} else if idx := bucketIndex(tl, date); idx >= 0 {
		// Out-of-order append into an existing older bucket; reloads
		// can leave the tail on a different date than "today".
		tl[idx].Messages = append(tl[idx].Messages, msg)
	} else {
		tl = append(tl, model.DayBucket{Date: date, Messages: []model.Message{msg}})
	}
	l.timelines[contactID] = tl
	return msg
}

func bucketIndex(tl model.Timeline, date string) int {
	for i := range tl {
		if tl[i].Date == date {
			return i
		}
	}
	return -1
}

// MarkContactRead flips Read to true on every contact-sent message in
// the timeline, as one atomic local operation. Returns whether any
// flag actually changed, which drives write-back and re-render.
func (l *Ledger) MarkContactRead(contactID model.ContactID) bool {
	changed := false
	for bi := range l.timelines[contactID] {
		msgs := l.timelines[contactID][bi].Messages
		for mi := range msgs {
			if msgs[mi].Sender == model.SenderContact && !msgs[mi].Read {
				msgs[mi].Read = true
				changed = true
			}
		}
	}
	return changed
}

// Get returns the contact's timeline, empty if absent — never fails.
// The returned slice aliases ledger storage; callers must not retain
// it across mutations.
func (l *Ledger) Get(contactID model.ContactID) model.Timeline {
	return l.timelines[contactID]
}

// Timelines returns the live map, for read-only derivation (ranking,
// unread counts). Same aliasing caveat as Get.
func (l *Ledger) Timelines() map[model.ContactID]model.Timeline {
	return l.timelines
}

// ReplaceAll adopts freshly loaded timelines wholesale, discarding
// every local timeline. This is the reconciliation primitive:
// last writer wins at the granularity of the whole map.
func (l *Ledger) ReplaceAll(timelines map[model.ContactID]model.Timeline) {
	if timelines == nil {
		timelines = make(map[model.ContactID]model.Timeline)
	}
	l.timelines = timelines
}

// Snapshot returns a deep copy of all timelines, safe to hand to a
// persist goroutine or a render surface.
func (l *Ledger) Snapshot() map[model.ContactID]model.Timeline {
	return model.CloneTimelines(l.timelines)
}
