package model

// ContactID identifies a contact in the backing store.
type ContactID int64

// Sender identifies which side of a conversation produced a message.
type Sender string

const (
	SenderUser    Sender = "user"
	SenderContact Sender = "contact"
)

// Presence is a contact's reachability state.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
)

// Contact represents a conversation partner. Preview and LastActivity
// are derived from the contact's timeline on every load and never
// written back to the store.
type Contact struct {
	ID       ContactID
	Name     string
	Presence Presence
	Address  string // only set while Presence is online

	Preview      string
	LastActivity string
}

// Message is a single timeline entry. ID is assigned at creation;
// rows loaded from stores written before IDs existed get one backfilled.
// Read is meaningful only for contact-sent messages. RecognizedText and
// HiddenText are enrichment fields attached after creation.
type Message struct {
	ID      string
	Sender  Sender
	Content string
	Time    string // TimeLayout
	Read    bool

	RecognizedText string
	HiddenText     string
}

// DayBucket holds one calendar day of messages in arrival order.
type DayBucket struct {
	Date     string // DateLayout
	Messages []Message
}

// Timeline is a contact's full history, day buckets ascending by date.
type Timeline []DayBucket

// Snapshot is one authoritative read of the backing store.
type Snapshot struct {
	Contacts  []Contact
	Timelines map[ContactID]Timeline
}

// Last returns the most recent message and its bucket date. ok is
// false for an empty timeline (trailing empty buckets count as empty).
func (tl Timeline) Last() (date string, msg Message, ok bool) {
	for i := len(tl) - 1; i >= 0; i-- {
		if n := len(tl[i].Messages); n > 0 {
			return tl[i].Date, tl[i].Messages[n-1], true
		}
	}
	return "", Message{}, false
}

// ActivityKey is the composite last-activity string used for ranking:
// bucket date and message time concatenated. DateLayout and TimeLayout
// are fixed-width and zero-padded, so lexicographic comparison orders
// chronologically. Empty for contacts with no messages.
func (tl Timeline) ActivityKey() string {
	date, msg, ok := tl.Last()
	if !ok {
		return ""
	}
	return date + " " + msg.Time
}

// Clone returns a deep copy of the timeline.
func (tl Timeline) Clone() Timeline {
	if tl == nil {
		return nil
	}
	out := make(Timeline, len(tl))
	for i, b := range tl {
		msgs := make([]Message, len(b.Messages))
		copy(msgs, b.Messages)
		out[i] = DayBucket{Date: b.Date, Messages: msgs}
	}
	return out
}

// CloneTimelines deep-copies a timelines map.
func CloneTimelines(in map[ContactID]Timeline) map[ContactID]Timeline {
	out := make(map[ContactID]Timeline, len(in))
	for id, tl := range in {
		out[id] = tl.Clone()
	}
	return out
}
