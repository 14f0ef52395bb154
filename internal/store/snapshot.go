package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/veil-im/veil/internal/model"
)

// LoadError marks the backing store as unreadable or malformed. Fatal
// on the initial load, logged-only on a reconciliation reload.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load message store: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the authoritative snapshot: all contacts and every
// message grouped into day buckets ordered by (day, seq). Derived
// contact fields are never stored, and the address of any contact
// that is not online is dropped unconditionally.
func (db *DB) Load(ctx context.Context) (*model.Snapshot, error) {
	contacts, err := db.loadContacts(ctx)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	timelines, err := db.loadTimelines(ctx)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return &model.Snapshot{Contacts: contacts, Timelines: timelines}, nil
}

func (db *DB) loadContacts(ctx context.Context) ([]model.Contact, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, presence, address
		FROM contacts
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		var presence string
		if err := rows.Scan(&c.ID, &c.Name, &presence, &c.Address); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Presence = model.Presence(presence)
		// An offline contact never carries an address.
		if c.Presence != model.PresenceOnline {
			c.Presence = model.PresenceOffline
			c.Address = ""
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (db *DB) loadTimelines(ctx context.Context) (map[model.ContactID]model.Timeline, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT msg_id, contact_id, day, sender, content, time_of_day, read, recognized_text, hidden_text
		FROM messages
		ORDER BY contact_id, day, seq`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	timelines := make(map[model.ContactID]model.Timeline)
	for rows.Next() {
		var (
			m         model.Message
			contactID model.ContactID
			day       string
			sender    string
		)
		if err := rows.Scan(&m.ID, &contactID, &day, &sender, &m.Content, &m.Time, &m.Read, &m.RecognizedText, &m.HiddenText); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sender = model.Sender(sender)
		if m.ID == "" {
			// Rows written before message IDs existed.
			m.ID = uuid.New().String()
		}

		tl := timelines[contactID]
		if n := len(tl); n > 0 && tl[n-1].Date == day {
			tl[n-1].Messages = append(tl[n-1].Messages, m)
		} else {
			tl = append(tl, model.DayBucket{Date: day, Messages: []model.Message{m}})
		}
		timelines[contactID] = tl
	}
	return timelines, rows.Err()
}

// Persist replaces the entire message store with the given timelines
// in a single transaction. The collaborator contract is whole-store
// replacement, not incremental update; the last writer wins.
func (db *DB) Persist(ctx context.Context, timelines map[model.ContactID]model.Timeline) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin persist: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (msg_id, contact_id, day, seq, sender, content, time_of_day, read, recognized_text, hidden_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UnixMilli()
	for contactID, tl := range timelines {
		for _, bucket := range tl {
			for seq, m := range bucket.Messages {
				id := m.ID
				if id == "" {
					id = uuid.New().String()
				}
				if _, err := stmt.ExecContext(ctx,
					id, contactID, bucket.Date, seq,
					string(m.Sender), m.Content, m.Time, m.Read,
					m.RecognizedText, m.HiddenText, now); err != nil {
					return fmt.Errorf("insert message: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit persist: %w", err)
	}
	return nil
}
