package store

import (
	"context"
	"fmt"
	"time"

	"github.com/veil-im/veil/internal/model"
)

// UpsertContact inserts or updates a contact record. Used by veilctl
// for seeding and contact management; the engine itself only reads
// contacts through Load.
func (db *DB) UpsertContact(ctx context.Context, c *model.Contact) error {
	address := c.Address
	if c.Presence != model.PresenceOnline {
		address = ""
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, presence, address, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			presence = excluded.presence,
			address = excluded.address,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, string(c.Presence), address, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

// NextContactID returns the smallest unused contact id, for adding a
// contact without one assigned.
func (db *DB) NextContactID(ctx context.Context) (model.ContactID, error) {
	var maxID int64
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM contacts`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("next contact id: %w", err)
	}
	return model.ContactID(maxID + 1), nil
}
