package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/veil-im/veil/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + enrichment)", result.Version)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	db := testDB(t)

	snap, err := db.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Contacts) != 0 {
		t.Errorf("got %d contacts, want 0", len(snap.Contacts))
	}
	if len(snap.Timelines) != 0 {
		t.Errorf("got %d timelines, want 0", len(snap.Timelines))
	}
}

func TestPersistAndLoadPreservesOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertContact(ctx, &model.Contact{ID: 1, Name: "Alice", Presence: model.PresenceOnline, Address: "10.0.0.2:4747"}); err != nil {
		t.Fatal(err)
	}

	timelines := map[model.ContactID]model.Timeline{
		1: {
			{Date: "2024-06-01", Messages: []model.Message{
				{ID: "m1", Sender: model.SenderUser, Content: "hi", Time: "10:00:00", Read: true},
				{ID: "m2", Sender: model.SenderContact, Content: "hello", Time: "10:00:05"},
			}},
			{Date: "2024-06-02", Messages: []model.Message{
				{ID: "m3", Sender: model.SenderUser, Content: "image:1_x.png", Time: "08:30:00", Read: true},
			}},
		},
	}
	if err := db.Persist(ctx, timelines); err != nil {
		t.Fatal(err)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tl := snap.Timelines[1]
	if len(tl) != 2 {
		t.Fatalf("got %d buckets, want 2", len(tl))
	}
	if tl[0].Date != "2024-06-01" || tl[1].Date != "2024-06-02" {
		t.Errorf("bucket dates = %q, %q; want ascending", tl[0].Date, tl[1].Date)
	}
	if tl[0].Messages[0].Content != "hi" || tl[0].Messages[1].Content != "hello" {
		t.Errorf("day-one order broken: %q, %q", tl[0].Messages[0].Content, tl[0].Messages[1].Content)
	}
	if !tl[0].Messages[0].Read || tl[0].Messages[1].Read {
		t.Error("read flags not round-tripped")
	}
}

func TestPersistIsWholeStoreReplace(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertContact(ctx, &model.Contact{ID: 1, Name: "A", Presence: model.PresenceOffline}); err != nil {
		t.Fatal(err)
	}

	first := map[model.ContactID]model.Timeline{
		1: {{Date: "2024-06-01", Messages: []model.Message{{ID: "old", Sender: model.SenderUser, Content: "old", Time: "09:00:00"}}}},
	}
	if err := db.Persist(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := map[model.ContactID]model.Timeline{
		1: {{Date: "2024-06-02", Messages: []model.Message{{ID: "new", Sender: model.SenderUser, Content: "new", Time: "09:00:00"}}}},
	}
	if err := db.Persist(ctx, second); err != nil {
		t.Fatal(err)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	tl := snap.Timelines[1]
	if len(tl) != 1 || tl[0].Date != "2024-06-02" {
		t.Fatalf("old messages survived the replace: %+v", tl)
	}
}

func TestPersistRoundTripsEnrichment(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertContact(ctx, &model.Contact{ID: 2, Name: "B", Presence: model.PresenceOffline}); err != nil {
		t.Fatal(err)
	}
	timelines := map[model.ContactID]model.Timeline{
		2: {{Date: "2024-06-01", Messages: []model.Message{
			{ID: "a1", Sender: model.SenderContact, Content: "audio:rec1.wav", Time: "10:00:00", RecognizedText: "hello"},
			{ID: "i1", Sender: model.SenderContact, Content: "image:2_9_stego.png", Time: "10:01:00", HiddenText: "secret"},
		}}},
	}
	if err := db.Persist(ctx, timelines); err != nil {
		t.Fatal(err)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	msgs := snap.Timelines[2][0].Messages
	if msgs[0].RecognizedText != "hello" {
		t.Errorf("RecognizedText = %q, want hello", msgs[0].RecognizedText)
	}
	if msgs[1].HiddenText != "secret" {
		t.Errorf("HiddenText = %q, want secret", msgs[1].HiddenText)
	}
}

func TestLoadStripsOfflineAddress(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Write the address column directly; UpsertContact would already
	// strip it, and Load must enforce the invariant regardless of how
	// the row got there.
	if _, err := db.Exec(`INSERT INTO contacts (id, name, presence, address) VALUES (3, 'C', 'offline', '10.0.0.9:4747')`); err != nil {
		t.Fatal(err)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(snap.Contacts))
	}
	if snap.Contacts[0].Address != "" {
		t.Errorf("offline contact carries address %q", snap.Contacts[0].Address)
	}
}

func TestLoadBackfillsMessageIDs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO contacts (id, name, presence) VALUES (4, 'D', 'offline')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO messages (msg_id, contact_id, day, seq, sender, content, time_of_day, read) VALUES ('', 4, '2024-06-01', 0, 'contact', 'legacy', '10:00:00', 0)`); err != nil {
		t.Fatal(err)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id := snap.Timelines[4][0].Messages[0].ID; id == "" {
		t.Error("legacy row loaded without a backfilled ID")
	}
}

func TestLoadErrorOnMalformedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// No migrations: the schema is missing entirely.
	_, err = db.Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
}

func TestNextContactID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.NextContactID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("NextContactID on empty store = %d, want 1", id)
	}

	if err := db.UpsertContact(ctx, &model.Contact{ID: 7, Name: "G", Presence: model.PresenceOffline}); err != nil {
		t.Fatal(err)
	}
	id, err = db.NextContactID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id != 8 {
		t.Errorf("NextContactID = %d, want 8", id)
	}
}
