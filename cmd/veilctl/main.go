package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/veil-im/veil/internal/ledger"
	"github.com/veil-im/veil/internal/lock"
	"github.com/veil-im/veil/internal/model"
	"github.com/veil-im/veil/internal/session"
	"github.com/veil-im/veil/internal/store"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// The store is single-owner; refuse to touch it while a session
	// process holds the lock.
	lk, err := lock.Acquire(session.Dir(sessionName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = lk.Release() }()

	db, err := store.Open(session.DBPath(sessionName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "contacts":
		cmdContacts(ctx, db, *jsonFlag)
	case "history":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: veilctl history <contact-id>")
			os.Exit(1)
		}
		cmdHistory(ctx, db, args[1], *jsonFlag)
	case "add-contact":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: veilctl add-contact <name> [online <address>]")
			os.Exit(1)
		}
		cmdAddContact(ctx, db, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: veilctl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  contacts                          List contacts by recency")
	fmt.Fprintln(os.Stderr, "  history <contact-id>              Print a conversation")
	fmt.Fprintln(os.Stderr, "  add-contact <name> [online <addr>]  Add a contact")
}

func cmdContacts(ctx context.Context, db *store.DB, jsonOut bool) {
	snap, err := db.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	ledger.Rank(snap.Contacts, snap.Timelines)
	unread := ledger.UnreadCounts(snap.Timelines)

	if jsonOut {
		type row struct {
			ID           model.ContactID `json:"id"`
			Name         string          `json:"name"`
			Presence     model.Presence  `json:"presence"`
			Unread       int             `json:"unread"`
			Preview      string          `json:"preview,omitempty"`
			LastActivity string          `json:"last_activity,omitempty"`
		}
		rows := make([]row, 0, len(snap.Contacts))
		for _, c := range snap.Contacts {
			rows = append(rows, row{c.ID, c.Name, c.Presence, unread[c.ID], c.Preview, c.LastActivity})
		}
		outputJSON(rows)
		return
	}

	for _, c := range snap.Contacts {
		badge := ""
		if n := unread[c.ID]; n > 0 {
			badge = fmt.Sprintf(" (%d unread)", n)
		}
		fmt.Printf("%-4d %-20s %-8s %s%s\n", c.ID, c.Name, c.Presence, c.LastActivity, badge)
	}
}

func cmdHistory(ctx context.Context, db *store.DB, idArg string, jsonOut bool) {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid contact id %q\n", idArg)
		os.Exit(1)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	tl := snap.Timelines[model.ContactID(id)]

	if jsonOut {
		outputJSON(tl)
		return
	}

	for _, bucket := range tl {
		fmt.Printf("---- %s ----\n", bucket.Date)
		for _, m := range bucket.Messages {
			who := "them"
			if m.Sender == model.SenderUser {
				who = "you"
			}
			fmt.Printf("  [%s] %-4s %s\n", m.Time, who, m.Content)
			if m.RecognizedText != "" {
				fmt.Printf("             transcript: %s\n", m.RecognizedText)
			}
			if m.HiddenText != "" {
				fmt.Printf("             hidden: %s\n", m.HiddenText)
			}
		}
	}
}

func cmdAddContact(ctx context.Context, db *store.DB, args []string) {
	c := model.Contact{Name: args[0], Presence: model.PresenceOffline}
	if len(args) >= 3 && args[1] == "online" {
		c.Presence = model.PresenceOnline
		c.Address = args[2]
	}

	id, err := db.NextContactID(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	c.ID = id
	if err := db.UpsertContact(ctx, &c); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("added contact %d (%s)\n", c.ID, c.Name)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
