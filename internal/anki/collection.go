package anki

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// CollectionFileName is the database entry name inside an .apkg archive.
const CollectionFileName = "collection.anki2"

// Writer assembles notes for one deck and model into Anki artifacts.
type Writer struct {
	Deck  DeckInfo
	Model Model
	// Clock feeds note/card ids and modification stamps. Defaults to
	// time.Now; tests inject a fixed clock for reproducible collections.
	Clock func() time.Time
}

func (w *Writer) now() time.Time {
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now()
}

// WriteCollection writes a fresh collection.anki2 database at path.
// An existing file at path is an error; the caller owns staging.
func (w *Writer) WriteCollection(ctx context.Context, path string, notes []Note) error {
	if err := w.Model.Validate(); err != nil {
		return err
	}
	for _, n := range notes {
		if err := w.Model.validateNote(n); err != nil {
			return err
		}
	}

	// DELETE journal mode keeps the database self-contained; WAL would
	// leave -wal/-shm sidecars that must not end up next to the file.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(DELETE)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, collectionSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	now := w.now()
	if err := w.insertCol(ctx, db, now); err != nil {
		return err
	}
	return w.insertNotes(ctx, db, notes, now)
}

func (w *Writer) insertCol(ctx context.Context, db *sql.DB, now time.Time) error {
	conf, err := marshalConf(w.Model.ID)
	if err != nil {
		return err
	}
	models, err := marshalModels(w.Model, w.Deck.ID, now.Unix())
	if err != nil {
		return err
	}
	decks, err := marshalDecks(w.Deck)
	if err != nil {
		return err
	}
	dconf, err := marshalDConf()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
	INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
	VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		collectionCreated, collectionModified, collectionModified, schemaVersion,
		conf, models, decks, dconf,
	)
	if err != nil {
		return fmt.Errorf("insert col row: %w", err)
	}
	return nil
}

func (w *Writer) insertNotes(ctx context.Context, db *sql.DB, notes []Note, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	noteStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
	VALUES (?, ?, ?, ?, -1, ?, ?, ?, ?, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare notes: %w", err)
	}
	defer func() { _ = noteStmt.Close() }()

	cardStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
	VALUES (?, ?, ?, ?, ?, -1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare cards: %w", err)
	}
	defer func() { _ = cardStmt.Close() }()

	ids := newIDAllocator(now)
	mod := now.Unix()
	reqs := w.Model.templateRequirements()

	for _, n := range notes {
		noteID := ids.take()
		sortField := n.Fields[w.Model.SortField]
		_, err := noteStmt.ExecContext(ctx,
			noteID, n.GUID, w.Model.ID, mod, formatTags(n.Tags),
			strings.Join(n.Fields, "\x1f"), sortField, fieldChecksum(sortField),
		)
		if err != nil {
			return fmt.Errorf("insert note %q: %w", n.GUID, err)
		}

		for _, ord := range cardOrds(reqs, n.Fields) {
			if _, err := cardStmt.ExecContext(ctx, ids.take(), noteID, w.Deck.ID, ord, mod); err != nil {
				return fmt.Errorf("insert card %d of note %q: %w", ord, n.GUID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// cardOrds selects the templates that produce a card for the given
// fields: "all" needs every listed field filled, "any" at least one.
func cardOrds(reqs []templateReq, fields []string) []int {
	var ords []int
	for _, r := range reqs {
		switch r.mode {
		case "all":
			ok := len(r.fields) > 0
			for _, f := range r.fields {
				if strings.TrimSpace(fields[f]) == "" {
					ok = false
					break
				}
			}
			if ok {
				ords = append(ords, r.ord)
			}
		default:
			for _, f := range r.fields {
				if strings.TrimSpace(fields[f]) != "" {
					ords = append(ords, r.ord)
					break
				}
			}
		}
	}
	return ords
}

// formatTags renders the note tag column the way Anki stores it: empty,
// or space-separated with a leading and trailing space.
func formatTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}
