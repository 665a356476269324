package anki

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testClockTime() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func testWriter() *Writer {
	return &Writer{
		Deck:  DeckInfo{ID: 2059400110, Name: "Chinese Dictionary"},
		Model: testModel(),
		Clock: testClockTime,
	}
}

func testNotes() []Note {
	return []Note{
		{GUID: "guid-1", Fields: []string{"分钟", "front one", "back one"}},
		{GUID: "guid-2", Fields: []string{"妈妈", "front two", "back two"}},
	}
}

func openCollection(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWriteCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki2")
	w := testWriter()

	if err := w.WriteCollection(context.Background(), path, testNotes()); err != nil {
		t.Fatalf("WriteCollection: %v", err)
	}

	db := openCollection(t, path)

	var ver, crt int64
	var modelsBlob string
	err := db.QueryRow(`SELECT ver, crt, models FROM col WHERE id = 1`).Scan(&ver, &crt, &modelsBlob)
	if err != nil {
		t.Fatalf("read col row: %v", err)
	}
	if ver != 11 {
		t.Errorf("ver = %d, want 11", ver)
	}
	if crt != collectionCreated {
		t.Errorf("crt = %d, want %d", crt, collectionCreated)
	}

	var models map[string]struct {
		Name  string  `json:"name"`
		SortF int     `json:"sortf"`
		Req   [][]any `json:"req"`
		CSS   string  `json:"css"`
	}
	if err := json.Unmarshal([]byte(modelsBlob), &models); err != nil {
		t.Fatalf("unmarshal models: %v", err)
	}
	m, ok := models["1607392319"]
	if !ok {
		t.Fatalf("model 1607392319 missing, got keys %v", models)
	}
	if m.Name != "Test Model" || m.SortF != 0 {
		t.Errorf("model = %+v", m)
	}
	if len(m.Req) != 2 {
		t.Errorf("req = %v, want 2 entries", m.Req)
	}

	var noteCount, cardCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&noteCount); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&cardCount); err != nil {
		t.Fatal(err)
	}
	if noteCount != 2 {
		t.Errorf("notes = %d, want 2", noteCount)
	}
	if cardCount != 4 {
		t.Errorf("cards = %d, want 4 (two templates per note)", cardCount)
	}
}

func TestWriteCollectionNoteRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki2")
	w := testWriter()

	if err := w.WriteCollection(context.Background(), path, testNotes()); err != nil {
		t.Fatalf("WriteCollection: %v", err)
	}

	db := openCollection(t, path)

	var id, csum int64
	var guid, flds, sfld, tags string
	err := db.QueryRow(`SELECT id, guid, flds, sfld, csum, tags FROM notes ORDER BY id LIMIT 1`).
		Scan(&id, &guid, &flds, &sfld, &csum, &tags)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}

	if want := testClockTime().UnixMilli(); id != want {
		t.Errorf("first note id = %d, want %d", id, want)
	}
	if guid != "guid-1" {
		t.Errorf("guid = %q", guid)
	}
	if want := strings.Join([]string{"分钟", "front one", "back one"}, "\x1f"); flds != want {
		t.Errorf("flds = %q, want %q", flds, want)
	}
	if sfld != "分钟" {
		t.Errorf("sfld = %q, want 分钟", sfld)
	}
	if csum != 683614843 {
		t.Errorf("csum = %d, want 683614843", csum)
	}
	if tags != "" {
		t.Errorf("tags = %q, want empty", tags)
	}
}

func TestWriteCollectionCardRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki2")
	w := testWriter()

	if err := w.WriteCollection(context.Background(), path, testNotes()[:1]); err != nil {
		t.Fatalf("WriteCollection: %v", err)
	}

	db := openCollection(t, path)

	rows, err := db.Query(`SELECT nid, did, ord, type, queue, due FROM cards ORDER BY ord`)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rows.Close() }()

	noteID := testClockTime().UnixMilli()
	var ords []int
	for rows.Next() {
		var nid, did int64
		var ord, typ, queue, due int
		if err := rows.Scan(&nid, &did, &ord, &typ, &queue, &due); err != nil {
			t.Fatal(err)
		}
		if nid != noteID {
			t.Errorf("nid = %d, want %d", nid, noteID)
		}
		if did != 2059400110 {
			t.Errorf("did = %d, want 2059400110", did)
		}
		if typ != 0 || queue != 0 || due != 0 {
			t.Errorf("scheduling state = type %d queue %d due %d, want zeros", typ, queue, due)
		}
		ords = append(ords, ord)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if len(ords) != 2 || ords[0] != 0 || ords[1] != 1 {
		t.Errorf("ords = %v, want [0 1]", ords)
	}
}

func TestWriteCollectionSkipsCardForEmptyRequiredField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki2")
	w := testWriter()

	notes := []Note{{GUID: "g", Fields: []string{"word", "front", ""}}}
	if err := w.WriteCollection(context.Background(), path, notes); err != nil {
		t.Fatalf("WriteCollection: %v", err)
	}

	db := openCollection(t, path)
	var cardCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&cardCount); err != nil {
		t.Fatal(err)
	}
	if cardCount != 1 {
		t.Errorf("cards = %d, want 1 (reverse template requires Back)", cardCount)
	}
}

func TestWriteCollectionRejectsFieldCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki2")
	w := testWriter()

	notes := []Note{{GUID: "short", Fields: []string{"only one"}}}
	if err := w.WriteCollection(context.Background(), path, notes); err == nil {
		t.Error("expected error for field count mismatch")
	}
}

func TestWritePackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.apkg")
	w := testWriter()

	media := []MediaFile{
		{Name: "7eca689f0d3389d9dea66ae112e5cfd7.mp3", Data: []byte("audio-a")},
		{Name: "3a17b7352e715d90e4d3ca3b77a29ab0.mp3", Data: []byte("audio-b")},
	}
	if err := w.WritePackage(context.Background(), path, testNotes(), media); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	defer func() { _ = zr.Close() }()

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		entries[f.Name] = data
	}

	if _, ok := entries[CollectionFileName]; !ok {
		t.Fatal("collection.anki2 missing from archive")
	}

	var manifest map[string]string
	if err := json.Unmarshal(entries["media"], &manifest); err != nil {
		t.Fatalf("unmarshal media manifest: %v", err)
	}
	if manifest["0"] != media[0].Name || manifest["1"] != media[1].Name {
		t.Errorf("manifest = %v", manifest)
	}
	if string(entries["0"]) != "audio-a" || string(entries["1"]) != "audio-b" {
		t.Error("media entry contents mismatch")
	}

	// The embedded collection must be a readable database.
	dbPath := filepath.Join(t.TempDir(), "extracted.anki2")
	if err := os.WriteFile(dbPath, entries[CollectionFileName], 0o600); err != nil {
		t.Fatal(err)
	}
	db := openCollection(t, dbPath)
	var noteCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&noteCount); err != nil {
		t.Fatal(err)
	}
	if noteCount != 2 {
		t.Errorf("embedded notes = %d, want 2", noteCount)
	}
}

func TestWritePackageEmptyMediaManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.apkg")
	w := testWriter()

	if err := w.WritePackage(context.Background(), path, testNotes(), nil); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.Name != "media" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "{}" {
			t.Errorf("media manifest = %s, want {}", data)
		}
		return
	}
	t.Error("media manifest missing")
}

func TestWritePackageReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.apkg")
	w := testWriter()

	if err := w.WritePackage(context.Background(), path, testNotes(), nil); err != nil {
		t.Fatalf("first write: %v", err)
	}
	// Shift the clock so replacement ids differ, then overwrite.
	w.Clock = func() time.Time { return testClockTime().Add(time.Hour) }
	if err := w.WritePackage(context.Background(), path, testNotes()[:1], nil); err != nil {
		t.Fatalf("second write: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("replaced package unreadable: %v", err)
	}
	_ = zr.Close()
}

func ExampleWriter_WritePackage() {
	w := &Writer{
		Deck: DeckInfo{ID: 2059400110, Name: "Chinese Dictionary"},
		Model: Model{
			ID:     1607392319,
			Name:   "Minimal",
			Fields: []string{"Front", "Back"},
			Templates: []Template{
				{Name: "Card 1", Qfmt: "{{Front}}", Afmt: "{{Back}}"},
			},
		},
	}
	notes := []Note{{GUID: "example", Fields: []string{"你好", "привет"}}}

	dir, _ := os.MkdirTemp("", "apkg-example-*")
	defer os.RemoveAll(dir)
	err := w.WritePackage(context.Background(), filepath.Join(dir, "deck.apkg"), notes, nil)
	fmt.Println(err)
	// Output: <nil>
}
