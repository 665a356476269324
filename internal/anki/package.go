// SPDX-License-Identifier: MIT

package anki

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/renameio/v2"
)

// MediaFile is one media entry packaged with a deck. Inside the archive
// entries are numbered; Name is what Anki restores the file as.
type MediaFile struct {
	Name string
	Data []byte
}

// WritePackage writes the complete .apkg at path. The archive appears
// atomically: readers either see the previous package or the new one,
// never a partial zip.
func (w *Writer) WritePackage(ctx context.Context, path string, notes []Note, media []MediaFile) error {
	stageDir, err := os.MkdirTemp("", "zi2anki-apkg-*")
	if err != nil {
		return fmt.Errorf("stage dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(stageDir) }()

	dbPath := filepath.Join(stageDir, CollectionFileName)
	if err := w.WriteCollection(ctx, dbPath, notes); err != nil {
		return err
	}
	dbBytes, err := os.ReadFile(dbPath)
	if err != nil {
		return fmt.Errorf("read staged collection: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending package file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	zw := zip.NewWriter(pendingFile)
	if err := addZipEntry(zw, CollectionFileName, dbBytes); err != nil {
		return err
	}

	manifest := make(map[string]string, len(media))
	for i, mf := range media {
		entry := strconv.Itoa(i)
		manifest[entry] = mf.Name
		if err := addZipEntry(zw, entry, mf.Data); err != nil {
			return err
		}
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal media manifest: %w", err)
	}
	if err := addZipEntry(zw, "media", manifestBytes); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace package: %w", err)
	}
	return nil
}

func addZipEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}
