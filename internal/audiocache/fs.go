package audiocache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// fsStore keeps one <key>.mp3 file per word in a single directory.
type fsStore struct {
	dir string
}

// NewFS opens a directory-backed store, creating the directory if it
// does not exist yet.
func NewFS(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("audio cache dir: %w", err)
	}
	return &fsStore{dir: dir}, nil
}

func (s *fsStore) path(word string) string {
	return filepath.Join(s.dir, FileName(word))
}

func (s *fsStore) Get(_ context.Context, word string) ([]byte, error) {
	data, err := os.ReadFile(s.path(word)) // #nosec G304 -- path is the cache dir plus a hex digest
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("read clip: %w", err)
	}
	return data, nil
}

func (s *fsStore) Put(_ context.Context, word string, data []byte) error {
	// Atomic replace; a torn write must not become a future cache hit.
	if err := renameio.WriteFile(s.path(word), data, 0o644); err != nil {
		return fmt.Errorf("write clip: %w", err)
	}
	return nil
}

func (s *fsStore) Len(_ context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scan audio cache: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".mp3") {
			n++
		}
	}
	return n, nil
}

func (s *fsStore) Close() error { return nil }
