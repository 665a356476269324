package audiocache

import (
	"context"
	"crypto/md5" // #nosec G501 -- keys name cache entries and media files, not a security boundary
	"encoding/hex"
	"errors"

	"golang.org/x/text/unicode/norm"
)

// ErrMiss is returned by Get when no clip is cached for the word.
var ErrMiss = errors.New("audio cache miss")

// Store persists pronunciation clips keyed by word text.
//
// Implementations must tolerate concurrent use; the TTS worker pool
// calls Get and Put from several goroutines.
type Store interface {
	// Get returns the cached clip for word. It returns ErrMiss when the
	// word has never been stored (or, on the redis backend, has expired).
	Get(ctx context.Context, word string) ([]byte, error)

	// Put stores the clip for word, replacing any previous one.
	Put(ctx context.Context, word string, data []byte) error

	// Len reports the number of cached clips.
	Len(ctx context.Context) (int, error)

	Close() error
}

// Key returns the cache key for a word: the lowercase hex MD5 of its
// NFC-normalised text. The key is stable across runs, so a deck rebuilt
// months later references the same media names and Anki deduplicates
// the files on import.
func Key(word string) string {
	sum := md5.Sum([]byte(norm.NFC.String(word))) // #nosec G401 -- see above
	return hex.EncodeToString(sum[:])
}

// FileName returns the media file name under which a word's clip is
// packaged into a deck.
func FileName(word string) string {
	return Key(word) + ".mp3"
}
