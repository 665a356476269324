package audiocache

import (
	"context"
	"sync"
)

// memoryStore keeps clips in process memory. Tests use it to exercise
// the fetch path without touching disk.
type memoryStore struct {
	mu    sync.RWMutex
	clips map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store {
	return &memoryStore{clips: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, word string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.clips[Key(word)]
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), data...), nil
}

func (s *memoryStore) Put(_ context.Context, word string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[Key(word)] = append([]byte(nil), data...)
	return nil
}

func (s *memoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clips), nil
}

func (s *memoryStore) Close() error { return nil }
