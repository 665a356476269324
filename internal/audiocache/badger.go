package audiocache

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// badgerStore keeps clips in an embedded Badger database. Suited to
// large vocabularies where one file per clip starts to stress the
// filesystem.
type badgerStore struct {
	db *badger.DB
}

// NewBadger opens a Badger-backed store rooted at dir.
func NewBadger(dir string) (Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Get(_ context.Context, word string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(word)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return data, nil
}

func (s *badgerStore) Put(_ context.Context, word string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key(word)), data)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

func (s *badgerStore) Len(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger scan: %w", err)
	}
	return n, nil
}

func (s *badgerStore) Close() error { return s.db.Close() }
