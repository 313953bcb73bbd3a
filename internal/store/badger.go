package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"arfs-go/internal/arfs"
)

// BadgerStore keeps entries in a Badger database under "<bucket>/<key>".
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a Badger database in dir. An empty dir opens an
// in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, bucket, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bucketKey(bucket, key)))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read entry: %w", err)
	}
	return value, true, nil
}

func (s *BadgerStore) Put(_ context.Context, bucket, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(bucketKey(bucket, key)), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

func (s *BadgerStore) Remove(_ context.Context, bucket, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(bucketKey(bucket, key)))
	})
	if err != nil {
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	return nil
}

func (s *BadgerStore) Clear(_ context.Context, bucket string) error {
	if err := s.db.DropPrefix([]byte(bucket + "/")); err != nil {
		return fmt.Errorf("failed to clear bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *BadgerStore) Size(_ context.Context, bucket string) (int, error) {
	prefix := []byte(bucket + "/")
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count bucket %s: %w", bucket, err)
	}
	return n, nil
}

// ValidateSetup reports whether the database has been closed.
func (s *BadgerStore) ValidateSetup(context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("badger database is closed")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Compile-time check that BadgerStore implements arfs.Store interface
var _ arfs.Store = (*BadgerStore)(nil)
