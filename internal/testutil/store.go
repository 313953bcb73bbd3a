package testutil

import (
	"testing"

	"arfs-go/internal/arfs"
	"arfs-go/internal/store"
)

// NewTestStore creates a new in-memory store for testing.
func NewTestStore() arfs.Store {
	return store.NewMemoryStore()
}

// NewTestSQLiteStore creates an in-memory SQLite store with migrations
// applied. The store is closed when the test completes.
func NewTestSQLiteStore(t *testing.T) arfs.Store {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}
