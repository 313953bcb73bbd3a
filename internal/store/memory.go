// Package store implements arfs.Store backends for the client caches.
package store

import (
	"context"
	"slices"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"arfs-go/internal/arfs"
)

// MemoryStore keeps entries in process memory. Entries never expire.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, 0)}
}

func bucketKey(bucket, key string) string {
	return bucket + "/" + key
}

func (m *MemoryStore) Get(_ context.Context, bucket, key string) ([]byte, bool, error) {
	v, ok := m.items.Get(bucketKey(bucket, key))
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v.([]byte)), true, nil
}

func (m *MemoryStore) Put(_ context.Context, bucket, key string, value []byte) error {
	m.items.Set(bucketKey(bucket, key), slices.Clone(value), gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, bucket, key string) error {
	m.items.Delete(bucketKey(bucket, key))
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, bucket string) error {
	prefix := bucket + "/"
	for k := range m.items.Items() {
		if strings.HasPrefix(k, prefix) {
			m.items.Delete(k)
		}
	}
	return nil
}

func (m *MemoryStore) Size(_ context.Context, bucket string) (int, error) {
	prefix := bucket + "/"
	n := 0
	for k := range m.items.Items() {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n, nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	m.items.Flush()
	return nil
}

// Compile-time check that MemoryStore implements arfs.Store interface
var _ arfs.Store = (*MemoryStore)(nil)
