package arfs

import "context"

// Store is a bucketed key/value store backing the client caches. Values are
// opaque bytes; typed access lives in the cache package.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, bucket, key string) (value []byte, ok bool, err error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, bucket, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, bucket, key string) error

	// Clear deletes every key in bucket.
	Clear(ctx context.Context, bucket string) error

	// Size returns the number of keys in bucket.
	Size(ctx context.Context, bucket string) (int, error)

	// ValidateSetup verifies that the store is accessible.
	ValidateSetup(ctx context.Context) error

	Close() error
}
