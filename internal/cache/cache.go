// Package cache provides typed caches over an arfs.Store. Concurrent
// fetches for the same key are collapsed into one.
package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"arfs-go/internal/arfs"
)

// Cache is a typed view of one store bucket.
type Cache[V any] struct {
	store  arfs.Store
	bucket string
	codec  Codec[V]
	logger arfs.Logger
	group  singleflight.Group
}

// New creates a cache over bucket. A nil logger discards warnings.
func New[V any](store arfs.Store, bucket string, codec Codec[V], logger arfs.Logger) *Cache[V] {
	if logger == nil {
		logger = arfs.NewNopLogger()
	}
	return &Cache[V]{store: store, bucket: bucket, codec: codec, logger: logger}
}

// Bucket returns the store bucket backing the cache.
func (c *Cache[V]) Bucket() string { return c.bucket }

// Get returns the value for key.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	data, ok, err := c.store.Get(ctx, c.bucket, key)
	if err != nil {
		return zero, false, fmt.Errorf("reading %s/%s: %w", c.bucket, key, err)
	}
	if !ok {
		return zero, false, nil
	}
	v, err := c.codec.Unmarshal(data)
	if err != nil {
		return zero, false, fmt.Errorf("decoding %s/%s: %w", c.bucket, key, err)
	}
	return v, true, nil
}

// Put stores v under key and returns it.
func (c *Cache[V]) Put(ctx context.Context, key string, v V) (V, error) {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("encoding %s/%s: %w", c.bucket, key, err)
	}
	if err := c.store.Put(ctx, c.bucket, key, data); err != nil {
		return v, fmt.Errorf("writing %s/%s: %w", c.bucket, key, err)
	}
	return v, nil
}

func (c *Cache[V]) Remove(ctx context.Context, key string) error {
	return c.store.Remove(ctx, c.bucket, key)
}

func (c *Cache[V]) Clear(ctx context.Context) error {
	return c.store.Clear(ctx, c.bucket)
}

func (c *Cache[V]) Size(ctx context.Context) (int, error) {
	return c.store.Size(ctx, c.bucket)
}

// GetOrFetch returns the cached value for key or calls fetch and caches its
// result. Callers asking for the same key while a fetch is in flight share
// that fetch and its result. The shared fetch ignores the cancellation of
// whichever caller started it; a caller whose ctx ends stops waiting and
// gets ctx.Err(). Store failures are logged and never fail the call; fetch
// errors are returned and nothing is cached.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "bucket", c.bucket, "key", key, "error", err)
	} else if ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		// A fetch that finished between our read and joining the group has
		// already stored its value.
		if v, ok, err := c.Get(fctx, key); err == nil && ok {
			return v, nil
		}
		v, err := fetch(fctx)
		if err != nil {
			return v, err
		}
		if _, err := c.Put(fctx, key, v); err != nil {
			c.logger.Warn("cache write failed", "bucket", c.bucket, "key", key, "error", err)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}
