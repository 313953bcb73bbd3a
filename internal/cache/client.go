package cache

import (
	"context"
	"errors"

	"arfs-go/internal/arfs"
)

// Store buckets used by the client caches.
const (
	BucketOwners        = "owners"
	BucketDriveIDs      = "drive-ids"
	BucketPublicDrives  = "public-drives"
	BucketPublicFolders = "public-folders"
	BucketPublicFiles   = "public-files"
	BucketMetadata      = "metadata"
)

// Buckets lists every bucket written by the client.
var Buckets = []string{
	BucketOwners,
	BucketDriveIDs,
	BucketPublicDrives,
	BucketPublicFolders,
	BucketPublicFiles,
	BucketMetadata,
}

// ClientCache groups the entity caches used by the client façade.
type ClientCache struct {
	Owners        *Cache[arfs.Address]
	DriveIDs      *Cache[arfs.EntityID]
	PublicDrives  *Cache[*arfs.Drive]
	PublicFolders *Cache[*arfs.FileOrFolder]
	PublicFiles   *Cache[*arfs.FileOrFolder]
}

// NewClientCache creates the entity caches over store.
func NewClientCache(store arfs.Store, logger arfs.Logger) *ClientCache {
	return &ClientCache{
		Owners:        New(store, BucketOwners, CBOR[arfs.Address]{}, logger),
		DriveIDs:      New(store, BucketDriveIDs, CBOR[arfs.EntityID]{}, logger),
		PublicDrives:  New(store, BucketPublicDrives, CBOR[*arfs.Drive]{}, logger),
		PublicFolders: New(store, BucketPublicFolders, CBOR[*arfs.FileOrFolder]{}, logger),
		PublicFiles:   New(store, BucketPublicFiles, CBOR[*arfs.FileOrFolder]{}, logger),
	}
}

// NewPayloadCache creates the raw metadata payload cache keyed by
// transaction id.
func NewPayloadCache(store arfs.Store, logger arfs.Logger) *Cache[[]byte] {
	return New(store, BucketMetadata, Raw{}, logger)
}

// ClearAll empties every client bucket of store.
func ClearAll(ctx context.Context, store arfs.Store) error {
	var errs []error
	for _, b := range Buckets {
		if err := store.Clear(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sizes returns the number of entries per client bucket.
func Sizes(ctx context.Context, store arfs.Store) (map[string]int, error) {
	sizes := make(map[string]int, len(Buckets))
	for _, b := range Buckets {
		n, err := store.Size(ctx, b)
		if err != nil {
			return nil, err
		}
		sizes[b] = n
	}
	return sizes, nil
}
