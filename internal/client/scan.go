package client

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"arfs-go/internal/arfs"
	"arfs-go/internal/builder"
	"arfs-go/internal/cache"
	"arfs-go/internal/keyring"
)

// scan pages through q and builds every edge. Pages are fetched one after
// another; edges of a page are built concurrently and kept in edge order.
// The first failure aborts the scan.
func scan[T any](ctx context.Context, c *Client, q arfs.Query, build func(context.Context, *arfs.Node) (T, error)) ([]T, error) {
	q.Paginated = true
	q.Cursor = ""

	var out []T
	for {
		page, err := c.gateway.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(page.Edges) == 0 {
			break
		}

		items := make([]T, len(page.Edges))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for i := range page.Edges {
			node := &page.Edges[i].Node
			g.Go(func() error {
				v, err := build(gctx, node)
				if err != nil {
					return err
				}
				items[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		out = append(out, items...)

		if !page.PageInfo.HasNextPage {
			break
		}
		q.Cursor = page.Edges[len(page.Edges)-1].Cursor
	}
	return out, nil
}

func tagFilter(name string, values ...string) arfs.TagFilter {
	return arfs.TagFilter{Name: name, Values: values}
}

// AllDrivesForAddress returns every drive owned by address. Private drives
// are decrypted with whatever keys can open them; the rest come back
// keyless with ENCRYPTED names. Public drives are cached.
func (c *Client) AllDrivesForAddress(ctx context.Context, address arfs.Address, keys *keyring.Keyring, latestOnly bool) ([]*arfs.Drive, error) {
	var resolver builder.KeyResolver
	if keys != nil {
		resolver = keys
	}
	drives, err := scan(ctx, c, arfs.Query{
		Tags:  []arfs.TagFilter{tagFilter(arfs.TagEntityType, string(arfs.EntityTypeDrive))},
		Owner: address,
	}, func(ctx context.Context, node *arfs.Node) (*arfs.Drive, error) {
		return c.builder.SafeDriveFromNode(ctx, node, resolver)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning drives of %s: %w", address, err)
	}

	latest := arfs.LatestDriveRevisions(drives)
	for _, d := range latest {
		if d.IsPrivate() {
			continue
		}
		if _, err := c.caches.PublicDrives.Put(ctx, cache.DriveKey(d.DriveID, address), d); err != nil {
			c.logger.Warn("caching drive failed", "driveId", d.DriveID, "error", err)
		}
	}
	if latestOnly {
		return latest, nil
	}
	return drives, nil
}

func folderScanQuery(driveID arfs.EntityID, owner arfs.Address) arfs.Query {
	return arfs.Query{
		Tags: []arfs.TagFilter{
			tagFilter(arfs.TagDriveID, string(driveID)),
			tagFilter(arfs.TagEntityType, string(arfs.EntityTypeFolder)),
		},
		Owner: owner,
	}
}

func fileScanQuery(folderIDs []arfs.EntityID, owner arfs.Address) arfs.Query {
	ids := make([]string, len(folderIDs))
	for i, id := range folderIDs {
		ids[i] = string(id)
	}
	return arfs.Query{
		Tags: []arfs.TagFilter{
			tagFilter(arfs.TagParentFolderID, ids...),
			tagFilter(arfs.TagEntityType, string(arfs.EntityTypeFile)),
		},
		Owner: owner,
	}
}

// AllFoldersOfPublicDrive returns the folders of a public drive in scan
// order. The latest revision of each is cached.
func (c *Client) AllFoldersOfPublicDrive(ctx context.Context, driveID arfs.EntityID, owner arfs.Address, latestOnly bool) ([]*arfs.FileOrFolder, error) {
	folders, err := scan(ctx, c, folderScanQuery(driveID, owner), c.builder.PublicFolderFromNode)
	if err != nil {
		return nil, fmt.Errorf("scanning folders of drive %s: %w", driveID, err)
	}
	latest := c.cacheLatest(ctx, c.caches.PublicFolders, cache.FolderKey, folders, owner)
	if latestOnly {
		return latest, nil
	}
	return folders, nil
}

// AllFoldersOfPrivateDrive returns the folders of a private drive decrypted
// with driveKey. The results keep their keys.
func (c *Client) AllFoldersOfPrivateDrive(ctx context.Context, driveID arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey, latestOnly bool) ([]*arfs.FileOrFolder, error) {
	folders, err := scan(ctx, c, folderScanQuery(driveID, owner), func(ctx context.Context, node *arfs.Node) (*arfs.FileOrFolder, error) {
		return c.builder.PrivateFolderFromNode(ctx, node, driveKey)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning folders of drive %s: %w", driveID, err)
	}
	if latestOnly {
		return arfs.LatestRevisions(folders), nil
	}
	return folders, nil
}

// PublicFilesWithParentFolderIDs returns the public files whose parent is
// any of folderIDs. The latest revision of each is cached.
func (c *Client) PublicFilesWithParentFolderIDs(ctx context.Context, folderIDs []arfs.EntityID, owner arfs.Address, latestOnly bool) ([]*arfs.FileOrFolder, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	files, err := scan(ctx, c, fileScanQuery(folderIDs, owner), c.builder.PublicFileFromNode)
	if err != nil {
		return nil, fmt.Errorf("scanning files: %w", err)
	}
	latest := c.cacheLatest(ctx, c.caches.PublicFiles, cache.FileKey, files, owner)
	if latestOnly {
		return latest, nil
	}
	return files, nil
}

// PrivateFilesWithParentFolderIDs returns the private files whose parent is
// any of folderIDs, decrypted with keys derived from driveKey.
func (c *Client) PrivateFilesWithParentFolderIDs(ctx context.Context, folderIDs []arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey, latestOnly bool) ([]*arfs.FileOrFolder, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	files, err := scan(ctx, c, fileScanQuery(folderIDs, owner), func(ctx context.Context, node *arfs.Node) (*arfs.FileOrFolder, error) {
		return c.builder.PrivateFileFromNode(ctx, node, driveKey)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning files: %w", err)
	}
	if latestOnly {
		return arfs.LatestRevisions(files), nil
	}
	return files, nil
}

// cacheLatest stores the latest revision of each entity and returns them.
// Cache failures are logged.
func (c *Client) cacheLatest(ctx context.Context, cc *cache.Cache[*arfs.FileOrFolder], key func(arfs.EntityID, arfs.Address) string, entities []*arfs.FileOrFolder, owner arfs.Address) []*arfs.FileOrFolder {
	latest := arfs.LatestRevisions(entities)
	if owner == "" {
		return latest
	}
	for _, e := range latest {
		if _, err := cc.Put(ctx, key(e.EntityID, owner), e); err != nil {
			c.logger.Warn("caching entity failed", "bucket", cc.Bucket(), "entityId", e.EntityID, "error", err)
		}
	}
	return latest
}
