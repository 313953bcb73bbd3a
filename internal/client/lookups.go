package client

import (
	"context"
	"fmt"

	"arfs-go/internal/arfs"
	"arfs-go/internal/cache"
)

// OwnerForDriveID returns the wallet that created driveID, taken from the
// earliest drive transaction.
func (c *Client) OwnerForDriveID(ctx context.Context, driveID arfs.EntityID) (arfs.Address, error) {
	return c.caches.Owners.GetOrFetch(ctx, string(driveID), func(ctx context.Context) (arfs.Address, error) {
		page, err := c.gateway.Query(ctx, arfs.Query{
			Tags: []arfs.TagFilter{
				{Name: arfs.TagDriveID, Values: []string{string(driveID)}},
				{Name: arfs.TagEntityType, Values: []string{string(arfs.EntityTypeDrive)}},
			},
			Sort: arfs.SortHeightAsc,
		})
		if err != nil {
			return "", fmt.Errorf("querying owner of drive %s: %w", driveID, err)
		}
		if len(page.Edges) == 0 {
			return "", notFoundf("Could not find a transaction with %q: %s", arfs.TagDriveID, driveID)
		}
		return page.Edges[0].Node.Owner.Address, nil
	})
}

// DriveIDForEntityID returns the drive of the folder or file id. idTag is
// arfs.TagFolderID or arfs.TagFileID.
func (c *Client) DriveIDForEntityID(ctx context.Context, id arfs.EntityID, idTag string) (arfs.EntityID, error) {
	if idTag != arfs.TagFolderID && idTag != arfs.TagFileID {
		return "", fmt.Errorf("%w: id tag %q", arfs.ErrInvalidValue, idTag)
	}
	return c.caches.DriveIDs.GetOrFetch(ctx, string(id), func(ctx context.Context) (arfs.EntityID, error) {
		page, err := c.gateway.Query(ctx, arfs.Query{
			Tags: []arfs.TagFilter{{Name: idTag, Values: []string{string(id)}}},
		})
		if err != nil {
			return "", fmt.Errorf("querying drive of %s %s: %w", idTag, id, err)
		}
		if len(page.Edges) == 0 {
			return "", notFoundf("Entity with %s %s not found!", idTag, id)
		}
		raw, ok := arfs.TagValue(page.Edges[0].Node.Tags, arfs.TagDriveID)
		if !ok {
			return "", notFoundf("No Drive-Id tag found for meta data transaction of %s: %s", idTag, id)
		}
		driveID, err := arfs.ParseEntityID(raw)
		if err != nil {
			return "", fmt.Errorf("drive of %s %s: %w", idTag, id, err)
		}
		return driveID, nil
	})
}

func (c *Client) DriveIDForFolderID(ctx context.Context, folderID arfs.EntityID) (arfs.EntityID, error) {
	return c.DriveIDForEntityID(ctx, folderID, arfs.TagFolderID)
}

func (c *Client) DriveIDForFileID(ctx context.Context, fileID arfs.EntityID) (arfs.EntityID, error) {
	return c.DriveIDForEntityID(ctx, fileID, arfs.TagFileID)
}

// DriveOwnerForFolderID returns the owner of the drive holding folderID.
func (c *Client) DriveOwnerForFolderID(ctx context.Context, folderID arfs.EntityID) (arfs.Address, error) {
	driveID, err := c.DriveIDForFolderID(ctx, folderID)
	if err != nil {
		return "", err
	}
	return c.OwnerForDriveID(ctx, driveID)
}

// DriveOwnerForFileID returns the owner of the drive holding fileID.
func (c *Client) DriveOwnerForFileID(ctx context.Context, fileID arfs.EntityID) (arfs.Address, error) {
	driveID, err := c.DriveIDForFileID(ctx, fileID)
	if err != nil {
		return "", err
	}
	return c.OwnerForDriveID(ctx, driveID)
}

// PublicDrive returns the latest revision of a public drive. An empty owner
// is looked up from the drive id.
func (c *Client) PublicDrive(ctx context.Context, driveID arfs.EntityID, owner arfs.Address) (*arfs.Drive, error) {
	owner, err := c.resolveOwner(ctx, owner, func(ctx context.Context) (arfs.Address, error) {
		return c.OwnerForDriveID(ctx, driveID)
	})
	if err != nil {
		return nil, err
	}
	return c.caches.PublicDrives.GetOrFetch(ctx, cache.DriveKey(driveID, owner), func(ctx context.Context) (*arfs.Drive, error) {
		return c.builder.PublicDrive(ctx, driveID, owner)
	})
}

// PublicFolder returns the latest revision of a public folder. An empty
// owner is looked up through the folder's drive.
func (c *Client) PublicFolder(ctx context.Context, folderID arfs.EntityID, owner arfs.Address) (*arfs.FileOrFolder, error) {
	owner, err := c.resolveOwner(ctx, owner, func(ctx context.Context) (arfs.Address, error) {
		return c.DriveOwnerForFolderID(ctx, folderID)
	})
	if err != nil {
		return nil, err
	}
	return c.caches.PublicFolders.GetOrFetch(ctx, cache.FolderKey(folderID, owner), func(ctx context.Context) (*arfs.FileOrFolder, error) {
		return c.builder.PublicFolder(ctx, folderID, owner)
	})
}

// PublicFile returns the latest revision of a public file. An empty owner
// is looked up through the file's drive.
func (c *Client) PublicFile(ctx context.Context, fileID arfs.EntityID, owner arfs.Address) (*arfs.FileOrFolder, error) {
	owner, err := c.resolveOwner(ctx, owner, func(ctx context.Context) (arfs.Address, error) {
		return c.DriveOwnerForFileID(ctx, fileID)
	})
	if err != nil {
		return nil, err
	}
	return c.caches.PublicFiles.GetOrFetch(ctx, cache.FileKey(fileID, owner), func(ctx context.Context) (*arfs.FileOrFolder, error) {
		return c.builder.PublicFile(ctx, fileID, owner)
	})
}

func (c *Client) resolveOwner(ctx context.Context, owner arfs.Address, lookup func(context.Context) (arfs.Address, error)) (arfs.Address, error) {
	if owner != "" {
		return owner, nil
	}
	resolved, err := lookup(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving owner: %w", err)
	}
	return resolved, nil
}
