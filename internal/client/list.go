package client

import (
	"context"
	"fmt"
	"slices"

	"arfs-go/internal/arfs"
	"arfs-go/internal/hierarchy"
)

// ListParams selects a folder tree to list. MaxDepth 0 lists the folder's
// own contents; hierarchy.Unlimited lists everything below it.
type ListParams struct {
	FolderID    arfs.EntityID
	MaxDepth    int
	IncludeRoot bool
	Owner       arfs.Address
}

// listSource fetches the entities of one privacy level.
type listSource struct {
	folder  func(ctx context.Context, id arfs.EntityID, owner arfs.Address) (*arfs.FileOrFolder, error)
	folders func(ctx context.Context, driveID arfs.EntityID, owner arfs.Address) ([]*arfs.FileOrFolder, error)
	files   func(ctx context.Context, parentID arfs.EntityID, owner arfs.Address) ([]*arfs.FileOrFolder, error)
}

// ListPublicFolder lists the folders and files below a public folder, each
// with its paths. Folders come first in scan order, then the files of each
// searched folder.
func (c *Client) ListPublicFolder(ctx context.Context, p ListParams) ([]*arfs.WithPaths, error) {
	return c.list(ctx, p, listSource{
		folder: c.PublicFolder,
		folders: func(ctx context.Context, driveID arfs.EntityID, owner arfs.Address) ([]*arfs.FileOrFolder, error) {
			return c.AllFoldersOfPublicDrive(ctx, driveID, owner, true)
		},
		files: func(ctx context.Context, parentID arfs.EntityID, owner arfs.Address) ([]*arfs.FileOrFolder, error) {
			return c.PublicFilesWithParentFolderIDs(ctx, []arfs.EntityID{parentID}, owner, true)
		},
	})
}

// ListPrivateFolder lists a private folder tree decrypted with driveKey.
// Keys are stripped from the entries unless withKeys is set.
func (c *Client) ListPrivateFolder(ctx context.Context, p ListParams, driveKey arfs.EntityKey, withKeys bool) ([]*arfs.WithPaths, error) {
	entries, err := c.list(ctx, p, listSource{
		folder: func(ctx context.Context, id arfs.EntityID, owner arfs.Address) (*arfs.FileOrFolder, error) {
			return c.PrivateFolder(ctx, id, owner, driveKey, true)
		},
		folders: func(ctx context.Context, driveID arfs.EntityID, owner arfs.Address) ([]*arfs.FileOrFolder, error) {
			return c.AllFoldersOfPrivateDrive(ctx, driveID, owner, driveKey, true)
		},
		files: func(ctx context.Context, parentID arfs.EntityID, owner arfs.Address) ([]*arfs.FileOrFolder, error) {
			return c.PrivateFilesWithParentFolderIDs(ctx, []arfs.EntityID{parentID}, owner, driveKey, true)
		},
	})
	if err != nil {
		return nil, err
	}
	if !withKeys {
		for _, e := range entries {
			e.FileOrFolder = e.FileOrFolder.WithoutKeys()
		}
	}
	return entries, nil
}

func (c *Client) list(ctx context.Context, p ListParams, src listSource) ([]*arfs.WithPaths, error) {
	if p.MaxDepth < 0 {
		return nil, ErrInvalidMaxDepth
	}
	owner, err := c.resolveOwner(ctx, p.Owner, func(ctx context.Context) (arfs.Address, error) {
		return c.DriveOwnerForFolderID(ctx, p.FolderID)
	})
	if err != nil {
		return nil, err
	}

	folder, err := src.folder(ctx, p.FolderID, owner)
	if err != nil {
		return nil, err
	}
	all, err := src.folders(ctx, folder.DriveID, owner)
	if err != nil {
		return nil, err
	}

	h := hierarchy.New(all)
	searchIDs, err := h.FolderIDSubtree(p.FolderID, p.MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("listing folder %s: %w", p.FolderID, err)
	}
	childDepth := p.MaxDepth
	if childDepth < hierarchy.Unlimited {
		childDepth++
	}
	subIDs, err := h.FolderIDSubtree(p.FolderID, childDepth)
	if err != nil {
		return nil, fmt.Errorf("listing folder %s: %w", p.FolderID, err)
	}
	subIDs = subIDs[1:]

	var children []*arfs.FileOrFolder
	if p.IncludeRoot {
		children = append(children, folder)
	}
	for _, f := range all {
		if slices.Contains(subIDs, f.EntityID) {
			children = append(children, f)
		}
	}
	for _, id := range searchIDs {
		files, err := src.files(ctx, id, owner)
		if err != nil {
			return nil, err
		}
		children = append(children, files...)
	}

	out := make([]*arfs.WithPaths, 0, len(children))
	for _, e := range children {
		wp, err := h.WithPaths(e)
		if err != nil {
			return nil, fmt.Errorf("paths of %s %s: %w", e.EntityType, e.EntityID, err)
		}
		out = append(out, wp)
	}
	return out, nil
}

// NameConflictInfo returns the names of the direct children of a public
// folder.
func (c *Client) NameConflictInfo(ctx context.Context, folderID arfs.EntityID, owner arfs.Address) (arfs.NameConflictInfo, error) {
	entries, err := c.ListPublicFolder(ctx, ListParams{FolderID: folderID, Owner: owner})
	if err != nil {
		return arfs.NameConflictInfo{}, err
	}
	return arfs.NewNameConflictInfo(unwrap(entries)), nil
}

// PrivateNameConflictInfo returns the names of the direct children of a
// private folder.
func (c *Client) PrivateNameConflictInfo(ctx context.Context, folderID arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey) (arfs.NameConflictInfo, error) {
	entries, err := c.ListPrivateFolder(ctx, ListParams{FolderID: folderID, Owner: owner}, driveKey, false)
	if err != nil {
		return arfs.NameConflictInfo{}, err
	}
	return arfs.NewNameConflictInfo(unwrap(entries)), nil
}

func unwrap(entries []*arfs.WithPaths) []*arfs.FileOrFolder {
	out := make([]*arfs.FileOrFolder, len(entries))
	for i, e := range entries {
		out[i] = e.FileOrFolder
	}
	return out
}
