package client

import (
	"context"

	"arfs-go/internal/arfs"
)

// Private entities are never cached: the caches sit on disk and the
// decrypted entities carry key material.

// PrivateDrive decrypts the latest revision of a private drive with
// driveKey. Unless withKeys is set the key is stripped from the result.
func (c *Client) PrivateDrive(ctx context.Context, driveID arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey, withKeys bool) (*arfs.Drive, error) {
	owner, err := c.resolveOwner(ctx, owner, func(ctx context.Context) (arfs.Address, error) {
		return c.OwnerForDriveID(ctx, driveID)
	})
	if err != nil {
		return nil, err
	}
	drive, err := c.builder.PrivateDrive(ctx, driveID, owner, driveKey)
	if err != nil {
		return nil, err
	}
	if !withKeys {
		drive = drive.WithoutKeys()
	}
	return drive, nil
}

// PrivateFolder decrypts the latest revision of a private folder.
func (c *Client) PrivateFolder(ctx context.Context, folderID arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey, withKeys bool) (*arfs.FileOrFolder, error) {
	owner, err := c.resolveOwner(ctx, owner, func(ctx context.Context) (arfs.Address, error) {
		return c.DriveOwnerForFolderID(ctx, folderID)
	})
	if err != nil {
		return nil, err
	}
	folder, err := c.builder.PrivateFolder(ctx, folderID, owner, driveKey)
	if err != nil {
		return nil, err
	}
	return stripKeys(folder, withKeys), nil
}

// PrivateFile decrypts the latest revision of a private file. The file key
// is derived from driveKey.
func (c *Client) PrivateFile(ctx context.Context, fileID arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey, withKeys bool) (*arfs.FileOrFolder, error) {
	owner, err := c.resolveOwner(ctx, owner, func(ctx context.Context) (arfs.Address, error) {
		return c.DriveOwnerForFileID(ctx, fileID)
	})
	if err != nil {
		return nil, err
	}
	file, err := c.builder.PrivateFile(ctx, fileID, owner, driveKey, nil)
	if err != nil {
		return nil, err
	}
	return stripKeys(file, withKeys), nil
}

func stripKeys(e *arfs.FileOrFolder, withKeys bool) *arfs.FileOrFolder {
	if withKeys {
		return e
	}
	return e.WithoutKeys()
}
