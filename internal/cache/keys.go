package cache

import (
	"encoding/json"

	"arfs-go/internal/arfs"
)

// Compound keys are rendered as JSON objects. Struct field order fixes the
// key order, so equal keys always render to the same string.

type driveKey struct {
	DriveID arfs.EntityID `json:"driveId"`
	Owner   arfs.Address  `json:"owner"`
}

type folderKey struct {
	FolderID arfs.EntityID `json:"folderId"`
	Owner    arfs.Address  `json:"owner"`
}

type fileKey struct {
	FileID arfs.EntityID `json:"fileId"`
	Owner  arfs.Address  `json:"owner"`
}

// DriveKey returns the canonical key for a drive owned by owner.
func DriveKey(driveID arfs.EntityID, owner arfs.Address) string {
	return canonical(driveKey{DriveID: driveID, Owner: owner})
}

// FolderKey returns the canonical key for a folder owned by owner.
func FolderKey(folderID arfs.EntityID, owner arfs.Address) string {
	return canonical(folderKey{FolderID: folderID, Owner: owner})
}

// FileKey returns the canonical key for a file owned by owner.
func FileKey(fileID arfs.EntityID, owner arfs.Address) string {
	return canonical(fileKey{FileID: fileID, Owner: owner})
}

func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic("cache: encoding key: " + err.Error())
	}
	return string(b)
}
