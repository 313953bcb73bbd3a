package builder

import (
	"arfs-go/internal/arfs"
)

// FieldSpec describes how one kind of entity is located on the ledger and
// which of its tags and payload fields belong to the protocol.
type FieldSpec struct {
	Kind arfs.EntityType

	// IDTag carries the entity id: Drive-Id, Folder-Id or File-Id.
	IDTag string

	// Privacy adds a Drive-Privacy filter to lookups when set.
	Privacy arfs.DrivePrivacy

	// TypeTags are consumed after the common tags and never become custom
	// metadata.
	TypeTags []string

	// Filtered tags are dropped silently.
	Filtered []string

	// ProtectedJSON lists payload keys that are not custom metadata.
	ProtectedJSON []string

	RequireCipher   bool
	RequireAuthMode bool
	RequireParent   bool
}

var (
	driveJSON  = []string{"name", "rootFolderId"}
	folderJSON = []string{"name"}
	fileJSON   = []string{"name", "size", "lastModifiedDate", "dataTxId", "dataContentType"}

	privateDriveTags = []string{arfs.TagCipher, arfs.TagCipherIV, arfs.TagDriveAuthMode, arfs.TagDrivePrivacy}
)

var (
	PublicDriveSpec = FieldSpec{
		Kind:          arfs.EntityTypeDrive,
		IDTag:         arfs.TagDriveID,
		Privacy:       arfs.DrivePrivacyPublic,
		TypeTags:      []string{arfs.TagDrivePrivacy},
		ProtectedJSON: driveJSON,
	}

	PrivateDriveSpec = FieldSpec{
		Kind:            arfs.EntityTypeDrive,
		IDTag:           arfs.TagDriveID,
		Privacy:         arfs.DrivePrivacyPrivate,
		TypeTags:        privateDriveTags,
		ProtectedJSON:   driveJSON,
		RequireCipher:   true,
		RequireAuthMode: true,
	}

	// SafeDriveSpec matches drives of either privacy.
	SafeDriveSpec = FieldSpec{
		Kind:          arfs.EntityTypeDrive,
		IDTag:         arfs.TagDriveID,
		TypeTags:      privateDriveTags,
		ProtectedJSON: driveJSON,
	}

	PublicFolderSpec = FieldSpec{
		Kind:          arfs.EntityTypeFolder,
		IDTag:         arfs.TagFolderID,
		TypeTags:      []string{arfs.TagParentFolderID},
		Filtered:      []string{arfs.TagFolderID},
		ProtectedJSON: folderJSON,
	}

	PrivateFolderSpec = FieldSpec{
		Kind:          arfs.EntityTypeFolder,
		IDTag:         arfs.TagFolderID,
		TypeTags:      []string{arfs.TagParentFolderID, arfs.TagCipher, arfs.TagCipherIV},
		Filtered:      []string{arfs.TagFolderID},
		ProtectedJSON: folderJSON,
		RequireCipher: true,
	}

	PublicFileSpec = FieldSpec{
		Kind:          arfs.EntityTypeFile,
		IDTag:         arfs.TagFileID,
		TypeTags:      []string{arfs.TagParentFolderID},
		Filtered:      []string{arfs.TagFileID},
		ProtectedJSON: fileJSON,
		RequireParent: true,
	}

	PrivateFileSpec = FieldSpec{
		Kind:          arfs.EntityTypeFile,
		IDTag:         arfs.TagFileID,
		TypeTags:      []string{arfs.TagParentFolderID, arfs.TagCipher, arfs.TagCipherIV},
		Filtered:      []string{arfs.TagFileID},
		ProtectedJSON: fileJSON,
		RequireCipher: true,
		RequireParent: true,
	}
)

// QueryTags returns the tag filters that locate entity id.
func (s FieldSpec) QueryTags(id arfs.EntityID) []arfs.TagFilter {
	tags := []arfs.TagFilter{
		{Name: s.IDTag, Values: []string{string(id)}},
		{Name: arfs.TagEntityType, Values: []string{string(s.Kind)}},
	}
	if s.Privacy != "" {
		tags = append(tags, arfs.TagFilter{Name: arfs.TagDrivePrivacy, Values: []string{string(s.Privacy)}})
	}
	return tags
}
