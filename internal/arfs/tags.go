package arfs

import (
	"mime"
	"path"
	"slices"
	"strings"
)

// Tag is a name/value attribute attached to a ledger transaction.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Protocol tag names.
const (
	TagArFS           = "ArFS"
	TagTipType        = "Tip-Type"
	TagContentType    = "Content-Type"
	TagBoost          = "Boost"
	TagBundleFormat   = "Bundle-Format"
	TagBundleVersion  = "Bundle-Version"
	TagEntityType     = "Entity-Type"
	TagUnixTime       = "Unix-Time"
	TagDriveID        = "Drive-Id"
	TagFolderID       = "Folder-Id"
	TagFileID         = "File-Id"
	TagParentFolderID = "Parent-Folder-Id"
	TagDrivePrivacy   = "Drive-Privacy"
	TagCipher         = "Cipher"
	TagCipherIV       = "Cipher-IV"
	TagDriveAuthMode  = "Drive-Auth-Mode"
	TagAppName        = "App-Name"
	TagAppVersion     = "App-Version"
)

// ProtectedTagNames lists every tag name reserved by the protocol. Custom
// metadata may not use any of them.
var ProtectedTagNames = []string{
	TagArFS,
	TagTipType,
	TagContentType,
	TagBoost,
	TagBundleFormat,
	TagBundleVersion,
	TagEntityType,
	TagUnixTime,
	TagDriveID,
	TagFolderID,
	TagFileID,
	TagParentFolderID,
	TagDrivePrivacy,
	TagCipher,
	TagCipherIV,
	TagDriveAuthMode,
	TagAppName,
	TagAppVersion,
}

// IsProtectedTagName reports whether name is reserved by the protocol.
func IsProtectedTagName(name string) bool {
	return slices.Contains(ProtectedTagNames, name)
}

// EntityType is the value of the Entity-Type tag.
type EntityType string

const (
	EntityTypeDrive  EntityType = "drive"
	EntityTypeFolder EntityType = "folder"
	EntityTypeFile   EntityType = "file"
)

// DrivePrivacy is the value of the Drive-Privacy tag.
type DrivePrivacy string

const (
	DrivePrivacyPublic  DrivePrivacy = "public"
	DrivePrivacyPrivate DrivePrivacy = "private"
)

// DriveAuthModePassword is the only supported Drive-Auth-Mode.
const DriveAuthModePassword = "password"

// Content types of metadata transactions.
const (
	ContentTypePublic   = "application/json"
	ContentTypePrivate  = "application/octet-stream"
	ContentTypeManifest = "application/x.arweave-manifest+json"
)

// Cipher parameters. They are fixed by the protocol.
const (
	CipherAES256GCM = "AES256-GCM"
	AuthTagLength   = 16
	IVLength        = 12
	KeyLength       = 32
)

// fakeCipherIV has the length of an encoded 12 byte IV.
const fakeCipherIV = "qwertyuiopasdfgh"

// Default tag settings used when nothing is configured.
const (
	DefaultAppName     = "default"
	DefaultAppVersion  = "default"
	DefaultArFSVersion = "default"
)

// TagSettings produces the bookkeeping tags attached to every transaction
// written by an application.
type TagSettings struct {
	AppName     string
	AppVersion  string
	ArFSVersion string
}

// NewTagSettings fills empty fields with the package defaults.
func NewTagSettings(appName, appVersion, arfsVersion string) TagSettings {
	s := TagSettings{AppName: appName, AppVersion: appVersion, ArFSVersion: arfsVersion}
	if s.AppName == "" {
		s.AppName = DefaultAppName
	}
	if s.AppVersion == "" {
		s.AppVersion = DefaultAppVersion
	}
	if s.ArFSVersion == "" {
		s.ArFSVersion = DefaultArFSVersion
	}
	return s
}

func (s TagSettings) BaseAppTags() []Tag {
	return []Tag{
		{Name: TagAppName, Value: s.AppName},
		{Name: TagAppVersion, Value: s.AppVersion},
	}
}

func (s TagSettings) BaseArFSTags() []Tag {
	return append(s.BaseAppTags(), Tag{Name: TagArFS, Value: s.ArFSVersion})
}

func (s TagSettings) BaseBundleTags() []Tag {
	return append(s.BaseAppTags(),
		Tag{Name: TagBundleFormat, Value: "binary"},
		Tag{Name: TagBundleVersion, Value: "2.0.0"},
	)
}

// FileDataItemTags returns the tags for a file data transaction.
func (s TagSettings) FileDataItemTags(private bool, dataContentType string) []Tag {
	tags := s.BaseAppTags()
	if private {
		return append(tags,
			Tag{Name: TagContentType, Value: ContentTypePrivate},
			Tag{Name: TagCipher, Value: CipherAES256GCM},
			Tag{Name: TagCipherIV, Value: fakeCipherIV},
		)
	}
	return append(tags, Tag{Name: TagContentType, Value: dataContentType})
}

// TagValue returns the first value for name.
func TagValue(tags []Tag, name string) (string, bool) {
	for _, t := range tags {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// ExtToMime guesses a MIME type from the extension of fullPath. It returns
// "unknown" when the extension is not recognised.
func ExtToMime(fullPath string) string {
	ext := strings.ToLower(path.Ext(fullPath))
	if ext == "" {
		ext = "." + strings.ToLower(fullPath)
	}
	m := mime.TypeByExtension(ext)
	if m == "" {
		return "unknown"
	}
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}
