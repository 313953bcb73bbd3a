package arfs

import "encoding/json"

// CustomMetaData holds application-defined metadata that is not part of the
// protocol. Tags come from transaction tags, JSON from the metadata payload.
type CustomMetaData struct {
	Tags map[string][]string        `json:"tags,omitempty" cbor:"tags,omitempty"`
	JSON map[string]json.RawMessage `json:"json,omitempty" cbor:"json,omitempty"`
}

// IsEmpty reports whether no custom metadata was attached.
func (c CustomMetaData) IsEmpty() bool {
	return len(c.Tags) == 0 && len(c.JSON) == 0
}

// CipherInfo describes how a private entity's payload was encrypted.
type CipherInfo struct {
	Name string `json:"cipher" cbor:"cipher"`
	IV   string `json:"cipherIV" cbor:"cipherIV"`
}

// Entity holds the fields shared by drives, folders and files.
type Entity struct {
	AppName     string         `json:"appName" cbor:"appName"`
	AppVersion  string         `json:"appVersion" cbor:"appVersion"`
	ArFS        string         `json:"arFS" cbor:"arFS"`
	ContentType string         `json:"contentType" cbor:"contentType"`
	DriveID     EntityID       `json:"driveId" cbor:"driveId"`
	EntityType  EntityType     `json:"entityType" cbor:"entityType"`
	Name        string         `json:"name" cbor:"name"`
	TxID        Address        `json:"txId" cbor:"txId"`
	UnixTime    UnixTime       `json:"unixTime" cbor:"unixTime"`
	Custom      CustomMetaData `json:"customMetaData,omitzero" cbor:"customMetaData,omitempty"`
}

// Drive is a drive entity. Private drives carry a Cipher and, unless built
// keyless, the drive key.
type Drive struct {
	Entity
	Privacy      DrivePrivacy `json:"drivePrivacy" cbor:"drivePrivacy"`
	RootFolderID EntityID     `json:"rootFolderId" cbor:"rootFolderId"`
	AuthMode     string       `json:"driveAuthMode,omitempty" cbor:"driveAuthMode,omitempty"`
	Cipher       *CipherInfo  `json:"cipherInfo,omitempty" cbor:"cipherInfo,omitempty"`
	Key          EntityKey    `json:"driveKey,omitempty" cbor:"driveKey,omitempty"`
}

// IsPrivate reports whether the drive is encrypted.
func (d *Drive) IsPrivate() bool { return d.Privacy == DrivePrivacyPrivate }

// IsKeyless reports whether a private drive was built without its key.
func (d *Drive) IsKeyless() bool { return d.IsPrivate() && len(d.Key) == 0 }

// WithoutKeys returns a copy of d with key material removed.
func (d *Drive) WithoutKeys() *Drive {
	c := *d
	c.Key = nil
	return &c
}

// FileOrFolder is a file or folder entity. Folders have zero Size and
// LastModifiedDate, StubTransactionID as DataTxID and a JSON content type.
type FileOrFolder struct {
	Entity
	EntityID         EntityID    `json:"entityId" cbor:"entityId"`
	ParentFolderID   EntityID    `json:"parentFolderId" cbor:"parentFolderId"`
	Size             ByteCount   `json:"size" cbor:"size"`
	LastModifiedDate UnixTime    `json:"lastModifiedDate" cbor:"lastModifiedDate"`
	DataTxID         Address     `json:"dataTxId" cbor:"dataTxId"`
	DataContentType  string      `json:"dataContentType" cbor:"dataContentType"`
	Cipher           *CipherInfo `json:"cipherInfo,omitempty" cbor:"cipherInfo,omitempty"`
	DriveKey         EntityKey   `json:"driveKey,omitempty" cbor:"driveKey,omitempty"`
	FileKey          EntityKey   `json:"fileKey,omitempty" cbor:"fileKey,omitempty"`
}

func (e *FileOrFolder) IsFolder() bool { return e.EntityType == EntityTypeFolder }

func (e *FileOrFolder) IsFile() bool { return e.EntityType == EntityTypeFile }

func (e *FileOrFolder) IsPrivate() bool { return e.Cipher != nil }

// WithoutKeys returns a copy of e with key material removed.
func (e *FileOrFolder) WithoutKeys() *FileOrFolder {
	c := *e
	c.DriveKey = nil
	c.FileKey = nil
	return &c
}

// WithPaths decorates a file or folder with paths derived from its drive's
// folder hierarchy.
type WithPaths struct {
	*FileOrFolder
	Path         string `json:"path"`
	TxIDPath     string `json:"txIdPath"`
	EntityIDPath string `json:"entityIdPath"`
}

// Folders returns the folder entries of entities, preserving order.
func Folders(entities []*FileOrFolder) []*FileOrFolder {
	return filterType(entities, EntityTypeFolder)
}

// Files returns the file entries of entities, preserving order.
func Files(entities []*FileOrFolder) []*FileOrFolder {
	return filterType(entities, EntityTypeFile)
}

func filterType(entities []*FileOrFolder, t EntityType) []*FileOrFolder {
	var out []*FileOrFolder
	for _, e := range entities {
		if e.EntityType == t {
			out = append(out, e)
		}
	}
	return out
}

// FolderNameAndID identifies a folder by name for conflict checks.
type FolderNameAndID struct {
	FolderName string   `json:"folderName"`
	FolderID   EntityID `json:"folderId"`
}

// FileConflictInfo identifies a file by name for conflict checks.
type FileConflictInfo struct {
	FileName         string   `json:"fileName"`
	FileID           EntityID `json:"fileId"`
	LastModifiedDate UnixTime `json:"lastModifiedDate"`
}

// NameConflictInfo lists the names already used inside a folder.
type NameConflictInfo struct {
	Files   []FileConflictInfo `json:"files"`
	Folders []FolderNameAndID  `json:"folders"`
}

// NewNameConflictInfo summarises the direct children of a folder.
func NewNameConflictInfo(children []*FileOrFolder) NameConflictInfo {
	info := NameConflictInfo{Files: []FileConflictInfo{}, Folders: []FolderNameAndID{}}
	for _, c := range children {
		switch c.EntityType {
		case EntityTypeFolder:
			info.Folders = append(info.Folders, FolderNameAndID{FolderName: c.Name, FolderID: c.EntityID})
		case EntityTypeFile:
			info.Files = append(info.Files, FileConflictInfo{
				FileName:         c.Name,
				FileID:           c.EntityID,
				LastModifiedDate: c.LastModifiedDate,
			})
		}
	}
	return info
}
