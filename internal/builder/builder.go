// Package builder assembles drive, folder and file entities from ledger
// transactions. Every kind goes through the same pipeline: locate the
// metadata transaction, parse its tags, fetch and decode its payload, then
// validate the result.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"arfs-go/internal/arfs"
)

// Builder builds entities from a gateway. It is safe for concurrent use.
type Builder struct {
	gateway arfs.Gateway
	logger  arfs.Logger
}

// New creates a Builder. A nil logger discards output.
func New(gateway arfs.Gateway, logger arfs.Logger) *Builder {
	if logger == nil {
		logger = arfs.NewNopLogger()
	}
	return &Builder{gateway: gateway, logger: logger}
}

// payloadFields are the protocol fields of a metadata payload. Pointers
// distinguish absent fields from zero values.
type payloadFields struct {
	Name             *string      `json:"name"`
	RootFolderID     *string      `json:"rootFolderId"`
	Size             *json.Number `json:"size"`
	LastModifiedDate *json.Number `json:"lastModifiedDate"`
	DataTxID         *string      `json:"dataTxId"`
	DataContentType  *string      `json:"dataContentType"`
}

type result struct {
	p      *parsed
	d      *decoded
	fields payloadFields
}

// run drives one entity through the pipeline. node may be nil, in which
// case the latest transaction for id is queried.
func (b *Builder) run(ctx context.Context, spec *FieldSpec, id arfs.EntityID, owner arfs.Address, node *arfs.Node, dec payloadDecoder) (*result, error) {
	p := &parsed{spec: spec, id: id}
	r, err := b.runStages(ctx, p, owner, node, dec)
	if err != nil {
		b.logger.Debug("entity build failed", "kind", spec.Kind, "id", id, "stage", p.stage.String(), "error", err)
		return nil, err
	}
	p.stage = stageBuilt
	return r, nil
}

func (b *Builder) runStages(ctx context.Context, p *parsed, owner arfs.Address, node *arfs.Node, dec payloadDecoder) (*result, error) {
	if node == nil {
		n, err := b.acquire(ctx, p.spec, p.id, owner)
		if err != nil {
			return nil, err
		}
		node = n
	}

	if err := b.parseTags(p, node); err != nil {
		return nil, err
	}
	if err := p.checkTags(); err != nil {
		return nil, err
	}

	data, err := b.gateway.FetchPayload(ctx, p.entity.TxID)
	if err != nil {
		return nil, fmt.Errorf("fetching %s metadata: %w", p.spec.Kind, err)
	}
	p.stage = stagePayloadFetched

	d, err := dec.decode(ctx, p, data)
	if err != nil {
		return nil, err
	}
	p.stage = stageDecoded

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(d.json, &raw); err != nil || raw == nil {
		return nil, p.invalid("metadata is not a JSON object")
	}
	r := &result{p: p, d: d}
	if err := json.Unmarshal(d.json, &r.fields); err != nil {
		return nil, p.invalid("metadata has malformed fields: %v", err)
	}
	p.entity.Custom.JSON = arfs.ParseCustomJSON(raw, p.spec.ProtectedJSON)

	if r.fields.Name == nil || *r.fields.Name == "" {
		return nil, p.invalid("name not found")
	}
	p.entity.Name = *r.fields.Name
	return r, nil
}

func (r *result) cipherInfo() *arfs.CipherInfo {
	if r.p.cipher == "" {
		return nil
	}
	return &arfs.CipherInfo{Name: r.p.cipher, IV: r.p.cipherIV}
}

func (r *result) drive() (*arfs.Drive, error) {
	p := r.p
	if r.fields.RootFolderID == nil || *r.fields.RootFolderID == "" {
		return nil, p.invalid("rootFolderId not found")
	}
	rootID, err := arfs.ParseEntityID(*r.fields.RootFolderID)
	if err != nil {
		return nil, p.invalid("%v", err)
	}

	d := &arfs.Drive{
		Entity:       p.entity,
		Privacy:      p.privacy,
		RootFolderID: rootID,
	}
	if p.privacy == arfs.DrivePrivacyPrivate {
		d.AuthMode = p.authMode
		d.Cipher = r.cipherInfo()
		d.Key = r.d.driveKey
	}
	return d, nil
}

func (r *result) folder() *arfs.FileOrFolder {
	p := r.p
	parent := p.parentID
	if parent == "" {
		parent = arfs.RootFolderID
	}
	return &arfs.FileOrFolder{
		Entity:          p.entity,
		EntityID:        p.id,
		ParentFolderID:  parent,
		DataTxID:        arfs.StubTransactionID,
		DataContentType: arfs.ContentTypePublic,
		Cipher:          r.cipherInfo(),
		DriveKey:        r.d.driveKey,
	}
}

func (r *result) file() (*arfs.FileOrFolder, error) {
	p, f := r.p, r.fields
	if f.Size == nil {
		return nil, p.invalid("size not found")
	}
	n, err := wholeNumber(*f.Size)
	if err != nil {
		return nil, p.invalid("size: %v", err)
	}
	size, err := arfs.NewByteCount(n)
	if err != nil {
		return nil, p.invalid("%v", err)
	}
	if f.LastModifiedDate == nil {
		return nil, p.invalid("lastModifiedDate not found")
	}
	n, err = wholeNumber(*f.LastModifiedDate)
	if err != nil {
		return nil, p.invalid("lastModifiedDate: %v", err)
	}
	lastModified, err := arfs.NewUnixTime(n)
	if err != nil {
		return nil, p.invalid("%v", err)
	}
	if f.DataTxID == nil {
		return nil, p.invalid("dataTxId not found")
	}
	dataTxID, err := arfs.ParseAddress(*f.DataTxID)
	if err != nil {
		return nil, p.invalid("%v", err)
	}
	contentType := arfs.ExtToMime(p.entity.Name)
	if f.DataContentType != nil && *f.DataContentType != "" {
		contentType = *f.DataContentType
	}

	return &arfs.FileOrFolder{
		Entity:           p.entity,
		EntityID:         p.id,
		ParentFolderID:   p.parentID,
		Size:             size,
		LastModifiedDate: lastModified,
		DataTxID:         dataTxID,
		DataContentType:  contentType,
		Cipher:           r.cipherInfo(),
		DriveKey:         r.d.driveKey,
		FileKey:          r.d.fileKey,
	}, nil
}

// wholeNumber accepts integral JSON numbers, including exponent forms such
// as 1e3, that fit in an int64.
func wholeNumber(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	return int64(f), nil
}

func (b *Builder) buildDrive(ctx context.Context, spec *FieldSpec, id arfs.EntityID, owner arfs.Address, node *arfs.Node, dec payloadDecoder) (*arfs.Drive, error) {
	r, err := b.run(ctx, spec, id, owner, node, dec)
	if err != nil {
		return nil, err
	}
	return r.drive()
}

func (b *Builder) buildFolder(ctx context.Context, spec *FieldSpec, id arfs.EntityID, owner arfs.Address, node *arfs.Node, dec payloadDecoder) (*arfs.FileOrFolder, error) {
	r, err := b.run(ctx, spec, id, owner, node, dec)
	if err != nil {
		return nil, err
	}
	return r.folder(), nil
}

func (b *Builder) buildFile(ctx context.Context, spec *FieldSpec, id arfs.EntityID, owner arfs.Address, node *arfs.Node, dec payloadDecoder) (*arfs.FileOrFolder, error) {
	r, err := b.run(ctx, spec, id, owner, node, dec)
	if err != nil {
		return nil, err
	}
	return r.file()
}

// PublicDrive builds the latest revision of a public drive. An empty owner
// matches any owner.
func (b *Builder) PublicDrive(ctx context.Context, driveID arfs.EntityID, owner arfs.Address) (*arfs.Drive, error) {
	return b.buildDrive(ctx, &PublicDriveSpec, driveID, owner, nil, plainDecoder{})
}

// PublicDriveFromNode builds a public drive from a scanned transaction.
func (b *Builder) PublicDriveFromNode(ctx context.Context, node *arfs.Node) (*arfs.Drive, error) {
	id, err := idFromNode(&PublicDriveSpec, node)
	if err != nil {
		return nil, err
	}
	return b.buildDrive(ctx, &PublicDriveSpec, id, "", node, plainDecoder{})
}

// PrivateDrive builds a private drive and decrypts it with driveKey.
func (b *Builder) PrivateDrive(ctx context.Context, driveID arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey) (*arfs.Drive, error) {
	return b.buildDrive(ctx, &PrivateDriveSpec, driveID, owner, nil, keyDecoder{driveKey: driveKey})
}

func (b *Builder) PrivateDriveFromNode(ctx context.Context, node *arfs.Node, driveKey arfs.EntityKey) (*arfs.Drive, error) {
	id, err := idFromNode(&PrivateDriveSpec, node)
	if err != nil {
		return nil, err
	}
	return b.buildDrive(ctx, &PrivateDriveSpec, id, "", node, keyDecoder{driveKey: driveKey})
}

// SafeDrive builds a drive of either privacy. Private drives are decrypted
// with whatever keys resolves; when none works the drive's name and root
// folder id read ENCRYPTED. The result never carries a key.
func (b *Builder) SafeDrive(ctx context.Context, driveID arfs.EntityID, owner arfs.Address, keys KeyResolver) (*arfs.Drive, error) {
	return b.buildDrive(ctx, &SafeDriveSpec, driveID, owner, nil, safeDriveDecoder{keys: keys})
}

func (b *Builder) SafeDriveFromNode(ctx context.Context, node *arfs.Node, keys KeyResolver) (*arfs.Drive, error) {
	id, err := idFromNode(&SafeDriveSpec, node)
	if err != nil {
		return nil, err
	}
	return b.buildDrive(ctx, &SafeDriveSpec, id, "", node, safeDriveDecoder{keys: keys})
}

// PublicFolder builds the latest revision of a public folder.
func (b *Builder) PublicFolder(ctx context.Context, folderID arfs.EntityID, owner arfs.Address) (*arfs.FileOrFolder, error) {
	return b.buildFolder(ctx, &PublicFolderSpec, folderID, owner, nil, plainDecoder{})
}

func (b *Builder) PublicFolderFromNode(ctx context.Context, node *arfs.Node) (*arfs.FileOrFolder, error) {
	id, err := idFromNode(&PublicFolderSpec, node)
	if err != nil {
		return nil, err
	}
	return b.buildFolder(ctx, &PublicFolderSpec, id, "", node, plainDecoder{})
}

// PrivateFolder builds a private folder and decrypts it with driveKey.
func (b *Builder) PrivateFolder(ctx context.Context, folderID arfs.EntityID, owner arfs.Address, driveKey arfs.EntityKey) (*arfs.FileOrFolder, error) {
	return b.buildFolder(ctx, &PrivateFolderSpec, folderID, owner, nil, keyDecoder{driveKey: driveKey})
}

func (b *Builder) PrivateFolderFromNode(ctx context.Context, node *arfs.Node, driveKey arfs.EntityKey) (*arfs.FileOrFolder, error) {
	id, err := idFromNode(&PrivateFolderSpec, node)
	if err != nil {
		return nil, err
	}
	return b.buildFolder(ctx, &PrivateFolderSpec, id, "", node, keyDecoder{driveKey: driveKey})
}

// PublicFile builds the latest revision of a public file.
func (b *Builder) PublicFile(ctx context.Context, fileID arfs.EntityID, owner arfs.Address) (*arfs.FileOrFolder, error) {
	return b.buildFile(ctx, &PublicFileSpec, fileID, owner, nil, plainDecoder{})
}

func (b *Builder) PublicFileFromNode(ctx context.Context, node *arfs.Node) (*arfs.FileOrFolder, error) {
	id, err := idFromNode(&PublicFileSpec, node)
	if err != nil {
		return nil, err
	}
	return b.buildFile(ctx, &PublicFileSpec, id, "", node, plainDecoder{})
}

// PrivateFile builds a private file. fileKey may be nil, in which case it
// is derived from driveKey.
func (b *Builder) PrivateFile(ctx context.Context, fileID arfs.EntityID, owner arfs.Address, driveKey, fileKey arfs.EntityKey) (*arfs.FileOrFolder, error) {
	return b.buildFile(ctx, &PrivateFileSpec, fileID, owner, nil, keyDecoder{driveKey: driveKey, fileKey: fileKey})
}

func (b *Builder) PrivateFileFromNode(ctx context.Context, node *arfs.Node, driveKey arfs.EntityKey) (*arfs.FileOrFolder, error) {
	id, err := idFromNode(&PrivateFileSpec, node)
	if err != nil {
		return nil, err
	}
	return b.buildFile(ctx, &PrivateFileSpec, id, "", node, keyDecoder{driveKey: driveKey})
}
