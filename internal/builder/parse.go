package builder

import (
	"context"
	"fmt"
	"slices"

	"arfs-go/internal/arfs"
)

type stage int

const (
	stageUnbuilt stage = iota
	stageTagsParsed
	stagePayloadFetched
	stageDecoded
	stageBuilt
)

func (s stage) String() string {
	switch s {
	case stageUnbuilt:
		return "unbuilt"
	case stageTagsParsed:
		return "tags parsed"
	case stagePayloadFetched:
		return "payload fetched"
	case stageDecoded:
		return "decoded"
	case stageBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// parsed accumulates everything known about an entity while it is built.
type parsed struct {
	spec  *FieldSpec
	id    arfs.EntityID
	stage stage

	entity      arfs.Entity
	hasUnixTime bool
	parentID    arfs.EntityID
	privacy     arfs.DrivePrivacy
	authMode    string
	cipher      string
	cipherIV    string
}

func (p *parsed) invalid(format string, args ...any) error {
	return &arfs.InvalidStateError{
		Kind:   p.spec.Kind,
		TxID:   p.entity.TxID,
		Reason: fmt.Sprintf(format, args...),
	}
}

// acquire returns the node to build from, querying for the latest matching
// transaction when none was supplied.
func (b *Builder) acquire(ctx context.Context, spec *FieldSpec, id arfs.EntityID, owner arfs.Address) (*arfs.Node, error) {
	page, err := b.gateway.Query(ctx, arfs.Query{
		Tags:  spec.QueryTags(id),
		Owner: owner,
		Sort:  arfs.SortHeightDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s %s: %w", spec.Kind, id, err)
	}
	if len(page.Edges) == 0 {
		return nil, &arfs.NotFoundError{ID: id}
	}
	return &page.Edges[0].Node, nil
}

// idFromNode reads the id tag of a node found by a scan.
func idFromNode(spec *FieldSpec, node *arfs.Node) (arfs.EntityID, error) {
	raw, ok := arfs.TagValue(node.Tags, spec.IDTag)
	if !ok || raw == "" {
		return "", &arfs.InvalidStateError{Kind: spec.Kind, TxID: node.ID, Reason: spec.IDTag + " tag missing"}
	}
	id, err := arfs.ParseEntityID(raw)
	if err != nil {
		return "", &arfs.InvalidStateError{Kind: spec.Kind, TxID: node.ID, Reason: err.Error()}
	}
	return id, nil
}

// parseTags consumes the common and type-level tags of node. Whatever is
// left becomes custom metadata, unless it is invalid, in which case it is
// logged and dropped.
func (b *Builder) parseTags(p *parsed, node *arfs.Node) error {
	p.entity.TxID = node.ID
	if len(node.Tags) == 0 {
		return p.invalid("tags missing")
	}

	var rest []arfs.Tag
	for _, t := range node.Tags {
		switch t.Name {
		case arfs.TagAppName:
			p.entity.AppName = t.Value
		case arfs.TagAppVersion:
			p.entity.AppVersion = t.Value
		case arfs.TagArFS:
			p.entity.ArFS = t.Value
		case arfs.TagContentType:
			p.entity.ContentType = t.Value
		case arfs.TagDriveID:
			id, err := arfs.ParseEntityID(t.Value)
			if err != nil {
				return p.invalid("%v", err)
			}
			p.entity.DriveID = id
		case arfs.TagEntityType:
			p.entity.EntityType = arfs.EntityType(t.Value)
		case arfs.TagUnixTime:
			ut, err := arfs.ParseUnixTime(t.Value)
			if err != nil {
				return p.invalid("%v", err)
			}
			p.entity.UnixTime = ut
			p.hasUnixTime = true
		default:
			rest = append(rest, t)
		}
	}

	var custom []arfs.Tag
	for _, t := range rest {
		if slices.Contains(p.spec.Filtered, t.Name) {
			continue
		}
		if !slices.Contains(p.spec.TypeTags, t.Name) {
			custom = append(custom, t)
			continue
		}
		switch t.Name {
		case arfs.TagParentFolderID:
			id, err := arfs.ParseEntityID(t.Value)
			if err != nil {
				return p.invalid("%v", err)
			}
			p.parentID = id
		case arfs.TagDrivePrivacy:
			p.privacy = arfs.DrivePrivacy(t.Value)
		case arfs.TagDriveAuthMode:
			p.authMode = t.Value
		case arfs.TagCipher:
			p.cipher = t.Value
		case arfs.TagCipherIV:
			p.cipherIV = t.Value
		}
	}

	tags, err := arfs.ParseCustomTags(custom)
	if err != nil {
		b.logger.Warn("dropping custom metadata tags", "kind", p.spec.Kind, "txId", p.entity.TxID, "error", err)
		tags = nil
	}
	p.entity.Custom.Tags = tags
	p.stage = stageTagsParsed
	return nil
}

// checkTags enforces the tag-level requirements of the FieldSpec before any
// payload is fetched.
func (p *parsed) checkTags() error {
	e := &p.entity
	switch {
	case e.AppName == "":
		return p.invalid("App-Name missing")
	case e.AppVersion == "":
		return p.invalid("App-Version missing")
	case e.ArFS == "":
		return p.invalid("ArFS missing")
	case e.ContentType == "":
		return p.invalid("Content-Type missing")
	case e.DriveID == "":
		return p.invalid("Drive-Id missing")
	case !p.hasUnixTime:
		return p.invalid("Unix-Time missing")
	case e.EntityType != p.spec.Kind:
		return p.invalid("entity type %q is not %q", e.EntityType, p.spec.Kind)
	}

	if p.spec.Kind == arfs.EntityTypeDrive {
		if p.privacy == "" {
			return p.invalid("Drive-Privacy missing")
		}
		if !e.DriveID.Equals(p.id) {
			return p.invalid("Drive-Id %s does not match %s", e.DriveID, p.id)
		}
	}
	if p.spec.RequireParent && p.parentID == "" {
		return p.invalid("Parent-Folder-Id missing")
	}
	if p.spec.RequireAuthMode && p.authMode == "" {
		return p.invalid("Drive-Auth-Mode missing")
	}
	if p.spec.RequireCipher && (p.cipher == "" || p.cipherIV == "") {
		return p.invalid("Cipher and Cipher-IV are required")
	}
	return nil
}
