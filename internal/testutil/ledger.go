package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"arfs-go/internal/arfs"
	"arfs-go/internal/crypto"
)

// LedgerTx is a transaction held by a FakeLedger.
type LedgerTx struct {
	ID     arfs.Address
	Owner  arfs.Address
	Height int64
	Tags   []arfs.Tag
	Data   []byte
}

// FakeLedger is an in-memory arfs.Gateway. Transactions are mined in the
// order they are added, so later additions have greater heights.
// Safe for concurrent use.
type FakeLedger struct {
	mu       sync.Mutex
	txs      []*LedgerTx
	byID     map[arfs.Address]*LedgerTx
	pageSize int
	queries  []arfs.Query
	fetches  map[arfs.Address]int
	queryErr error
}

var _ arfs.Gateway = (*FakeLedger)(nil)

// NewFakeLedger creates an empty ledger paginating by arfs.PageSize.
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		byID:     make(map[arfs.Address]*LedgerTx),
		pageSize: arfs.PageSize,
		fetches:  make(map[arfs.Address]int),
	}
}

// SetPageSize changes the number of edges returned per paginated query.
func (l *FakeLedger) SetPageSize(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pageSize = n
}

// FailQueries makes every subsequent Query return err. Pass nil to restore.
func (l *FakeLedger) FailQueries(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queryErr = err
}

// Add mines a transaction and returns its id.
func (l *FakeLedger) Add(owner arfs.Address, tags []arfs.Tag, data []byte) arfs.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	height := int64(len(l.txs) + 1)
	tx := &LedgerTx{
		ID:     TxID(int(height)),
		Owner:  owner,
		Height: height,
		Tags:   slices.Clone(tags),
		Data:   slices.Clone(data),
	}
	l.txs = append(l.txs, tx)
	l.byID[tx.ID] = tx
	return tx.ID
}

// Queries returns every query issued so far.
func (l *FakeLedger) Queries() []arfs.Query {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.queries)
}

// PayloadFetches returns how often the payload of txID was fetched.
func (l *FakeLedger) PayloadFetches(txID arfs.Address) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches[txID]
}

func (l *FakeLedger) Query(ctx context.Context, q arfs.Query) (*arfs.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries = append(l.queries, q)
	if l.queryErr != nil {
		return nil, l.queryErr
	}

	var matched []*LedgerTx
	for _, tx := range l.txs {
		if matches(tx, q) {
			matched = append(matched, tx)
		}
	}
	if q.Sort != arfs.SortHeightAsc {
		slices.Reverse(matched)
	}

	start := 0
	if q.Paginated && q.Cursor != "" {
		start = len(matched)
		for i, tx := range matched {
			if string(tx.ID) == q.Cursor {
				start = i + 1
				break
			}
		}
	}
	limit := 1
	if q.Paginated {
		limit = l.pageSize
	}
	end := min(start+limit, len(matched))

	page := &arfs.Page{Edges: []arfs.Edge{}}
	for _, tx := range matched[start:end] {
		edge := arfs.Edge{Node: arfs.Node{
			ID:    tx.ID,
			Tags:  slices.Clone(tx.Tags),
			Owner: arfs.Owner{Address: tx.Owner},
			Block: &arfs.Block{Height: tx.Height, Timestamp: 1700000000 + tx.Height},
		}}
		if q.Paginated {
			edge.Cursor = string(tx.ID)
		}
		page.Edges = append(page.Edges, edge)
	}
	page.PageInfo.HasNextPage = q.Paginated && end < len(matched)
	return page, nil
}

func matches(tx *LedgerTx, q arfs.Query) bool {
	if q.Owner != "" && tx.Owner != q.Owner {
		return false
	}
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, tx.ID) {
		return false
	}
	for _, f := range q.Tags {
		found := false
		for _, t := range tx.Tags {
			if t.Name == f.Name && slices.Contains(f.Values, t.Value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (l *FakeLedger) FetchPayload(ctx context.Context, txID arfs.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetches[txID]++
	tx, ok := l.byID[txID]
	if !ok {
		return nil, fmt.Errorf("fake ledger: no transaction %s", txID)
	}
	return slices.Clone(tx.Data), nil
}

func (l *FakeLedger) FetchTransaction(ctx context.Context, txID arfs.Address) (*arfs.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.byID[txID]
	if !ok {
		return nil, fmt.Errorf("Transaction could not be found from the gateway: %s", txID)
	}
	return &arfs.Transaction{
		Format:   2,
		ID:       tx.ID,
		Owner:    string(tx.Owner),
		Tags:     slices.Clone(tx.Tags),
		DataSize: strconv.Itoa(len(tx.Data)),
	}, nil
}

// TxID returns a valid, deterministic transaction id for n.
func TxID(n int) arfs.Address {
	return arfs.Address(fmt.Sprintf("tx%041d", n))
}

// OwnerAddress returns a valid, deterministic wallet address for n.
func OwnerAddress(n int) arfs.Address {
	return arfs.Address(fmt.Sprintf("owner%038d", n))
}

// EntityTx describes a metadata transaction to mine with AddEntity.
type EntityTx struct {
	Owner      arfs.Address
	Type       arfs.EntityType
	DriveID    arfs.EntityID
	EntityID   arfs.EntityID // folder or file id, unused for drives
	ParentID   arfs.EntityID // omitted when empty
	UnixTime   int64
	Metadata   map[string]any
	Key        arfs.EntityKey // encrypts Metadata when set
	ExtraTags  []arfs.Tag
	OmitCipher bool // drops the cipher tags of a private entity
}

// AddEntity mines an ArFS metadata transaction for e and returns its id.
func (l *FakeLedger) AddEntity(e EntityTx) (arfs.Address, error) {
	payload, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	unixTime := e.UnixTime
	if unixTime == 0 {
		unixTime = 1700000000
	}
	tags := []arfs.Tag{
		{Name: arfs.TagAppName, Value: "ArFS-Test"},
		{Name: arfs.TagAppVersion, Value: "1.0"},
		{Name: arfs.TagArFS, Value: "0.11"},
	}

	private := len(e.Key) > 0
	var cipherTags []arfs.Tag
	if private {
		enc, err := crypto.Encrypt(e.Key, payload)
		if err != nil {
			return "", err
		}
		payload = enc.Data
		tags = append(tags, arfs.Tag{Name: arfs.TagContentType, Value: arfs.ContentTypePrivate})
		if !e.OmitCipher {
			cipherTags = []arfs.Tag{
				{Name: arfs.TagCipher, Value: enc.Cipher},
				{Name: arfs.TagCipherIV, Value: enc.IV},
			}
		}
	} else {
		tags = append(tags, arfs.Tag{Name: arfs.TagContentType, Value: arfs.ContentTypePublic})
	}

	tags = append(tags,
		arfs.Tag{Name: arfs.TagDriveID, Value: string(e.DriveID)},
		arfs.Tag{Name: arfs.TagEntityType, Value: string(e.Type)},
		arfs.Tag{Name: arfs.TagUnixTime, Value: strconv.FormatInt(unixTime, 10)},
	)

	switch e.Type {
	case arfs.EntityTypeDrive:
		privacy := arfs.DrivePrivacyPublic
		if private {
			privacy = arfs.DrivePrivacyPrivate
		}
		tags = append(tags, arfs.Tag{Name: arfs.TagDrivePrivacy, Value: string(privacy)})
		if private {
			tags = append(tags, arfs.Tag{Name: arfs.TagDriveAuthMode, Value: arfs.DriveAuthModePassword})
		}
	case arfs.EntityTypeFolder:
		tags = append(tags, arfs.Tag{Name: arfs.TagFolderID, Value: string(e.EntityID)})
	case arfs.EntityTypeFile:
		tags = append(tags, arfs.Tag{Name: arfs.TagFileID, Value: string(e.EntityID)})
	}
	if e.ParentID != "" {
		tags = append(tags, arfs.Tag{Name: arfs.TagParentFolderID, Value: string(e.ParentID)})
	}
	tags = append(tags, cipherTags...)
	tags = append(tags, e.ExtraTags...)

	return l.Add(e.Owner, tags, payload), nil
}

// AddPublicDrive mines a public drive revision.
func (l *FakeLedger) AddPublicDrive(owner arfs.Address, driveID, rootFolderID arfs.EntityID, name string) arfs.Address {
	return l.mustAdd(EntityTx{
		Owner:    owner,
		Type:     arfs.EntityTypeDrive,
		DriveID:  driveID,
		Metadata: map[string]any{"name": name, "rootFolderId": string(rootFolderID)},
	})
}

// AddPrivateDrive mines a private drive revision encrypted with driveKey.
func (l *FakeLedger) AddPrivateDrive(owner arfs.Address, driveID, rootFolderID arfs.EntityID, name string, driveKey arfs.EntityKey) arfs.Address {
	return l.mustAdd(EntityTx{
		Owner:    owner,
		Type:     arfs.EntityTypeDrive,
		DriveID:  driveID,
		Metadata: map[string]any{"name": name, "rootFolderId": string(rootFolderID)},
		Key:      driveKey,
	})
}

// AddFolder mines a folder revision. A nil driveKey mines a public folder
// and an empty parentID mines a root folder.
func (l *FakeLedger) AddFolder(owner arfs.Address, driveID, folderID, parentID arfs.EntityID, name string, driveKey arfs.EntityKey) arfs.Address {
	return l.mustAdd(EntityTx{
		Owner:    owner,
		Type:     arfs.EntityTypeFolder,
		DriveID:  driveID,
		EntityID: folderID,
		ParentID: parentID,
		Metadata: map[string]any{"name": name},
		Key:      driveKey,
	})
}

// AddFile mines a file revision. A non-nil driveKey encrypts the metadata
// with the file key derived from it.
func (l *FakeLedger) AddFile(owner arfs.Address, driveID, fileID, parentID arfs.EntityID, name string, driveKey arfs.EntityKey) arfs.Address {
	var key arfs.EntityKey
	if len(driveKey) > 0 {
		fileKey, err := crypto.DeriveFileKey(fileID, driveKey)
		if err != nil {
			panic(fmt.Sprintf("deriving file key: %v", err))
		}
		key = fileKey
	}
	return l.mustAdd(EntityTx{
		Owner:    owner,
		Type:     arfs.EntityTypeFile,
		DriveID:  driveID,
		EntityID: fileID,
		ParentID: parentID,
		Metadata: map[string]any{
			"name":             name,
			"size":             1024,
			"lastModifiedDate": 1690000000,
			"dataTxId":         string(TxID(9999)),
			"dataContentType":  arfs.ExtToMime(name),
		},
		Key: key,
	})
}

func (l *FakeLedger) mustAdd(e EntityTx) arfs.Address {
	id, err := l.AddEntity(e)
	if err != nil {
		panic(err)
	}
	return id
}
