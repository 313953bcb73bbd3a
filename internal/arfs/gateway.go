package arfs

import "context"

// SortOrder orders query results by block height.
type SortOrder string

const (
	SortHeightDesc SortOrder = "HEIGHT_DESC"
	SortHeightAsc  SortOrder = "HEIGHT_ASC"
)

// PageSize is the number of edges requested per paginated query.
const PageSize = 100

// TagFilter matches transactions carrying Name with any of Values.
type TagFilter struct {
	Name   string
	Values []string
}

// Query describes a transactions lookup. When Paginated is false a single
// best match is requested and Cursor is ignored.
type Query struct {
	Tags      []TagFilter
	Owner     Address
	IDs       []Address
	Sort      SortOrder
	Paginated bool
	Cursor    string
}

// Owner is the wallet that signed a transaction.
type Owner struct {
	Address Address `json:"address"`
}

// Block locates a mined transaction.
type Block struct {
	Height    int64 `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// Node is a transaction as returned by the query endpoint.
type Node struct {
	ID    Address `json:"id"`
	Tags  []Tag   `json:"tags"`
	Owner Owner   `json:"owner"`
	Block *Block  `json:"block"`
}

// Edge wraps a node with its pagination cursor.
type Edge struct {
	Cursor string `json:"cursor"`
	Node   Node   `json:"node"`
}

// PageInfo reports whether more pages follow.
type PageInfo struct {
	HasNextPage bool `json:"hasNextPage"`
}

// Page is one result set of a transactions query.
type Page struct {
	PageInfo PageInfo `json:"pageInfo"`
	Edges    []Edge   `json:"edges"`
}

// Transaction is a decoded transaction header.
type Transaction struct {
	Format   int     `json:"format"`
	ID       Address `json:"id"`
	LastTx   string  `json:"last_tx"`
	Owner    string  `json:"owner"`
	Tags     []Tag   `json:"tags"`
	Target   string  `json:"target"`
	Quantity Winston `json:"quantity"`
	DataSize string  `json:"data_size"`
	DataRoot string  `json:"data_root"`
	Reward   Winston `json:"reward"`
}

// Gateway is the read side of a ledger gateway.
type Gateway interface {
	// Query runs a transactions query and returns one page of edges.
	Query(ctx context.Context, q Query) (*Page, error)

	// FetchPayload returns the raw data of a transaction.
	FetchPayload(ctx context.Context, txID Address) ([]byte, error)

	// FetchTransaction returns the header of a transaction.
	FetchTransaction(ctx context.Context, txID Address) (*Transaction, error)
}
