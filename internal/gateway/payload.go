package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"arfs-go/internal/arfs"
)

// FetchPayload returns the data of txID, serving it from the payload cache
// when possible. Cache failures are logged and never fail the fetch.
func (c *Client) FetchPayload(ctx context.Context, txID arfs.Address) ([]byte, error) {
	key := string(txID)
	if c.payload != nil {
		data, ok, err := c.payload.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("reading payload cache", "txId", key, "error", err)
		case ok:
			return data, nil
		}
	}

	data, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint(key)})
	if err != nil {
		return nil, fmt.Errorf("fetching payload for %s: %w", txID, err)
	}

	if c.payload != nil {
		if _, err := c.payload.Put(ctx, key, data); err != nil {
			c.logger.Warn("writing payload cache", "txId", key, "error", err)
		}
	}
	return data, nil
}

type rawTransaction struct {
	Format   int          `json:"format"`
	ID       arfs.Address `json:"id"`
	LastTx   string       `json:"last_tx"`
	Owner    string       `json:"owner"`
	Tags     []arfs.Tag   `json:"tags"`
	Target   string       `json:"target"`
	Quantity arfs.Winston `json:"quantity"`
	DataSize string       `json:"data_size"`
	DataRoot string       `json:"data_root"`
	Reward   arfs.Winston `json:"reward"`
}

// FetchTransaction returns the header of txID with its tags decoded.
func (c *Client) FetchTransaction(ctx context.Context, txID arfs.Address) (*arfs.Transaction, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, url: c.endpoint("tx", string(txID))})
	if err != nil {
		return nil, fmt.Errorf("Transaction could not be found from the gateway: %w", err)
	}

	var raw rawTransaction
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding transaction %s: %w", txID, err)
	}

	tags := make([]arfs.Tag, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		name, err := decodeB64URL(t.Name)
		if err != nil {
			return nil, fmt.Errorf("decoding tag name of %s: %w", txID, err)
		}
		value, err := decodeB64URL(t.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding tag value of %s: %w", txID, err)
		}
		tags = append(tags, arfs.Tag{Name: string(name), Value: string(value)})
	}

	return &arfs.Transaction{
		Format:   raw.Format,
		ID:       raw.ID,
		LastTx:   raw.LastTx,
		Owner:    raw.Owner,
		Tags:     tags,
		Target:   raw.Target,
		Quantity: raw.Quantity,
		DataSize: raw.DataSize,
		DataRoot: raw.DataRoot,
		Reward:   raw.Reward,
	}, nil
}

func decodeB64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Chunk is one chunk of transaction data with its merkle proof.
type Chunk struct {
	DataRoot string `json:"data_root"`
	DataSize string `json:"data_size"`
	DataPath string `json:"data_path"`
	Offset   string `json:"offset"`
	Chunk    string `json:"chunk"`
}

// PostChunk uploads a chunk. Chunk errors such as invalid_proof are fatal.
func (c *Client) PostChunk(ctx context.Context, chunk Chunk) error {
	body, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}
	if _, err := c.do(ctx, request{
		method:      http.MethodPost,
		url:         c.endpoint("chunk"),
		body:        body,
		contentType: "application/json",
	}); err != nil {
		return fmt.Errorf("posting chunk: %w", err)
	}
	return nil
}

// PostTxHeader uploads an already signed transaction header.
func (c *Client) PostTxHeader(ctx context.Context, header json.RawMessage) error {
	if _, err := c.do(ctx, request{
		method:      http.MethodPost,
		url:         c.endpoint("tx"),
		body:        header,
		contentType: "application/json",
	}); err != nil {
		return fmt.Errorf("posting transaction header: %w", err)
	}
	return nil
}
