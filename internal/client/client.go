// Package client is the read façade over an ArFS gateway. It resolves
// owners and drive ids, builds entities with caching, scans drives,
// folders and files page by page, and lists folder trees with paths.
package client

import (
	"errors"
	"fmt"

	"arfs-go/internal/arfs"
	"arfs-go/internal/builder"
	"arfs-go/internal/cache"
)

// DefaultConcurrency bounds how many edges of one page are built at once.
const DefaultConcurrency = 16

// Default tag settings written by this client.
const (
	DefaultAppName    = "ArFS"
	DefaultAppVersion = "0.0.1"
)

// ErrInvalidMaxDepth is returned by listings given a negative depth.
var ErrInvalidMaxDepth = errors.New("maxDepth should be a non-negative integer!")

// lookupError is a failed owner or drive id lookup. It matches
// arfs.ErrEntityNotFound.
type lookupError struct {
	msg string
}

func (e *lookupError) Error() string { return e.msg }

func (e *lookupError) Unwrap() error { return arfs.ErrEntityNotFound }

func notFoundf(format string, args ...any) error {
	return &lookupError{msg: fmt.Sprintf(format, args...)}
}

// Client reads ArFS entities through a gateway. It is safe for concurrent
// use as long as its gateway and caches are.
type Client struct {
	gateway     arfs.Gateway
	caches      *cache.ClientCache
	builder     *builder.Builder
	logger      arfs.Logger
	tags        arfs.TagSettings
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithTagSettings sets the app tags the client reports.
func WithTagSettings(s arfs.TagSettings) Option {
	return func(c *Client) { c.tags = s }
}

// WithConcurrency sets how many edges of a page are built in parallel.
// Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Client. A nil logger discards output.
func New(gateway arfs.Gateway, caches *cache.ClientCache, logger arfs.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = arfs.NewNopLogger()
	}
	c := &Client{
		gateway:     gateway,
		caches:      caches,
		logger:      logger,
		tags:        arfs.NewTagSettings(DefaultAppName, DefaultAppVersion, ""),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.builder = builder.New(gateway, logger)
	return c
}

// TagSettings returns the app tags the client was configured with.
func (c *Client) TagSettings() arfs.TagSettings {
	return c.tags
}

// Caches returns the caches the client reads through.
func (c *Client) Caches() *cache.ClientCache {
	return c.caches
}
