// Package gateway talks to a ledger gateway over HTTP. Every request goes
// through one retry loop that separates fatal, rate limited and transient
// failures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"arfs-go/internal/arfs"
)

const (
	DefaultURL               = "https://arweave.net:443/"
	DefaultMaxRetries        = 8
	DefaultInitialErrorDelay = 500 * time.Millisecond
	DefaultRateLimitCooldown = 60 * time.Second
	DefaultTimeout           = 30 * time.Second
)

// DefaultFatalErrors are gateway error messages that no retry can fix.
var DefaultFatalErrors = []string{
	"invalid_json",
	"chunk_too_big",
	"data_path_too_big",
	"offset_too_big",
	"data_size_too_big",
	"chunk_proof_ratio_not_attractive",
	"invalid_proof",
}

var (
	// ErrFatalGateway is wrapped by errors that aborted without retrying.
	ErrFatalGateway = errors.New("fatal gateway error")

	// ErrRetriesExhausted is wrapped by errors returned after the last retry.
	ErrRetriesExhausted = errors.New("gateway retries exhausted")
)

// RequestError describes the last failed attempt of a request.
type RequestError struct {
	Status   int
	Message  string
	Attempts int
	Fatal    bool
}

func (e *RequestError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("Fatal error encountered: (Status: %d) %s", e.Status, e.Message)
	}
	return fmt.Sprintf("Request to gateway has failed: (Status: %d) %s", e.Status, e.Message)
}

func (e *RequestError) Unwrap() error {
	if e.Fatal {
		return ErrFatalGateway
	}
	return ErrRetriesExhausted
}

// PayloadCache stores raw transaction data by transaction id.
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) ([]byte, error)
}

// Options configures a Client. Use DefaultOptions as the starting point.
type Options struct {
	URL               string
	MaxRetries        int
	InitialErrorDelay time.Duration
	RateLimitCooldown time.Duration
	FatalErrors       []string
	ValidStatusCodes  []int

	HTTPClient   *http.Client
	Clock        arfs.Clock
	Logger       arfs.Logger
	PayloadCache PayloadCache
}

// DefaultOptions returns the options used against the public gateway.
func DefaultOptions() Options {
	return Options{
		URL:               DefaultURL,
		MaxRetries:        DefaultMaxRetries,
		InitialErrorDelay: DefaultInitialErrorDelay,
		RateLimitCooldown: DefaultRateLimitCooldown,
		FatalErrors:       DefaultFatalErrors,
		ValidStatusCodes:  []int{http.StatusOK},
	}
}

// Client implements arfs.Gateway.
type Client struct {
	base              *url.URL
	maxRetries        int
	initialErrorDelay time.Duration
	rateLimitCooldown time.Duration
	fatalErrors       []string
	validStatusCodes  []int

	http    *http.Client
	clock   arfs.Clock
	logger  arfs.Logger
	payload PayloadCache
}

var _ arfs.Gateway = (*Client)(nil)

// New creates a Client. Empty fields of opts fall back to their defaults.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing gateway url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway url must be http or https, got %q", opts.URL)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.FatalErrors == nil {
		opts.FatalErrors = DefaultFatalErrors
	}
	if len(opts.ValidStatusCodes) == 0 {
		opts.ValidStatusCodes = []int{http.StatusOK}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Clock == nil {
		opts.Clock = arfs.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = arfs.NewNopLogger()
	}

	return &Client{
		base:              base,
		maxRetries:        opts.MaxRetries,
		initialErrorDelay: opts.InitialErrorDelay,
		rateLimitCooldown: opts.RateLimitCooldown,
		fatalErrors:       opts.FatalErrors,
		validStatusCodes:  opts.ValidStatusCodes,
		http:              opts.HTTPClient,
		clock:             opts.Clock,
		logger:            opts.Logger,
		payload:           opts.PayloadCache,
	}, nil
}

// endpoint resolves a path relative to the gateway root.
func (c *Client) endpoint(elem ...string) string {
	return c.base.JoinPath(elem...).String()
}

// request is a single HTTP exchange that can be replayed.
type request struct {
	method      string
	url         string
	body        []byte
	contentType string
}

// do sends req until it succeeds, hits a fatal error or exhausts the retry
// budget. Rate limited responses wait for the cooldown and do not consume a
// retry.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	var (
		lastStatus  int
		lastMessage string
		attempts    int
	)

	retry := 0
	for retry <= c.maxRetries {
		attempts++
		status, body, err := c.attempt(ctx, req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if err == nil && slices.Contains(c.validStatusCodes, status) {
			if retry > 0 {
				c.logger.Info("request has been successfully retried", "url", req.url, "retries", retry)
			}
			return body, nil
		}

		lastStatus = status
		if err != nil {
			lastMessage = err.Error()
		} else {
			lastMessage = failureMessage(status, body)
		}

		if slices.Contains(c.fatalErrors, lastMessage) {
			c.logger.Error("fatal gateway error", "url", req.url, "status", lastStatus, "error", lastMessage)
			return nil, &RequestError{Status: lastStatus, Message: lastMessage, Attempts: attempts, Fatal: true}
		}

		if status == http.StatusTooManyRequests {
			c.logger.Warn("gateway rate limited request, waiting", "url", req.url, "cooldown", c.rateLimitCooldown)
			if err := c.clock.Sleep(ctx, c.rateLimitCooldown); err != nil {
				return nil, err
			}
			continue
		}

		c.logger.Warn("request to gateway failed", "url", req.url, "status", lastStatus, "error", lastMessage)

		next := retry + 1
		if next <= c.maxRetries {
			delay := c.initialErrorDelay * time.Duration(1<<retry)
			c.logger.Info("retrying request", "url", req.url, "attempt", next, "delay", delay)
			if err := c.clock.Sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		retry = next
	}

	return nil, &RequestError{Status: lastStatus, Message: lastMessage, Attempts: attempts}
}

func (c *Client) attempt(ctx context.Context, req request) (int, []byte, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// failureMessage extracts the gateway's error text from a failed response.
// Gateways answer either with a bare message or with {"error": "..."}.
func failureMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return text
}
