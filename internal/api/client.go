// Package api implements the HTTP client for the Sea Lion REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const maxResponseBytes = 8 << 20

// TokenSource supplies the bearer token for a request. It is consulted on
// every call; the client never caches the header.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Refresher exchanges the refresh token for a new access token.
type Refresher interface {
	RefreshSession(ctx context.Context) error
}

// Requester is the verb set shared by Client and its test doubles. Entity
// services depend on it rather than on *Client.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any, opts ...RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Delete(ctx context.Context, path string, opts ...RequestOption) error
}

var _ Requester = (*Client)(nil)

const defaultTimeout = 30 * time.Second

// Client issues requests against a fixed base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger

	mu        sync.RWMutex
	refresher Refresher
	refreshes singleflight.Group
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for round trip debug lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRefresher installs the 401 refresh hook at construction time.
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// NewClient constructs a Client for baseURL. tokens may be nil for
// anonymous use.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetRefresher installs the hook used when a request is rejected with 401.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	c.refresher = r
	c.mu.Unlock()
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type requestConfig struct {
	anonymous bool
}

// RequestOption tunes a single call.
type RequestOption func(*requestConfig)

// WithoutAuth sends the request without an Authorization header and skips
// the refresh path. Token endpoints use it.
func WithoutAuth() RequestOption {
	return func(rc *requestConfig) {
		rc.anonymous = true
	}
}

// Get fetches path with the optional query and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, opts)
}

// Post sends body to path. A *Multipart body is sent as form data, anything
// else as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, opts)
}

// Patch sends a partial update to path.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out, opts)
}

// Delete removes the resource at path. A 204 with no body is success.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, opts)
}

type encodedBody struct {
	data        []byte
	contentType string
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, opts []RequestOption) error {
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}

	encoded, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("api: encode %s %s: %w", method, path, err)
	}
	target := c.resolve(path, query)

	sentToken, err := c.roundTrip(ctx, method, target, encoded, out, rc)
	if err == nil || !sentToken || !errors.Is(err, ErrUnauthorized) {
		return err
	}

	refresher := c.currentRefresher()
	if refresher == nil {
		return err
	}
	if refreshErr := c.refresh(ctx, refresher); refreshErr != nil {
		c.logger.Debug("token refresh failed", slog.Any("error", refreshErr))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	_, err = c.roundTrip(ctx, method, target, encoded, out, rc)
	return err
}

// refresh runs one shared refresh for all callers. It is detached from the
// caller's cancellation, so a caller giving up does not fail the refresh for
// the others, and is bounded by the http client timeout instead.
func (c *Client) refresh(ctx context.Context, refresher Refresher) error {
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()
		return nil, refresher.RefreshSession(rctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) refreshTimeout() time.Duration {
	if c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return defaultTimeout
}

func (c *Client) currentRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// roundTrip performs one attempt. It reports whether a bearer token was
// attached so the caller knows a 401 may be recoverable.
func (c *Client) roundTrip(ctx context.Context, method, target string, body *encodedBody, out any, rc requestConfig) (bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}

	sentToken := false
	if !rc.anonymous && c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return false, fmt.Errorf("api: read access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			sentToken = true
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sentToken, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return sentToken, fmt.Errorf("api: read %s %s: %w", method, req.URL.Path, err)
	}
	c.logger.Debug("api round trip",
		slog.String("method", method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return sentToken, newError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return sentToken, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return sentToken, fmt.Errorf("api: decode %s %s: %w", method, req.URL.Path, err)
	}
	return sentToken, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func encodeBody(body any) (*encodedBody, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case *Multipart:
		data, contentType, err := b.encode()
		if err != nil {
			return nil, err
		}
		return &encodedBody{data: data, contentType: contentType}, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return &encodedBody{data: data, contentType: "application/json"}, nil
	}
}

func isJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && json.Valid(trimmed)
}

// SearchQuery builds the ?search= filter shared by the list endpoints. A
// blank term yields no query at all.
func SearchQuery(term string) url.Values {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	return url.Values{"search": {term}}
}
