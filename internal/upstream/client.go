// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultTimeout bounds every upstream request.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the tool to upstream operators.
	DefaultUserAgent = "versionfetch/dev (+https://github.com/chococar-site/versionfetch)"

	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	maxJSONResponseBytes = 10 << 20

	// maxErrorBodyBytes is how much of a failed response body is kept for diagnostics.
	maxErrorBodyBytes = 300
)

// ErrNotFound is returned when an upstream answers HTTP 404.
var ErrNotFound = errors.New("upstream resource not found")

type (
	// StatusError is returned when an upstream answers with a non-200 status.
	// A 404 unwraps to ErrNotFound.
	StatusError struct {
		URL        string
		StatusCode int
		Body       string // truncated response body
	}

	// Option configures any upstream client during construction.
	Option func(*client)

	// client holds the request plumbing shared by every upstream client.
	client struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
		timeout    time.Duration
		logger     *log.Logger
	}
)

// Error formats the failed request for diagnostics.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Unwrap maps HTTP 404 onto ErrNotFound so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
// The client's own Timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(u *client) {
		u.httpClient = c
	}
}

// WithBaseURL overrides the upstream base URL, primarily for test servers.
func WithBaseURL(base string) Option {
	return func(u *client) {
		if base != "" {
			u.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(u *client) {
		if ua != "" {
			u.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(u *client) {
		u.timeout = d
	}
}

// WithLogger sets the logger used for request-level debug output.
func WithLogger(l *log.Logger) Option {
	return func(u *client) {
		if l != nil {
			u.logger = l
		}
	}
}

func newClient(defaultBase string, opts []Option) client {
	c := client{
		baseURL:   defaultBase,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// endpoint joins the base URL with a path and optional query.
func (c *client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// getJSON issues a GET request and decodes a 200 response body into v.
func (c *client) getJSON(ctx context.Context, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", reqURL, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	c.logger.Debug("response", "url", reqURL, "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // Best-effort diagnostic body.
		return &StatusError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", reqURL, err)
	}
	return nil
}
