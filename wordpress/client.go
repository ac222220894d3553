// Package wordpress publishes the weekly fragment to a WordPress site over
// its REST API.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iguv/weekly"
)

// DefaultTimeout bounds each REST call.
const DefaultTimeout = 30 * time.Second

// DefaultTokenHeader carries the optional shared token.
const DefaultTokenHeader = "X-IGUV-Token"

// maxErrorBody caps how much of a rejected response ends up in an error.
const maxErrorBody = 1000

// Client performs authenticated REST calls against one site.
type Client struct {
	baseURL     string
	username    string
	password    string
	tokenHeader string
	token       string
	userAgent   string
	client      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithToken sends value in header on every request. An empty header uses
// DefaultTokenHeader.
func WithToken(header, value string) Option {
	return func(c *Client) {
		if header == "" {
			header = DefaultTokenHeader
		}
		c.tokenHeader = header
		c.token = value
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for the site at baseURL using an application
// password.
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the absolute URL of path.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// get decodes the JSON response of path into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return weekly.Errorf(weekly.ENOTFOUND, "GET %s: HTTP %d: %s", path, resp.StatusCode, errorBody(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return weekly.Errorf(weekly.EPUBLISH, "GET %s: HTTP %d: %s", path, resp.StatusCode, errorBody(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return weekly.Errorf(weekly.EPUBLISH, "GET %s: invalid JSON response: %v", path, err)
	}
	return nil
}

// post sends payload as JSON. Only the given statuses count as success.
func (c *Client) post(ctx context.Context, path string, payload any, accept ...int) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	resp, body, err := c.do(ctx, http.MethodPost, path, b)
	if err != nil {
		return err
	}
	for _, code := range accept {
		if resp.StatusCode == code {
			return nil
		}
	}
	return weekly.Errorf(weekly.EPUBLISH, "POST %s: HTTP %d: %s", path, resp.StatusCode, errorBody(body))
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), r)
	if err != nil {
		return nil, nil, weekly.Errorf(weekly.EINVALID, "build request: %v", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set(c.tokenHeader, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, weekly.Errorf(weekly.EPUBLISH, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, weekly.Errorf(weekly.EPUBLISH, "%s %s: read response: %v", method, path, err)
	}
	return resp, body, nil
}

func errorBody(b []byte) string {
	return weekly.TruncateRunes(strings.TrimSpace(string(b)), maxErrorBody)
}
