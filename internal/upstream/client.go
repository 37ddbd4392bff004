// Package upstream is the HTTP client shared by the third-party API
// integrations (NFT indexing, IPFS pinning).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joelkehle/mark3/internal/telemetry"
)

const maxErrorBody = 4 << 10

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed status=%d body=%s", e.Method, e.Path, e.Status, e.Body)
}

// Transient reports whether retrying the same request may succeed.
func (e *StatusError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type Client struct {
	service string
	baseURL string
	http    *http.Client
	headers map[string]string
	secrets []string
}

// NewClient builds a client for one service. The service name labels the
// upstream latency metric.
func NewClient(service, baseURL string, httpClient *http.Client, headers map[string]string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		headers: h,
	}
}

// WithRedaction masks secrets that travel in the URL path (for example API
// keys embedded in the route) in returned errors. Escaped forms are masked
// too.
func (c *Client) WithRedaction(secrets ...string) *Client {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		c.secrets = append(c.secrets, s)
		for _, esc := range []string{url.PathEscape(s), url.QueryEscape(s)} {
			if esc != s {
				c.secrets = append(c.secrets, esc)
			}
		}
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends one request and returns the response body. A nil body sends no
// Content-Type.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string, headers map[string]string) (blob []byte, status int, err error) {
	start := time.Now()
	defer func() { telemetry.ObserveUpstream(c.service, start, err) }()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, c.redactTransportError(err, path)
	}
	defer resp.Body.Close()
	blob, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode >= 300 {
		snippet := blob
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return blob, resp.StatusCode, &StatusError{Method: method, Path: c.redact(path), Status: resp.StatusCode, Body: string(snippet)}
	}
	return blob, resp.StatusCode, nil
}

// DoJSON marshals payload (when non-nil) and decodes the response into out
// (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(blob)
	}
	blob, _, err := c.Do(ctx, method, path, body, "application/json", nil)
	if err != nil {
		return err
	}
	if out == nil || len(blob) == 0 {
		return nil
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.redact(path), err)
	}
	return nil
}

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, http.MethodGet, path, nil, out)
}

// redactTransportError rewrites the URL carried by a *url.Error. The cause
// stays in the chain so timeouts and cancellations remain detectable.
func (c *Client) redactTransportError(err error, path string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: c.baseURL + c.redact(path), Err: ue.Err}
	}
	return err
}

func (c *Client) redact(path string) string {
	path = redactPath(path)
	for _, s := range c.secrets {
		path = strings.ReplaceAll(path, s, "***")
	}
	return path
}

// redactPath drops the query string so keys and owner addresses passed as
// parameters stay out of error messages and logs.
func redactPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
