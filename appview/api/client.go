// Package api is the frontend's single way of talking to the recipe
// backend. Every call goes to a fixed base URL with a bounded wait, and
// carries the caller's credentials when a session exists.
package api

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

	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/log"
)

// maxBody caps how much of a backend response is read.
const maxBody = 8 << 20

var (
	// ErrInvalidPath is returned for paths that would leave the base URL.
	ErrInvalidPath  = errors.New("path escapes api base")
	ErrBodyTooLarge = errors.New("response body too large")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

type Config struct {
	BaseURL string
	Timeout time.Duration

	// Transport sits beneath the credential transport; nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = appview.DefaultAPITimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: CredentialTransport{Base: cfg.Transport},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body (JSON encoded, if non-nil) to path relative to the base
// URL.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		var data []byte
		switch b := body.(type) {
		case json.RawMessage:
			data = b
		default:
			var err error
			data, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	return c.send(ctx, method, path, "", contentType, reader)
}

// Forward relays an already encoded request, as the browser-facing proxy
// receives it.
func (c *Client) Forward(ctx context.Context, method, path, rawQuery, contentType string, body io.Reader) (*Response, error) {
	return c.send(ctx, method, path, rawQuery, contentType, body)
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) send(ctx context.Context, method, path, rawQuery, contentType string, body io.Reader) (*Response, error) {
	if err := checkPath(path); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(method, 0, start)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	observe(method, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if len(data) > maxBody {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrBodyTooLarge)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &ResponseError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       data,
		}
		if resp.StatusCode == http.StatusForbidden {
			c.handleForbidden(ctx, rerr)
		}
		return nil, rerr
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Data:       data,
	}, nil
}

// checkPath rejects dot-dot segments, escaped or not, so every request
// stays under the base URL.
func checkPath(p string) error {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	unescaped, err := url.PathUnescape(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	for _, seg := range strings.FieldsFunc(unescaped, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return ErrInvalidPath
		}
	}
	return nil
}

// handleForbidden is where a rejected session would be dealt with. Nothing
// is done yet; the error still reaches the caller unchanged.
// TODO: drop the stored session here once the backend documents whether 403
// means bad credentials or a missing permission.
func (c *Client) handleForbidden(ctx context.Context, err *ResponseError) {
	log.FromContext(ctx).Debug("backend refused request", "method", err.Method, "path", err.Path)
}
