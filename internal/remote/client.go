package remote

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

	"github.com/matheus3301/guestbook/internal/entry"
	"go.uber.org/zap"
)

// StatusError is returned when the resource answers with a non-2xx status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// IsNotFound reports whether err is a 404 from the resource.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// errEmptyBody is returned by do when a 2xx response carries no JSON document.
var errEmptyBody = errors.New("empty response body")

// maxErrorBody caps how much of an error response is kept in StatusError.
const maxErrorBody = 512

// Client talks to a guestbook collection endpoint such as
// http://127.0.0.1:5000/guestbook.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the collection at endpoint. timeout bounds each request.
func New(endpoint string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q: missing host", endpoint)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the collection URL.
func (c *Client) Endpoint() string {
	return c.base.String()
}

// List returns every entry in server order.
func (c *Client) List(ctx context.Context) ([]entry.Entry, error) {
	var entries []entry.Entry
	if err := c.do(ctx, http.MethodGet, c.base.String(), nil, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []entry.Entry{}
	}
	return entries, nil
}

// Create adds a new entry and returns it as stored by the server.
func (c *Client) Create(ctx context.Context, in entry.Input) (entry.Entry, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, c.base.String(), in, &raw); err != nil && !errors.Is(err, errEmptyBody) {
		return entry.Entry{}, err
	}
	return decodeOne(raw)
}

// Replace overwrites the entry with the given id.
func (c *Client) Replace(ctx context.Context, id entry.ID, in entry.Input) (entry.Entry, error) {
	target, err := c.itemURL(id)
	if err != nil {
		return entry.Entry{}, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, target, in, &raw); err != nil && !errors.Is(err, errEmptyBody) {
		return entry.Entry{}, err
	}
	return decodeOne(raw)
}

// Delete removes the entry with the given id.
func (c *Client) Delete(ctx context.Context, id entry.ID) error {
	target, err := c.itemURL(id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, target, nil, nil)
}

// itemURL returns {base}/{id} with id escaped as a single path segment.
// Dot segments are percent-encoded so they are not resolved against the base.
func (c *Client) itemURL(id entry.ID) (string, error) {
	if id == "" {
		return "", errors.New("entry id is empty")
	}
	seg := url.PathEscape(string(id))
	if seg == "." || seg == ".." {
		seg = strings.ReplaceAll(seg, ".", "%2E")
	}
	return c.base.JoinPath(seg).String(), nil
}

// decodeOne accepts either a single entry object or an array of inserted rows,
// in which case the first row is used.
func decodeOne(raw json.RawMessage) (entry.Entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return entry.Entry{}, nil
	}
	if raw[0] == '[' {
		var rows []entry.Entry
		if err := json.Unmarshal(raw, &rows); err != nil {
			return entry.Entry{}, fmt.Errorf("decode entries: %w", err)
		}
		if len(rows) == 0 {
			return entry.Entry{}, nil
		}
		return rows[0], nil
	}
	var e entry.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry.Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	return e, nil
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request done",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if resp.StatusCode == http.StatusNoContent {
		return fmt.Errorf("decode %s %s: %w", method, target, errEmptyBody)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}
