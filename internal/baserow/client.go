// Package baserow is a minimal client for the Baserow rows API, used by
// the proxy to read and patch the students table.
package baserow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/lessondesk/internal/gateway"
)

const (
	pageSize       = 200
	maxPages       = 100
	requestTimeout = 10 * time.Second
)

// APIError is a non-success response from Baserow.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("baserow %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("baserow %s: status %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to one table.
type Client struct {
	baseURL *url.URL
	token   string
	tableID string
	http    *http.Client
}

type ctxKey struct{}

// WithRequestID attaches a request id that is forwarded upstream.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// NewClient builds a client for table tableID on the Baserow instance at
// baseURL, authenticating with a database token.
func NewClient(baseURL, token, tableID string) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("baserow base url is required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse baserow url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("baserow url %q must be absolute", baseURL)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("baserow token is required")
	}
	if _, err := strconv.Atoi(tableID); err != nil {
		return nil, fmt.Errorf("baserow table id %q: %w", tableID, err)
	}
	return &Client{
		baseURL: u,
		token:   token,
		tableID: tableID,
		http:    &http.Client{Timeout: requestTimeout},
	}, nil
}

type page struct {
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// ListRows returns every row of the table, following pagination.
func (c *Client) ListRows(ctx context.Context) ([]json.RawMessage, error) {
	next := c.endpoint(fmt.Sprintf("api/database/rows/table/%s/", c.tableID))
	q := next.Query()
	q.Set("size", strconv.Itoa(pageSize))
	next.RawQuery = q.Encode()

	var rows []json.RawMessage
	for pages := 0; next != nil; pages++ {
		if pages >= maxPages {
			return nil, fmt.Errorf("baserow list rows: more than %d pages", maxPages)
		}
		var p page
		if err := c.do(ctx, "list rows", http.MethodGet, next, nil, &p); err != nil {
			return nil, err
		}
		rows = append(rows, p.Results...)

		next = nil
		if p.Next != nil && *p.Next != "" {
			u, err := url.Parse(*p.Next)
			if err != nil {
				return nil, fmt.Errorf("baserow next page %q: %w", *p.Next, err)
			}
			next = c.baseURL.ResolveReference(u)
		}
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return rows, nil
}

// PatchRow sets one field of one row and returns the updated row.
func (c *Client) PatchRow(ctx context.Context, rowID int64, fieldID string, value gateway.Value) (json.RawMessage, error) {
	u := c.endpoint(fmt.Sprintf("api/database/rows/table/%s/%d/", c.tableID, rowID))
	body := map[string]gateway.Value{fieldID: value}
	var row json.RawMessage
	if err := c.do(ctx, "patch row", http.MethodPatch, u, body, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *Client) endpoint(path string) *url.URL {
	base := *c.baseURL
	base.Path = strings.TrimRight(base.Path, "/") + "/" + path
	return &base
}

func (c *Client) do(ctx context.Context, op, method string, u *url.URL, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("baserow %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("baserow %s: decode response: %w", op, err)
	}
	return nil
}
