package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StudentGateway is the remote side of the roster: fetch every row, patch
// one field. It is implemented by *Client and faked in tests.
type StudentGateway interface {
	FetchAllStudents(ctx context.Context) ([]RawStudent, error)
	PatchField(ctx context.Context, studentID int64, fieldName string, value Value) (*RawStudent, error)
}

// Ensure Client implements StudentGateway at compile time.
var _ StudentGateway = (*Client)(nil)

// Client talks to the lessondesk proxy in front of the spreadsheet backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8787"
	defaultUserAgent = "lessondesk/0.1"
	requestTimeout   = 5 * time.Second
)

// NewClient builds a Client for the proxy at apiURL (host:port or URL).
func NewClient(apiURL string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchAllStudents retrieves every roster row.
func (c *Client) FetchAllStudents(ctx context.Context) ([]RawStudent, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var rows []RawStudent
	if err := c.do(ctx, "fetch students", http.MethodGet, "/api/students", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

type patchRequest struct {
	StudentID int64  `json:"studentId"`
	FieldName string `json:"fieldName"`
	Value     Value  `json:"value"`
}

// PatchField writes one backend column of one row and returns the updated row.
func (c *Client) PatchField(ctx context.Context, studentID int64, fieldName string, value Value) (*RawStudent, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if studentID <= 0 {
		return nil, &ValidationError{Field: fieldName, Reason: "student id must be positive"}
	}
	body := patchRequest{StudentID: studentID, FieldName: fieldName, Value: value}
	var row RawStudent
	op := fmt.Sprintf("patch student %d %s", studentID, fieldName)
	if err := c.do(ctx, op, http.MethodPatch, "/api/students", body, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// Ping checks that the proxy answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("api %s returned status %d", path, resp.StatusCode)}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
