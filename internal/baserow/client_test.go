package baserow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/five82/lessondesk/internal/gateway"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name, url, token, table string
	}{
		{"no url", "", "t", "831"},
		{"relative url", "baserow.local", "t", "831"},
		{"no token", "https://baserow.example", " ", "831"},
		{"bad table", "https://baserow.example", "t", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.url, tt.token, tt.table); err == nil {
				t.Fatalf("NewClient(%q, %q, %q) returned nil error", tt.url, tt.token, tt.table)
			}
		})
	}
}

func TestListRows_FollowsPages(t *testing.T) {
	var server *httptest.Server
	var gotAuth, gotSize string
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/database/rows/table/831/" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "":
			gotSize = r.URL.Query().Get("size")
			fmt.Fprintf(w, `{"count": 3, "next": "%s/api/database/rows/table/831/?page=2&size=200", "results": [{"id": 1}, {"id": 2}]}`, server.URL)
		case "2":
			_, _ = w.Write([]byte(`{"count": 3, "next": null, "results": [{"id": 3}]}`))
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/", "secret", "831")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	rows, err := c.ListRows(context.Background())
	if err != nil {
		t.Fatalf("ListRows returned error: %v", err)
	}
	if len(rows) != 3 || string(rows[2]) != `{"id": 3}` {
		t.Fatalf("rows = %s, want three rows", rows)
	}
	if gotAuth != "Token secret" {
		t.Fatalf("Authorization = %q, want Token secret", gotAuth)
	}
	if gotSize != "200" {
		t.Fatalf("size = %q, want 200", gotSize)
	}
}

func TestPatchRow(t *testing.T) {
	var gotBody map[string]json.RawMessage
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/database/rows/table/831/42/" {
			http.Error(w, "unexpected", http.StatusBadRequest)
			return
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"id": 42, "field_7841": {"id": 3198, "value": "ja"}}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "secret", "831")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	row, err := c.PatchRow(ctx, 42, "field_7841", gateway.Option(3198))
	if err != nil {
		t.Fatalf("PatchRow returned error: %v", err)
	}
	if !strings.Contains(string(row), `"id": 42`) {
		t.Fatalf("row = %s", row)
	}
	if string(gotBody["field_7841"]) != "3198" {
		t.Fatalf("body = %v, want field_7841: 3198", gotBody)
	}
	if gotRequestID != "req-1" {
		t.Fatalf("X-Request-ID = %q, want req-1", gotRequestID)
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error": "ERROR_INVALID_TOKEN"}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "bad", "831")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.ListRows(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || !strings.Contains(apiErr.Body, "INVALID_TOKEN") {
		t.Fatalf("ListRows error = %v, want APIError 401", err)
	}
}
