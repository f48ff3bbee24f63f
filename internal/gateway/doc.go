// Package gateway is the client side of the spreadsheet backend.
//
// # Overview
//
// The dashboard never talks to the spreadsheet service directly. All reads
// and writes go through the lessondesk proxy, which holds the API token and
// enforces a field allow-list. This package provides:
//
//   - Client: HTTP client for the proxy (GET/PATCH /api/students, /health)
//   - RawStudent and Cell: tolerant decoding of backend rows
//   - FieldTable: the single mapping from app field names to backend
//     columns, including the option ids of single-choice fields
//   - Value: a write payload that is text, an option id, or null
//
// # Field Table
//
// The table ships embedded (fields.toml) and can be replaced by a file named
// in the client config. Both the client and the proxy build their view of
// the schema from it, so there is exactly one place where a column id or an
// option id is declared:
//
//	table := gateway.DefaultFieldTable()
//	w, err := table.Prepare(42, "zahlungStatus", "Paypal")
//	// w.FieldID == "field_7841", w.Value == gateway.Option(3241)
//
// Prepare rejects unknown or read-only fields with *UnmappedFieldError and
// malformed values with *ValidationError before anything is queued.
//
// # Error Handling
//
// Transport failures and non-2xx responses surface as *NetworkError. The
// client applies a 5 second timeout per request; a timeout is reported the
// same way as any other network failure.
package gateway
