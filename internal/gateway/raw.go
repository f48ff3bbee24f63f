package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/lessondesk/internal/roster"
)

// RawStudent is one row of the students table in the backend's native
// field naming.
type RawStudent struct {
	ID     int64
	Fields map[string]Cell
}

// Cell holds the display text of a row cell. Baserow returns strings,
// numbers, booleans, null, or single-select objects {id, value, color}.
type Cell struct {
	Text     string
	OptionID int
}

// UnmarshalJSON flattens every supported cell shape into text.
func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*c = Cell{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &c.Text)
	case '{':
		var opt struct {
			ID    int    `json:"id"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &opt); err != nil {
			return err
		}
		c.Text = opt.Value
		c.OptionID = opt.ID
		return nil
	case '[':
		// Multi-select and link-row cells: join the display values.
		var items []struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			var inner Cell
			if err := inner.UnmarshalJSON(item.Value); err == nil && inner.Text != "" {
				parts = append(parts, inner.Text)
			}
		}
		c.Text = strings.Join(parts, ", ")
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		c.Text = strconv.FormatBool(b)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		c.Text = n.String()
		return nil
	}
}

// UnmarshalJSON splits the row id from the field cells.
func (r *RawStudent) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	idRaw, ok := fields["id"]
	if !ok {
		return fmt.Errorf("row without id")
	}
	var id int64
	if err := json.Unmarshal(idRaw, &id); err != nil {
		return fmt.Errorf("row id: %w", err)
	}
	r.ID = id
	r.Fields = make(map[string]Cell, len(fields))
	for key, raw := range fields {
		if key == "id" {
			continue
		}
		var cell Cell
		if err := cell.UnmarshalJSON(raw); err != nil {
			// A single odd cell must not hide the whole row.
			continue
		}
		r.Fields[key] = cell
	}
	return nil
}

// Value returns the trimmed text of a cell, or "" when absent.
func (r RawStudent) Value(fieldID string) string {
	return strings.TrimSpace(r.Fields[fieldID].Text)
}

// ToStudent converts the row to the app record using the table's read ids.
func (r RawStudent) ToStudent(table *FieldTable) roster.Student {
	s := roster.Student{ID: r.ID}
	for _, spec := range table.Fields() {
		value := ""
		for _, id := range spec.ReadIDs() {
			if v := r.Value(id); v != "" {
				value = v
				break
			}
		}
		if value == "" {
			value = spec.Default
		}
		s.Set(spec.Name, value)
	}
	if s.Payment == "" {
		s.Payment = roster.PaymentUnknown
	}
	if s.DrumKit == "" {
		s.DrumKit = roster.DrumKitUnknown
	}
	return s
}

// ToStudents converts a batch of rows, skipping rows without a usable id.
func ToStudents(rows []RawStudent, table *FieldTable) []roster.Student {
	out := make([]roster.Student, 0, len(rows))
	for _, row := range rows {
		if row.ID <= 0 {
			continue
		}
		out = append(out, row.ToStudent(table))
	}
	return out
}
