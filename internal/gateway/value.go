package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type valueKind uint8

const (
	kindText valueKind = iota
	kindOption
	kindNull
)

// Value is a field write as the backend expects it: free text for text
// fields, an integer option id for single-choice fields, or null to clear.
type Value struct {
	kind   valueKind
	text   string
	option int
}

// Text wraps a free-text value.
func Text(s string) Value { return Value{kind: kindText, text: s} }

// Option wraps a single-choice option id.
func Option(id int) Value { return Value{kind: kindOption, option: id} }

// Null clears the field.
func Null() Value { return Value{kind: kindNull} }

// IsOption reports whether the value is an option id.
func (v Value) IsOption() bool { return v.kind == kindOption }

// IsNull reports whether the value clears the field.
func (v Value) IsNull() bool { return v.kind == kindNull }

// OptionID returns the option id, or 0 for non-option values.
func (v Value) OptionID() int {
	if v.kind != kindOption {
		return 0
	}
	return v.option
}

// Text returns the text payload, or "" for non-text values.
func (v Value) Text() string {
	if v.kind != kindText {
		return ""
	}
	return v.text
}

func (v Value) String() string {
	switch v.kind {
	case kindOption:
		return "#" + strconv.Itoa(v.option)
	case kindNull:
		return "null"
	default:
		return strconv.Quote(v.text)
	}
}

// MarshalJSON encodes options as numbers, text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindOption:
		return []byte(strconv.Itoa(v.option)), nil
	case kindNull:
		return []byte("null"), nil
	default:
		return json.Marshal(v.text)
	}
}

// UnmarshalJSON accepts a string, an integer or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = Null()
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("value must be a string, integer or null: %w", err)
	}
	id, err := n.Int64()
	if err != nil {
		return fmt.Errorf("value must be an integer option id: %w", err)
	}
	*v = Option(int(id))
	return nil
}
