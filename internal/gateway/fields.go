package gateway

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/text/unicode/norm"
)

// MaxTextLength is the longest free-text value the backend accepts.
const MaxTextLength = 1000

//go:embed fields.toml
var defaultFieldsTOML []byte

var validate = validator.New()

// FieldKind tells how a field is written.
type FieldKind string

// Field kinds.
const (
	KindText     FieldKind = "text"
	KindChoice   FieldKind = "choice"
	KindReadonly FieldKind = "readonly"
)

// FieldSpec maps one app field onto a backend column.
type FieldSpec struct {
	Name    string         `toml:"-"`
	ID      string         `toml:"id"`
	Kind    FieldKind      `toml:"kind"`
	Read    []string       `toml:"read"`
	Default string         `toml:"default"`
	Options map[string]int `toml:"options"`
}

// Writable reports whether the field may be patched.
func (f FieldSpec) Writable() bool {
	return f.Kind == KindText || f.Kind == KindChoice
}

// ReadIDs returns the columns consulted when decoding, in priority order.
func (f FieldSpec) ReadIDs() []string {
	if len(f.Read) == 0 {
		return []string{f.ID}
	}
	return f.Read
}

// Option resolves a choice label. Exact matches win over case-insensitive
// ones; the canonical label is returned alongside the id.
func (f FieldSpec) Option(label string) (string, int, bool) {
	label = strings.TrimSpace(label)
	if id, ok := f.Options[label]; ok {
		return label, id, true
	}
	for name, id := range f.Options {
		if strings.EqualFold(name, label) {
			return name, id, true
		}
	}
	return "", 0, false
}

// Labels returns the choice labels sorted by option id.
func (f FieldSpec) Labels() []string {
	labels := make([]string, 0, len(f.Options))
	for name := range f.Options {
		labels = append(labels, name)
	}
	sort.Slice(labels, func(i, j int) bool { return f.Options[labels[i]] < f.Options[labels[j]] })
	return labels
}

// FieldTable is the single source of truth for app → backend field names
// and option ids. It is immutable after construction.
type FieldTable struct {
	byName map[string]FieldSpec
	byID   map[string]FieldSpec
}

// Write is a validated, translated field write ready for the queue.
type Write struct {
	AppField string
	FieldID  string
	Value    Value
	Display  string // app-level value applied to the local roster
}

type textWrite struct {
	StudentID int64  `validate:"gt=0"`
	Value     string `validate:"max=1000"`
}

type choiceWrite struct {
	StudentID int64 `validate:"gt=0"`
	OptionID  int   `validate:"gt=0"`
}

var defaultTable = mustParseFieldTable(defaultFieldsTOML)

// DefaultFieldTable returns the built-in mapping for the students table.
func DefaultFieldTable() *FieldTable {
	return defaultTable
}

// LoadFieldTable reads a TOML mapping from path. An empty path selects the
// built-in table.
func LoadFieldTable(path string) (*FieldTable, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultFieldTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field table: %w", err)
	}
	return ParseFieldTable(data)
}

// ParseFieldTable decodes and checks a TOML mapping.
func ParseFieldTable(data []byte) (*FieldTable, error) {
	var raw struct {
		Fields map[string]FieldSpec `toml:"fields"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse field table: %w", err)
	}
	if len(raw.Fields) == 0 {
		return nil, fmt.Errorf("field table is empty")
	}

	t := &FieldTable{
		byName: make(map[string]FieldSpec, len(raw.Fields)),
		byID:   make(map[string]FieldSpec),
	}
	for name, spec := range raw.Fields {
		spec.Name = norm.NFC.String(strings.TrimSpace(name))
		spec.ID = strings.TrimSpace(spec.ID)
		if spec.ID == "" {
			return nil, fmt.Errorf("field %q: id is required", name)
		}
		switch spec.Kind {
		case KindText, KindReadonly:
		case KindChoice:
			if len(spec.Options) == 0 {
				return nil, fmt.Errorf("field %q: choice field without options", name)
			}
			for label, id := range spec.Options {
				if id <= 0 {
					return nil, fmt.Errorf("field %q: option %q has non-positive id %d", name, label, id)
				}
			}
		default:
			return nil, fmt.Errorf("field %q: unknown kind %q", name, spec.Kind)
		}
		if spec.Writable() {
			if other, dup := t.byID[spec.ID]; dup {
				return nil, fmt.Errorf("fields %q and %q both write %s", other.Name, spec.Name, spec.ID)
			}
			t.byID[spec.ID] = spec
		}
		t.byName[spec.Name] = spec
	}
	return t, nil
}

func mustParseFieldTable(data []byte) *FieldTable {
	t, err := ParseFieldTable(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the field for an app field name.
func (t *FieldTable) Lookup(appField string) (FieldSpec, bool) {
	spec, ok := t.byName[norm.NFC.String(strings.TrimSpace(appField))]
	return spec, ok
}

// ByID returns the field owning a backend column.
func (t *FieldTable) ByID(fieldID string) (FieldSpec, bool) {
	spec, ok := t.byID[strings.TrimSpace(fieldID)]
	return spec, ok
}

// Fields returns every field sorted by app field name.
func (t *FieldTable) Fields() []FieldSpec {
	out := make([]FieldSpec, 0, len(t.byName))
	for _, spec := range t.byName {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Prepare validates a write and translates it to the backend's naming.
func (t *FieldTable) Prepare(studentID int64, appField, value string) (Write, error) {
	spec, ok := t.Lookup(appField)
	if !ok || !spec.Writable() {
		return Write{}, &UnmappedFieldError{Field: appField}
	}

	switch spec.Kind {
	case KindChoice:
		label, id, found := spec.Option(value)
		if !found {
			return Write{}, &ValidationError{
				Field:  spec.Name,
				Reason: fmt.Sprintf("unknown option %q (want one of %s)", value, strings.Join(spec.Labels(), ", ")),
			}
		}
		if err := validate.Struct(choiceWrite{StudentID: studentID, OptionID: id}); err != nil {
			return Write{}, validationError(spec.Name, err)
		}
		return Write{AppField: spec.Name, FieldID: spec.ID, Value: Option(id), Display: label}, nil
	default:
		if err := validate.Struct(textWrite{StudentID: studentID, Value: value}); err != nil {
			return Write{}, validationError(spec.Name, err)
		}
		return Write{AppField: spec.Name, FieldID: spec.ID, Value: Text(value), Display: value}, nil
	}
}

// CheckValue verifies that v has the shape the column expects. The proxy
// runs it against incoming patches.
func (f FieldSpec) CheckValue(v Value) error {
	if v.IsNull() {
		return nil
	}
	switch f.Kind {
	case KindChoice:
		if !v.IsOption() || v.OptionID() <= 0 {
			return &ValidationError{Field: f.Name, Reason: "choice field expects a positive option id"}
		}
	case KindText:
		if v.IsOption() {
			return &ValidationError{Field: f.Name, Reason: "text field expects a string"}
		}
		if err := validate.Var(v.Text(), "max=1000"); err != nil {
			return &ValidationError{Field: f.Name, Reason: fmt.Sprintf("text longer than %d characters", MaxTextLength), Err: err}
		}
	default:
		return &UnmappedFieldError{Field: f.Name}
	}
	return nil
}
