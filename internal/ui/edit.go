package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lessondesk/internal/roster"
)

// editableFields are the free-text fields reachable from the edit form,
// in tab order.
var editableFields = []string{
	roster.FieldBook,
	roster.FieldPage,
	roster.FieldExercise,
	roster.FieldSongs,
	roster.FieldFocus,
	roster.FieldBook2,
	roster.FieldPage2,
	roster.FieldExercise2,
}

// editForm edits the text fields of one student. Values are kept per
// field while tabbing; only changed fields are written on save.
type editForm struct {
	studentID int64
	name      string
	index     int
	original  map[string]string
	values    map[string]string
	input     textinput.Model
}

func newEditForm(s roster.Student) *editForm {
	f := &editForm{
		studentID: s.ID,
		name:      s.FullName(),
		original:  make(map[string]string, len(editableFields)),
		values:    make(map[string]string, len(editableFields)),
	}
	for _, field := range editableFields {
		v, _ := s.Get(field)
		f.original[field] = v
		f.values[field] = v
	}
	f.input = textinput.New()
	f.input.CharLimit = 1000
	f.input.Width = 50
	f.load()
	return f
}

func (f *editForm) field() string {
	return editableFields[f.index]
}

func (f *editForm) load() {
	f.input.Prompt = padRight(fieldLabel(f.field()), 9) + "> "
	f.input.SetValue(f.values[f.field()])
	f.input.CursorEnd()
}

func (f *editForm) store() {
	f.values[f.field()] = f.input.Value()
}

func (f *editForm) move(delta int) {
	f.store()
	n := len(editableFields)
	f.index = ((f.index+delta)%n + n) % n
	f.load()
}

// changes returns the edited fields in tab order.
func (f *editForm) changes() [][2]string {
	f.store()
	var out [][2]string
	for _, field := range editableFields {
		if strings.TrimSpace(f.values[field]) != strings.TrimSpace(f.original[field]) {
			out = append(out, [2]string{field, strings.TrimSpace(f.values[field])})
		}
	}
	return out
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.edit
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.edit = nil
		m.setFlash("Bearbeitung abgebrochen", false)
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		f.move(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.move(-1)
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.saveEdit()
		return m, nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return m, cmd
}

// saveEdit writes every changed field. The form stays open on the first
// rejected value so it can be corrected.
func (m *Model) saveEdit() {
	f := m.edit
	changes := f.changes()
	if len(changes) == 0 {
		m.edit = nil
		m.setFlash("Keine Änderungen", false)
		return
	}
	for _, c := range changes {
		if err := m.roster.UpdateField(f.studentID, c[0], c[1]); err != nil {
			m.setFlash(fmt.Sprintf("%s: %v", fieldLabel(c[0]), err), true)
			for i, field := range editableFields {
				if field == c[0] {
					f.index = i
					f.load()
					break
				}
			}
			m.snap = m.roster.Snapshot()
			m.recompute()
			return
		}
		f.original[c[0]] = c[1]
	}
	m.edit = nil
	m.setFlash(fmt.Sprintf("%s: %d Feld(er) gespeichert", f.name, len(changes)), false)
	m.snap = m.roster.Snapshot()
	m.recompute()
}

func (m Model) renderEdit(width, height int) string {
	f := m.edit
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	var lines []string
	for i, field := range editableFields {
		label := padRight(fieldLabel(field), 9)
		if i == f.index {
			lines = append(lines, f.input.View())
			continue
		}
		value := f.values[field]
		style := styles.Text
		if strings.TrimSpace(value) != strings.TrimSpace(f.original[field]) {
			style = styles.WarningText
		}
		lines = append(lines, styles.MutedText.Render(label+"  ")+style.Render(truncate(orDash(value), max(width-16, 4))))
	}
	lines = append(lines, "", styles.FaintText.Render("tab/shift+tab Feld wechseln · enter speichern · esc abbrechen"))

	box := m.renderTitledBox("Bearbeiten: "+f.name, strings.Join(lines, "\n"), min(width, 90), min(height, len(lines)+2), true)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, box)
}
