package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	Refresh    key.Binding
	Flush      key.Binding

	// View switching
	ViewStudents key.Binding
	ViewLogs     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Attendance
	MarkAppeared key.Binding
	MarkStudent  key.Binding
	MarkTeacher  key.Binding
	MarkNoSchool key.Binding
	MarkNoShow   key.Binding
	ClearToday   key.Binding

	// Student fields
	PageUp       key.Binding
	PageDown     key.Binding
	ExerciseUp   key.Binding
	ExerciseDown key.Binding
	CyclePayment key.Binding
	CycleDrumKit key.Binding
	Edit         key.Binding

	// Students view
	Search     key.Binding
	CycleSort  key.Binding
	DrumFilter key.Binding

	// Edit form
	NextField key.Binding
	PrevField key.Binding
	Confirm   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Beenden"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Hilfe"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Farbschema wechseln"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Zurück zu Heute"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Neu laden"),
		),
		Flush: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Jetzt synchronisieren"),
		),

		ViewStudents: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Alle Schüler"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Protokoll"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Hoch"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Runter"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Anfang"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Ende"),
		),

		MarkAppeared: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Erschienen"),
		),
		MarkStudent: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Vom Schüler abgesagt"),
		),
		MarkTeacher: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Vom Lehrer abgesagt"),
		),
		MarkNoSchool: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Schulfrei"),
		),
		MarkNoShow: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Nicht erschienen"),
		),
		ClearToday: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Eintrag löschen"),
		),

		PageUp: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+/-", "Seite"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("-"),
		),
		ExerciseUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]/[", "Übung"),
		),
		ExerciseDown: key.NewBinding(
			key.WithKeys("["),
		),
		CyclePayment: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Zahlung"),
		),
		CycleDrumKit: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Schlagzeug"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Bearbeiten"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Suchen"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Sortierung"),
		),
		DrumFilter: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Schlagzeugfilter"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Nächstes Feld"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Voriges Feld"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Speichern"),
		),
	}
}
