package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Ansichten",
			items: []helpItem{
				{"esc", "Heute"},
				{"A", "Alle Schüler"},
				{"l", "Protokoll"},
				{"j/k", "Auswahl bewegen"},
				{"g/G", "Anfang/Ende"},
			},
		},
		{
			title: "Anwesenheit (heute)",
			items: []helpItem{
				{"a", "Erschienen"},
				{"s", "Vom Schüler abgesagt"},
				{"t", "Vom Lehrer abgesagt"},
				{"f", "Schulfrei"},
				{"n", "Nicht erschienen"},
				{"x", "Eintrag löschen"},
			},
		},
		{
			title: "Schüler",
			items: []helpItem{
				{"+/-", "Seite vor/zurück"},
				{"]/[", "Übung vor/zurück"},
				{"p", "Zahlungsstatus wechseln"},
				{"d", "Schlagzeug wechseln"},
				{"e", "Textfelder bearbeiten"},
				{"/", "Suchen (Alle Schüler)"},
				{"o", "Sortierung (Alle Schüler)"},
				{"v", "Schlagzeugfilter"},
			},
		},
		{
			title: "Allgemein",
			items: []helpItem{
				{"r", "Schülerliste neu laden"},
				{"S", "Änderungen jetzt senden"},
				{"T", "Farbschema wechseln"},
				{"h/?", "Hilfe"},
				{"q/ctrl+c", "Beenden"},
			},
		},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Tastenkürzel"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 34)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
