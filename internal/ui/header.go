package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lessondesk/internal/state"
)

var syncLabels = map[state.Status]string{
	state.StatusLoading: "LADEN",
	state.StatusSynced:  "SYNCHRON",
	state.StatusSyncing: "SYNC...",
	state.StatusOffline: "OFFLINE",
	state.StatusError:   "FEHLER",
}

// renderHeader renders the top bar: logo, sync badge, queue length, last
// sync and clock.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	snap := m.snap
	badgeLabel := syncLabels[snap.Status]
	if badgeLabel == "" {
		badgeLabel = strings.ToUpper(string(snap.Status))
	}

	parts := []string{
		bg.Render("lessondesk", styles.Logo),
		styles.StatusStyle(string(snap.Status)).Render(badgeLabel),
	}

	if snap.QueueLength > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d ausstehend", snap.QueueLength), styles.WarningText))
	}
	if !snap.Online {
		parts = append(parts, bg.Render("keine Verbindung", styles.DangerText))
	}
	parts = append(parts, bg.Render("Sync: "+formatLastSync(snap.LastSync, m.now()), styles.MutedText))
	if m.refreshing {
		parts = append(parts, bg.Render("lädt...", styles.InfoText))
	}

	left := bg.Join(parts, "  ")
	right := bg.Render(m.now().Format("Mon 02.01. 15:04"), styles.FaintText)

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	line := bg.Space() + left + bg.Spaces(gap) + right + bg.Space()
	return bg.FillLine(line, m.width)
}

// renderCommandBar shows the keys of the active view, or the flash message
// when one is pending.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.SurfaceAlt)

	if m.flash != "" {
		style := styles.SuccessText
		if m.flashErr {
			style = styles.DangerText
		}
		return bg.FillLine(bg.Space()+bg.Render(truncate(m.flash, m.width-2), style), m.width)
	}

	var hints [][2]string
	switch {
	case m.edit != nil:
		hints = [][2]string{{"tab", "Feld"}, {"enter", "Speichern"}, {"esc", "Abbrechen"}}
	case m.searching:
		hints = [][2]string{{"enter", "Übernehmen"}, {"esc", "Leeren"}}
	case m.view == viewLogs:
		hints = [][2]string{{"j/k", "Scrollen"}, {"esc", "Heute"}, {"h", "Hilfe"}, {"q", "Beenden"}}
	case m.view == viewStudents:
		hints = [][2]string{
			{"/", "Suchen"},
			{"o", "Sortierung: " + m.sortMode.Label()},
			{"v", "Filter: " + m.drumFilter.Label()},
			{"e", "Bearbeiten"},
			{"esc", "Heute"},
			{"h", "Hilfe"},
		}
	default:
		hints = [][2]string{
			{"a/s/t/f/n", "Anwesenheit"},
			{"+/-", "Seite"},
			{"]/[", "Übung"},
			{"e", "Bearbeiten"},
			{"A", "Alle"},
			{"l", "Protokoll"},
			{"h", "Hilfe"},
			{"q", "Beenden"},
		}
	}

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, bg.Render(h[0], styles.AccentText)+bg.Space()+bg.Render(h[1], styles.MutedText))
	}
	return bg.FillLine(bg.Space()+bg.Join(parts, "   "), m.width)
}

// formatLastSync renders the time since the last successful fetch.
func formatLastSync(last, now time.Time) string {
	if last.IsZero() {
		return "nie"
	}
	d := now.Sub(last)
	switch {
	case d < time.Minute:
		return "gerade eben"
	case d < time.Hour:
		return fmt.Sprintf("vor %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("vor %d h", int(d.Hours()))
	}
	return last.Format("02.01. 15:04")
}

// renderTitledBox draws a box with the title embedded in the top border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor := lipgloss.Color(m.theme.Border)
	bgColor := m.theme.SurfaceAlt
	if focused {
		borderColor = lipgloss.Color(m.theme.BorderFocus)
		bgColor = m.theme.FocusBg
	}
	border := lipgloss.NewStyle().Foreground(borderColor).Background(lipgloss.Color(bgColor))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Text)).Background(lipgloss.Color(bgColor)).Bold(true)
	bg := NewBgStyle(bgColor)

	innerWidth := max(width-2, 1)
	innerHeight := max(height-2, 0)

	label := " " + truncate(title, max(innerWidth-4, 1)) + " "
	fill := max(innerWidth-1-lipgloss.Width(label), 0)
	top := border.Render("┌─") + titleStyle.Render(label) + border.Render(strings.Repeat("─", fill)+"┐")

	lines := strings.Split(content, "\n")
	var b strings.Builder
	b.WriteString(top)
	for i := 0; i < innerHeight; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		if lipgloss.Width(line) > innerWidth {
			line = lipgloss.NewStyle().MaxWidth(innerWidth).Render(line)
		}
		b.WriteString("\n")
		b.WriteString(border.Render("│"))
		b.WriteString(bg.FillLine(line, innerWidth))
		b.WriteString(border.Render("│"))
	}
	b.WriteString("\n")
	b.WriteString(border.Render("└" + strings.Repeat("─", innerWidth) + "┘"))
	return b.String()
}
