package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lessondesk/internal/logtail"
)

func (m Model) loadLogsCmd() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logsMsg{lines: lines, err: err}
	}
}

// updateLogContent re-renders the log lines into the viewport and keeps
// following the tail when the view was already at the bottom.
func (m *Model) updateLogContent() {
	if !m.ready {
		return
	}
	follow := m.logs.AtBottom() || m.logs.TotalLineCount() == 0
	m.logs.SetContent(m.formatLogs())
	if follow {
		m.logs.GotoBottom()
	}
}

func (m Model) formatLogs() string {
	styles := m.theme.Styles()
	if m.logErr != nil {
		return styles.DangerText.Render("Protokoll nicht lesbar: " + m.logErr.Error())
	}
	if len(m.logLines) == 0 {
		return styles.MutedText.Render("Noch keine Protokolleinträge")
	}

	var b strings.Builder
	for i, line := range m.logLines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.formatLogLine(line))
	}
	return b.String()
}

func (m Model) formatLogLine(line string) string {
	styles := m.theme.Styles()
	e := logtail.Parse(line)

	msgStyle := styles.Text
	switch e.Level {
	case logtail.LevelError:
		msgStyle = styles.DangerText
	case logtail.LevelWarn:
		msgStyle = styles.WarningText
	}
	if e.Time == "" {
		return msgStyle.Render(e.Message)
	}
	return styles.FaintText.Render(e.Time) + " " + msgStyle.Render(e.Message)
}

func (m Model) renderLogs(width, height int) string {
	title := "Protokoll"
	if m.logPath != "" {
		title += " · " + truncate(m.logPath, max(width-20, 10))
	}
	return m.renderTitledBox(title, m.logs.View(), width, height, true)
}
