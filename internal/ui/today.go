package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lessondesk/internal/roster"
	"github.com/five82/lessondesk/internal/schedule"
)

const bannerHeight = 6

// renderToday lays out the now/next banner and today's list on the left
// and the selected student's detail on the right.
func (m Model) renderToday(width, height int) string {
	leftWidth := max(width*2/5, 30)
	rightWidth := width - leftWidth
	if rightWidth < 30 {
		leftWidth, rightWidth = width, 0
	}

	banner := m.renderTitledBox("Jetzt", m.renderBanner(leftWidth-2), leftWidth, bannerHeight, false)
	listHeight := max(height-bannerHeight, 3)
	title := fmt.Sprintf("Heute (%d)", len(m.today))
	list := m.renderTitledBox(title, m.renderStudentRows(m.today, leftWidth-2, listHeight-2, false), leftWidth, listHeight, true)
	left := lipgloss.JoinVertical(lipgloss.Left, banner, list)

	if rightWidth == 0 {
		return left
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderDetailBox(rightWidth, height))
}

// renderBanner shows the current lesson, or the next one with a countdown.
func (m Model) renderBanner(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	w := m.window
	var lines []string

	switch {
	case w.current != nil:
		lines = append(lines,
			styles.SuccessText.Render("Jetzt: "+truncate(w.current.FullName(), width-8)),
			styles.MutedText.Render(lessonLine(*w.current)),
		)
		if w.next != nil {
			lines = append(lines, styles.Text.Render(fmt.Sprintf("Danach: %s in %s",
				truncate(w.next.FullName(), width-20), schedule.Countdown(w.minutesUntilNext))))
		}
	case w.waiting:
		lines = append(lines,
			styles.WarningText.Render("Wartezeit"),
			styles.Text.Render(fmt.Sprintf("Nächster: %s in %s",
				truncate(w.next.FullName(), width-20), schedule.Countdown(w.minutesUntilNext))),
			styles.MutedText.Render(lessonLine(*w.next)),
		)
	case len(m.snap.Students) == 0:
		lines = append(lines, styles.MutedText.Render("Keine Schülerdaten"))
	default:
		lines = append(lines, styles.MutedText.Render("Heute keine weiteren Stunden"))
	}
	return strings.Join(lines, "\n")
}

func lessonLine(s roster.Student) string {
	parts := []string{orDash(s.LessonTime)}
	if s.Book != "" {
		parts = append(parts, s.Book)
	}
	if s.Page != "" {
		parts = append(parts, "S. "+s.Page)
	}
	if s.Exercise != "" {
		parts = append(parts, "Üb. "+s.Exercise)
	}
	return strings.Join(parts, " · ")
}

// renderStudentRows renders one line per student with the selection
// highlighted. withDay adds the weekday column used by the all-students view.
func (m Model) renderStudentRows(list []roster.Student, width, height int, withDay bool) string {
	styles := m.theme.Styles()
	if len(list) == 0 {
		return styles.MutedText.Background(lipgloss.Color(m.theme.FocusBg)).Render("Keine Einträge")
	}

	sel := max(roster.Find(list, m.selectedID), 0)
	start := 0
	if height > 0 && sel >= height {
		start = sel - height + 1
	}
	end := len(list)
	if height > 0 {
		end = min(start+height, len(list))
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		s := list[i]
		selected := s.ID == m.selectedID
		bgColor := m.theme.FocusBg
		if selected {
			bgColor = m.theme.SelectionBg
		}
		bg := NewBgStyle(bgColor)
		rowStyles := styles.WithBackground(bgColor)

		var cols []string
		cols = append(cols, bg.Render(padRight(orDash(s.LessonTime), 13), rowStyles.MutedText))
		if withDay {
			cols = append(cols, bg.Render(padRight(orDash(string(s.Weekday)), 11), rowStyles.FaintText))
		}
		nameStyle := rowStyles.Text
		if selected {
			nameStyle = nameStyle.Foreground(lipgloss.Color(m.theme.SelectionText)).Bold(true)
		}
		nameWidth := max(width-lipgloss.Width(strings.Join(cols, ""))-14, 8)
		cols = append(cols, bg.Render(padRight(truncate(s.FullName(), nameWidth), nameWidth), nameStyle))

		if rec, ok := m.attendance.Today(s.ID); ok {
			cols = append(cols, bg.Space()+bg.Render(truncate(rec.Status.Label(), 12), rowStyles.StatusText(string(rec.Status)).Background(lipgloss.Color(bgColor))))
		}
		rows = append(rows, bg.FillLine(strings.Join(cols, ""), width))
	}
	return strings.Join(rows, "\n")
}
