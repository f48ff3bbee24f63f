package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/collate"

	"github.com/five82/lessondesk/internal/earnings"
	"github.com/five82/lessondesk/internal/roster"
	"github.com/five82/lessondesk/internal/schedule"
)

// sortMode orders the all-students view.
type sortMode int

const (
	sortByName sortMode = iota
	sortByDay
	sortByPayment
	sortByDrums
)

var sortNames = []string{"name", "day", "payment", "drums"}

func parseSortMode(name string) sortMode {
	for i, n := range sortNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return sortMode(i)
		}
	}
	return sortByName
}

// String returns the name stored in the preferences file.
func (s sortMode) String() string {
	if int(s) < 0 || int(s) >= len(sortNames) {
		return sortNames[0]
	}
	return sortNames[s]
}

func (s sortMode) Label() string {
	switch s {
	case sortByDay:
		return "Tag"
	case sortByPayment:
		return "Zahlung"
	case sortByDrums:
		return "Schlagzeug"
	}
	return "Name"
}

func (s sortMode) next() sortMode {
	return sortMode((int(s) + 1) % len(sortNames))
}

// drumFilter narrows the all-students view by drum kit ownership.
type drumFilter int

const (
	drumsAll drumFilter = iota
	drumsWith
	drumsWithout
)

func (f drumFilter) next() drumFilter {
	return (f + 1) % 3
}

func (f drumFilter) Label() string {
	switch f {
	case drumsWith:
		return "mit Schlagzeug"
	case drumsWithout:
		return "ohne Schlagzeug"
	}
	return "alle"
}

func (f drumFilter) keep(s roster.Student) bool {
	kit := roster.ParseDrumKit(string(s.DrumKit))
	switch f {
	case drumsWith:
		return kit == roster.DrumKitYes
	case drumsWithout:
		return kit == roster.DrumKitNo
	}
	return true
}

// filterStudents returns the students matching query and the drum filter.
// The query matches name, book and contact person, case-insensitively.
func filterStudents(students []roster.Student, query string, drums drumFilter) []roster.Student {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]roster.Student, 0, len(students))
	for _, s := range students {
		if !drums.keep(s) {
			continue
		}
		if query != "" {
			hay := strings.ToLower(s.FullName() + " " + s.Book + " " + s.Contact)
			if !strings.Contains(hay, query) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

var (
	paymentRank = map[roster.PaymentStatus]int{
		roster.PaymentUnpaid:  0,
		roster.PaymentUnknown: 1,
		roster.PaymentPayPal:  2,
		roster.PaymentPaid:    3,
	}
	drumRank = map[roster.DrumKit]int{
		roster.DrumKitNo:      0,
		roster.DrumKitUnknown: 1,
		roster.DrumKitYes:     2,
	}
)

// sortStudents orders students in place. Names are compared with German
// collation so umlauts sort next to their base letters; ties on the
// primary key fall back to the name.
func sortStudents(students []roster.Student, mode sortMode, c *collate.Collator) {
	byName := func(a, b roster.Student) int {
		if r := c.CompareString(a.LastName, b.LastName); r != 0 {
			return r
		}
		return c.CompareString(a.FirstName, b.FirstName)
	}
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		switch mode {
		case sortByDay:
			da, db := dayRank(a), dayRank(b)
			if da != db {
				return da < db
			}
			ta, _ := schedule.StartMinutes(a.LessonTime)
			tb, _ := schedule.StartMinutes(b.LessonTime)
			if ta != tb {
				return ta < tb
			}
		case sortByPayment:
			pa := paymentRank[roster.ParsePaymentStatus(string(a.Payment))]
			pb := paymentRank[roster.ParsePaymentStatus(string(b.Payment))]
			if pa != pb {
				return pa < pb
			}
		case sortByDrums:
			ka := drumRank[roster.ParseDrumKit(string(a.DrumKit))]
			kb := drumRank[roster.ParseDrumKit(string(b.DrumKit))]
			if ka != kb {
				return ka < kb
			}
		}
		return byName(a, b) < 0
	})
}

// dayRank puts students without a weekday last.
func dayRank(s roster.Student) int {
	if i := s.Weekday.Index(); i >= 0 {
		return i
	}
	return 99
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.recompute()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.recompute()
	return m, cmd
}

func (m Model) renderStudents(width, height int) string {
	styles := m.theme.Styles()

	leftWidth := max(width/2, 40)
	rightWidth := width - leftWidth
	if rightWidth < 30 {
		leftWidth, rightWidth = width, 0
	}

	var top string
	if m.searching || m.search.Value() != "" {
		top = m.search.View()
	} else {
		top = styles.MutedText.Render(fmt.Sprintf("%d Schüler · Monatlich %s",
			len(m.students), earnings.FormatEUR(earnings.MonthlyTotal(m.students))))
	}
	top = lipgloss.NewStyle().Width(leftWidth).Render(top)

	listHeight := max(height-lipgloss.Height(top), 3)
	title := fmt.Sprintf("Alle Schüler · %s · %s", m.sortMode.Label(), m.drumFilter.Label())
	list := m.renderTitledBox(title, m.renderStudentRows(m.students, leftWidth-2, listHeight-2, true), leftWidth, listHeight, true)
	left := lipgloss.JoinVertical(lipgloss.Left, top, list)

	if rightWidth == 0 {
		return left
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderDetailBox(rightWidth, height))
}
