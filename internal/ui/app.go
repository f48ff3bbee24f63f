package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/five82/lessondesk/internal/attendance"
	"github.com/five82/lessondesk/internal/prefs"
	"github.com/five82/lessondesk/internal/roster"
	"github.com/five82/lessondesk/internal/schedule"
	"github.com/five82/lessondesk/internal/state"
	"github.com/five82/lessondesk/internal/syncq"
)

const (
	defaultPollTick   = time.Second
	defaultWindowTick = time.Minute
	logTailLines      = 500
	statsWindowDays   = 30
)

// Roster is the offline cache as seen by the dashboard.
// *state.Cache satisfies it.
type Roster interface {
	Snapshot() state.Snapshot
	UpdateField(studentID int64, appField, value string) error
	Refresh(ctx context.Context) error
	Flush(ctx context.Context) syncq.Result
}

// Attendance is the attendance log. *attendance.Store satisfies it.
type Attendance interface {
	SetToday(studentID int64, status attendance.Status, note string) attendance.Record
	Today(studentID int64) (attendance.Record, bool)
	CancelledToday(studentID int64) bool
	Remove(studentID int64, date string)
	Stats(studentID int64, windowDays int) attendance.Stats
}

// Options configure the dashboard.
type Options struct {
	Context      context.Context
	Roster       Roster
	Attendance   Attendance
	ThemeName    string
	SortName     string
	PrefsPath    string
	LogPath      string
	EarlyMinutes int
	PollTick     time.Duration // snapshot refresh; zero selects 1s
	WindowTick   time.Duration // now/next recompute; zero selects 60s
	Now          func() time.Time
}

type view int

const (
	viewToday view = iota
	viewStudents
	viewLogs
)

// window is the resolved now/next state. Students are copies.
type window struct {
	current          *roster.Student
	next             *roster.Student
	minutesUntilNext int
	waiting          bool
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	ctx        context.Context
	roster     Roster
	attendance Attendance
	keys       keyMap
	theme      Theme
	themeName  string
	prefsPath  string
	logPath    string
	early      int
	pollTick   time.Duration
	windowTick time.Duration
	now        func() time.Time
	collator   *collate.Collator

	width  int
	height int
	ready  bool

	view     view
	showHelp bool

	snap   state.Snapshot
	window window
	today  []roster.Student

	// Selection is tracked by id so it survives roster refreshes.
	selectedID int64

	// All-students view
	students   []roster.Student
	search     textinput.Model
	searching  bool
	sortMode   sortMode
	drumFilter drumFilter

	edit *editForm

	logs     viewport.Model
	logLines []string
	logErr   error

	refreshing bool
	flushing   bool
	flash      string
	flashErr   bool
}

// Messages

type pollMsg time.Time

type windowMsg time.Time

type refreshDoneMsg struct{ err error }

type flushDoneMsg struct{ result syncq.Result }

type logsMsg struct {
	lines []string
	err   error
}

// New creates a new dashboard model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = defaultPollTick
	}
	windowTick := opts.WindowTick
	if windowTick <= 0 {
		windowTick = defaultWindowTick
	}
	early := opts.EarlyMinutes
	if early < 0 {
		early = schedule.DefaultEarlyMinutes
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Name, Buch, Ansprechpartner"
	search.CharLimit = 64

	m := Model{
		ctx:        ctx,
		roster:     opts.Roster,
		attendance: opts.Attendance,
		keys:       DefaultKeyMap(),
		theme:      GetTheme(opts.ThemeName),
		themeName:  GetTheme(opts.ThemeName).Name,
		prefsPath:  opts.PrefsPath,
		logPath:    opts.LogPath,
		early:      early,
		pollTick:   pollTick,
		windowTick: windowTick,
		now:        now,
		collator:   collate.New(language.German, collate.IgnoreCase),
		search:     search,
		sortMode:   parseSortMode(opts.SortName),
	}
	m.snap = m.roster.Snapshot()
	m.recompute()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		pollCmd(m.pollTick),
		windowCmd(m.windowTick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := max(m.height-4, 1)
		if !m.ready {
			m.logs = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.logs.Width = m.width
			m.logs.Height = vpHeight
		}
		m.search.Width = max(m.width/3, 10)
		m.updateLogContent()
		return m, nil

	case pollMsg:
		cmds := []tea.Cmd{pollCmd(m.pollTick)}
		snap := m.roster.Snapshot()
		changed := snap.Version != m.snap.Version
		m.snap = snap
		if changed {
			m.recompute()
		}
		if m.view == viewLogs {
			cmds = append(cmds, m.loadLogsCmd())
		}
		return m, tea.Batch(cmds...)

	case windowMsg:
		m.recompute()
		return m, windowCmd(m.windowTick)

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			m.setFlash(fmt.Sprintf("Aktualisierung fehlgeschlagen: %v", msg.err), true)
		} else {
			m.setFlash("Schülerliste aktualisiert", false)
		}
		m.snap = m.roster.Snapshot()
		m.recompute()
		return m, nil

	case flushDoneMsg:
		m.flushing = false
		m.snap = m.roster.Snapshot()
		m.setFlash(describeFlush(msg.result, m.snap.Online), msg.result.Failed > 0 || msg.result.Dropped > 0)
		m.recompute()
		return m, nil

	case logsMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.updateLogContent()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.edit != nil {
		return m.handleEditKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.themeName = NextTheme(m.themeName)
		m.theme = GetTheme(m.themeName)
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Flush):
		if m.flushing {
			return m, nil
		}
		m.flushing = true
		return m, m.flushCmd()

	case key.Matches(msg, m.keys.Escape):
		m.view = viewToday
		m.flash = ""
		m.recompute()
		return m, nil

	case key.Matches(msg, m.keys.ViewStudents):
		m.view = viewStudents
		m.recompute()
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.view = viewLogs
		return m, m.loadLogsCmd()
	}

	switch m.view {
	case viewLogs:
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	case viewStudents:
		if key.Matches(msg, m.keys.Search) {
			m.searching = true
			return m, m.search.Focus()
		}
		if key.Matches(msg, m.keys.CycleSort) {
			m.sortMode = m.sortMode.next()
			m.recompute()
			m.savePrefs()
			return m, nil
		}
		if key.Matches(msg, m.keys.DrumFilter) {
			m.drumFilter = m.drumFilter.next()
			m.recompute()
			return m, nil
		}
	}

	return m.handleStudentKey(msg)
}

// handleStudentKey handles navigation and actions on the selected student
// in the today and all-students views.
func (m Model) handleStudentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.list()

	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(list, 1)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(list, -1)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		if len(list) > 0 {
			m.selectedID = list[0].ID
		}
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		if len(list) > 0 {
			m.selectedID = list[len(list)-1].ID
		}
		return m, nil
	}

	s, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.MarkAppeared):
		m.markAttendance(s, attendance.Appeared)
	case key.Matches(msg, m.keys.MarkStudent):
		m.markAttendance(s, attendance.CancelledByStudent)
	case key.Matches(msg, m.keys.MarkTeacher):
		m.markAttendance(s, attendance.CancelledByTeacher)
	case key.Matches(msg, m.keys.MarkNoSchool):
		m.markAttendance(s, attendance.NoSchool)
	case key.Matches(msg, m.keys.MarkNoShow):
		m.markAttendance(s, attendance.NoShow)
	case key.Matches(msg, m.keys.ClearToday):
		m.attendance.Remove(s.ID, attendance.DateKey(m.now()))
		m.setFlash(s.FullName()+": Eintrag gelöscht", false)
		m.recompute()

	case key.Matches(msg, m.keys.PageUp):
		m.updateField(s, roster.FieldPage, roster.StepNumber(s.Page, 1))
	case key.Matches(msg, m.keys.PageDown):
		m.updateField(s, roster.FieldPage, roster.StepNumber(s.Page, -1))
	case key.Matches(msg, m.keys.ExerciseUp):
		m.updateField(s, roster.FieldExercise, roster.StepRange(s.Exercise, 1))
	case key.Matches(msg, m.keys.ExerciseDown):
		m.updateField(s, roster.FieldExercise, roster.StepRange(s.Exercise, -1))
	case key.Matches(msg, m.keys.CyclePayment):
		m.updateField(s, roster.FieldPayment, string(s.Payment.Next()))
	case key.Matches(msg, m.keys.CycleDrumKit):
		m.updateField(s, roster.FieldDrumKit, string(s.DrumKit.Next()))

	case key.Matches(msg, m.keys.Edit):
		m.edit = newEditForm(s)
		return m, m.edit.input.Focus()
	}
	return m, nil
}

func (m *Model) markAttendance(s roster.Student, status attendance.Status) {
	m.attendance.SetToday(s.ID, status, "")
	m.setFlash(s.FullName()+": "+status.Label(), false)
	m.recompute()
}

// updateField writes one field through the cache. The cache applies the
// change before any network call, so the snapshot is re-read right away.
func (m *Model) updateField(s roster.Student, field, value string) {
	if err := m.roster.UpdateField(s.ID, field, value); err != nil {
		m.setFlash(fmt.Sprintf("%s: %v", s.FullName(), err), true)
		return
	}
	m.setFlash(fmt.Sprintf("%s: %s = %s", s.FullName(), fieldLabel(field), orDash(value)), false)
	m.snap = m.roster.Snapshot()
	m.recompute()
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{Theme: m.themeName, Sort: m.sortMode.String()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.setFlash(fmt.Sprintf("Einstellungen nicht gespeichert: %v", err), true)
	}
}

// recompute derives the now/next window, the today list and the filtered
// all-students list from the current snapshot and attendance log.
func (m *Model) recompute() {
	now := m.now()
	m.today = schedule.Today(m.snap.Students, now, func(s roster.Student) bool {
		return m.attendance.CancelledToday(s.ID)
	})
	res := schedule.Resolve(m.today, now, m.early)
	m.window = window{
		current:          copyStudent(res.Current),
		next:             copyStudent(res.Next),
		minutesUntilNext: res.MinutesUntilNext,
		waiting:          res.IsWaitingTime,
	}
	m.students = filterStudents(m.snap.Students, m.search.Value(), m.drumFilter)
	sortStudents(m.students, m.sortMode, m.collator)
	m.ensureSelection()
}

func copyStudent(s *roster.Student) *roster.Student {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// list returns the students of the active view.
func (m Model) list() []roster.Student {
	if m.view == viewStudents {
		return m.students
	}
	return m.today
}

// ensureSelection keeps the selection inside the active list, falling back
// to the current lesson, then the next one, then the first entry.
func (m *Model) ensureSelection() {
	list := m.list()
	if roster.Find(list, m.selectedID) >= 0 {
		return
	}
	m.selectedID = 0
	if m.view == viewToday {
		switch {
		case m.window.current != nil:
			m.selectedID = m.window.current.ID
			return
		case m.window.next != nil:
			m.selectedID = m.window.next.ID
			return
		}
	}
	if len(list) > 0 {
		m.selectedID = list[0].ID
	}
}

func (m *Model) moveSelection(list []roster.Student, delta int) {
	if len(list) == 0 {
		return
	}
	i := roster.Find(list, m.selectedID)
	if i < 0 {
		m.selectedID = list[0].ID
		return
	}
	i = min(max(i+delta, 0), len(list)-1)
	m.selectedID = list[i].ID
}

// selected returns the selected student from the snapshot.
func (m Model) selected() (roster.Student, bool) {
	list := m.list()
	i := roster.Find(list, m.selectedID)
	if i < 0 {
		return roster.Student{}, false
	}
	return list[i], true
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Lade..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) renderMain() string {
	header := m.renderHeader()
	commandBar := m.renderCommandBar()

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(commandBar), 1)

	var content string
	switch {
	case m.edit != nil:
		content = m.renderEdit(m.width, contentHeight)
	case m.view == viewStudents:
		content = m.renderStudents(m.width, contentHeight)
	case m.view == viewLogs:
		content = m.renderLogs(m.width, contentHeight)
	default:
		content = m.renderToday(m.width, contentHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, commandBar, content)
}

// Commands

func pollCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func windowCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return windowMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, r := m.ctx, m.roster
	return func() tea.Msg {
		return refreshDoneMsg{err: r.Refresh(ctx)}
	}
}

func (m Model) flushCmd() tea.Cmd {
	ctx, r := m.ctx, m.roster
	return func() tea.Msg {
		return flushDoneMsg{result: r.Flush(ctx)}
	}
}

func describeFlush(r syncq.Result, online bool) string {
	switch {
	case r.Skipped && !online:
		return fmt.Sprintf("Offline: %d Änderung(en) warten", r.Remaining)
	case r.Skipped:
		return "Synchronisierung läuft bereits"
	case r.Delivered == 0 && r.Failed == 0 && r.Dropped == 0:
		return "Keine ausstehenden Änderungen"
	}
	msg := fmt.Sprintf("%d übertragen", r.Delivered)
	if r.Failed > 0 {
		msg += fmt.Sprintf(", %d fehlgeschlagen", r.Failed)
	}
	if r.Dropped > 0 {
		msg += fmt.Sprintf(", %d verworfen", r.Dropped)
	}
	if r.Remaining > 0 {
		msg += fmt.Sprintf(", %d ausstehend", r.Remaining)
	}
	return msg
}

// Run starts the dashboard and blocks until the user quits or the context
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, progOpts...)
	_, err := p.Run()
	if err != nil && opts.Context != nil && opts.Context.Err() != nil {
		// Shutdown by signal is a normal exit.
		return nil
	}
	return err
}
