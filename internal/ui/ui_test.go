package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/five82/lessondesk/internal/attendance"
	"github.com/five82/lessondesk/internal/prefs"
	"github.com/five82/lessondesk/internal/roster"
	"github.com/five82/lessondesk/internal/state"
	"github.com/five82/lessondesk/internal/storage"
	"github.com/five82/lessondesk/internal/syncq"
)

type fieldUpdate struct {
	id    int64
	field string
	value string
}

type fakeRoster struct {
	students   []roster.Student
	version    uint64
	updates    []fieldUpdate
	failField  string
	refreshErr error
	refreshed  int
	flushed    int
}

func (f *fakeRoster) Snapshot() state.Snapshot {
	return state.Snapshot{
		Students: roster.Clone(f.students),
		Status:   state.StatusSynced,
		Online:   true,
		Version:  f.version,
	}
}

func (f *fakeRoster) UpdateField(id int64, field, value string) error {
	if field == f.failField {
		return errors.New("value rejected")
	}
	if i := roster.Find(f.students, id); i >= 0 {
		f.students[i].Set(field, value)
	}
	f.updates = append(f.updates, fieldUpdate{id, field, value})
	f.version++
	return nil
}

func (f *fakeRoster) Refresh(context.Context) error {
	f.refreshed++
	return f.refreshErr
}

func (f *fakeRoster) Flush(context.Context) syncq.Result {
	f.flushed++
	return syncq.Result{Delivered: 2}
}

// Monday 2026-03-09, 16:10.
var testNow = time.Date(2026, 3, 9, 16, 10, 0, 0, time.Local)

func testStudents() []roster.Student {
	return []roster.Student{
		{ID: 1, FirstName: "Lena", LastName: "Vogel", Weekday: roster.Monday, LessonTime: "16:00 - 17:00",
			Book: "Stick Control", Page: "12", Exercise: "3-4", Payment: roster.PaymentPaid, DrumKit: roster.DrumKitYes},
		{ID: 2, FirstName: "Max", LastName: "Braun", Weekday: roster.Monday, LessonTime: "17:00 - 18:00",
			Page: "5", Payment: roster.PaymentUnpaid, DrumKit: roster.DrumKitNo},
		{ID: 3, FirstName: "Jonas", LastName: "Öztürk", Weekday: roster.Tuesday, LessonTime: "15:00 - 16:00"},
	}
}

func newTestModel(t *testing.T) (Model, *fakeRoster, *attendance.Store) {
	t.Helper()
	r := &fakeRoster{students: testStudents(), version: 1}
	blobs := storage.NewFS(afero.NewMemMapFs(), "/data")
	store := attendance.NewStore(blobs, attendance.WithClock(func() time.Time { return testNow }))
	m := New(Options{
		Roster:       r,
		Attendance:   store,
		PrefsPath:    filepath.Join(t.TempDir(), "prefs.toml"),
		EarlyMinutes: 5,
		Now:          func() time.Time { return testNow },
	})
	return m, r, store
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNew_ResolvesWindowAndSelection(t *testing.T) {
	m, _, _ := newTestModel(t)

	if len(m.today) != 2 {
		t.Fatalf("today = %d students, want 2", len(m.today))
	}
	if m.window.current == nil || m.window.current.ID != 1 {
		t.Fatalf("current = %+v, want student 1", m.window.current)
	}
	if m.window.next == nil || m.window.next.ID != 2 {
		t.Fatalf("next = %+v, want student 2", m.window.next)
	}
	if m.selectedID != 1 {
		t.Fatalf("selectedID = %d, want 1", m.selectedID)
	}
}

func TestAttendanceKeys(t *testing.T) {
	cases := []struct {
		key       string
		want      attendance.Status
		inToday   bool
		wantFocus int64
	}{
		{"a", attendance.Appeared, true, 1},
		{"s", attendance.CancelledByStudent, false, 2},
		{"t", attendance.CancelledByTeacher, false, 2},
		{"f", attendance.NoSchool, false, 2},
		{"n", attendance.NoShow, false, 2},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			m, _, store := newTestModel(t)
			m = send(t, m, runes(tc.key))

			rec, ok := store.Today(1)
			if !ok || rec.Status != tc.want {
				t.Fatalf("record = %+v (%v), want %s", rec, ok, tc.want)
			}
			if got := roster.Find(m.today, 1) >= 0; got != tc.inToday {
				t.Fatalf("student 1 in today = %v, want %v", got, tc.inToday)
			}
			if m.selectedID != tc.wantFocus {
				t.Fatalf("selectedID = %d, want %d", m.selectedID, tc.wantFocus)
			}
			if !strings.Contains(m.flash, tc.want.Label()) {
				t.Fatalf("flash = %q, want it to mention %q", m.flash, tc.want.Label())
			}
		})
	}
}

func TestClearTodayRestoresStudent(t *testing.T) {
	m, _, store := newTestModel(t)
	m = send(t, m, runes("s"))
	if roster.Find(m.today, 1) >= 0 {
		t.Fatalf("cancelled student still listed")
	}

	// Select Lena through the all-students view and clear the record.
	m = send(t, m, runes("A"))
	m.selectedID = 1
	m = send(t, m, runes("x"))

	if _, ok := store.Today(1); ok {
		t.Fatalf("record still present after clear")
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if roster.Find(m.today, 1) < 0 {
		t.Fatalf("student 1 missing from today after clear")
	}
}

func TestFieldKeys(t *testing.T) {
	cases := []struct {
		key       string
		field     string
		wantValue string
	}{
		{"+", roster.FieldPage, roster.StepNumber("12", 1)},
		{"-", roster.FieldPage, roster.StepNumber("12", -1)},
		{"]", roster.FieldExercise, roster.StepRange("3-4", 1)},
		{"[", roster.FieldExercise, roster.StepRange("3-4", -1)},
		{"p", roster.FieldPayment, string(roster.PaymentUnpaid)},
		{"d", roster.FieldDrumKit, string(roster.DrumKitNo)},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			m, r, _ := newTestModel(t)
			m = send(t, m, runes(tc.key))

			if len(r.updates) != 1 {
				t.Fatalf("updates = %d, want 1", len(r.updates))
			}
			got := r.updates[0]
			if got.id != 1 || got.field != tc.field || got.value != tc.wantValue {
				t.Fatalf("update = %+v, want {1 %s %s}", got, tc.field, tc.wantValue)
			}
			if m.flashErr {
				t.Fatalf("flash marked as error: %q", m.flash)
			}
			if v, _ := m.snap.Students[0].Get(tc.field); v != tc.wantValue {
				t.Fatalf("snapshot %s = %q, want %q", tc.field, v, tc.wantValue)
			}
		})
	}
}

func TestFieldKeyErrorShowsFlash(t *testing.T) {
	m, r, _ := newTestModel(t)
	r.failField = roster.FieldPage

	m = send(t, m, runes("+"))

	if !m.flashErr {
		t.Fatalf("flashErr = false, want true")
	}
	if !strings.Contains(m.flash, "value rejected") {
		t.Fatalf("flash = %q, want the error text", m.flash)
	}
}

func TestNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(t, m, runes("j"))
	if m.selectedID != 2 {
		t.Fatalf("after j selectedID = %d, want 2", m.selectedID)
	}
	m = send(t, m, runes("j"))
	if m.selectedID != 2 {
		t.Fatalf("j past the end selectedID = %d, want 2", m.selectedID)
	}
	m = send(t, m, runes("k"))
	if m.selectedID != 1 {
		t.Fatalf("after k selectedID = %d, want 1", m.selectedID)
	}
}

func TestEditForm(t *testing.T) {
	m, r, _ := newTestModel(t)

	m = send(t, m, runes("e"))
	if m.edit == nil {
		t.Fatalf("edit form not opened")
	}
	if m.edit.field() != roster.FieldBook {
		t.Fatalf("first field = %q, want %q", m.edit.field(), roster.FieldBook)
	}

	m = send(t, m,
		runes(" II"),
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyTab},
		runes("Backbeat"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if m.edit != nil {
		t.Fatalf("edit form still open after save")
	}
	want := []fieldUpdate{
		{1, roster.FieldBook, "Stick Control II"},
		{1, roster.FieldSongs, "Backbeat"},
	}
	if len(r.updates) != len(want) {
		t.Fatalf("updates = %+v, want %+v", r.updates, want)
	}
	for i := range want {
		if r.updates[i] != want[i] {
			t.Fatalf("update[%d] = %+v, want %+v", i, r.updates[i], want[i])
		}
	}
}

func TestEditFormCancel(t *testing.T) {
	m, r, _ := newTestModel(t)

	m = send(t, m, runes("e"), runes("xyz"), tea.KeyMsg{Type: tea.KeyEsc})

	if m.edit != nil {
		t.Fatalf("edit form still open after esc")
	}
	if len(r.updates) != 0 {
		t.Fatalf("updates = %+v, want none", r.updates)
	}
	if m.view != viewToday {
		t.Fatalf("view = %v, want today", m.view)
	}
}

func TestEditFormKeepsOpenOnRejectedValue(t *testing.T) {
	m, r, _ := newTestModel(t)
	r.failField = roster.FieldBook

	m = send(t, m, runes("e"), runes("!"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.edit == nil {
		t.Fatalf("edit form closed after rejected value")
	}
	if !m.flashErr {
		t.Fatalf("flashErr = false, want true")
	}
}

func TestCycleThemePersistsPrefs(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(t, m, runes("T"))

	if m.themeName != "Kanagawa" {
		t.Fatalf("themeName = %q, want Kanagawa", m.themeName)
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.Theme != "Kanagawa" || p.Sort != "name" {
		t.Fatalf("prefs = %+v, want Kanagawa/name", p)
	}
}

func TestStudentsViewSortAndFilter(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(t, m, runes("A"))
	if m.view != viewStudents {
		t.Fatalf("view = %v, want students", m.view)
	}
	if len(m.students) != 3 {
		t.Fatalf("students = %d, want 3", len(m.students))
	}

	m = send(t, m, runes("o"))
	if m.sortMode != sortByDay {
		t.Fatalf("sortMode = %v, want day", m.sortMode)
	}
	if m.students[0].ID != 1 || m.students[2].ID != 3 {
		t.Fatalf("day order = %d,%d,%d, want 1,2,3", m.students[0].ID, m.students[1].ID, m.students[2].ID)
	}
	if p, _ := prefs.Load(m.prefsPath); p.Sort != "day" {
		t.Fatalf("persisted sort = %q, want day", p.Sort)
	}

	m = send(t, m, runes("v"))
	if len(m.students) != 1 || m.students[0].ID != 1 {
		t.Fatalf("drum filter kept %d students, want only 1", len(m.students))
	}
}

func TestStudentsViewSearch(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(t, m, runes("A"), runes("/"), runes("brau"))
	if !m.searching {
		t.Fatalf("searching = false, want true")
	}
	if len(m.students) != 1 || m.students[0].ID != 2 {
		t.Fatalf("search result = %+v, want student 2", m.students)
	}
	if m.selectedID != 2 {
		t.Fatalf("selectedID = %d, want 2", m.selectedID)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.searching || len(m.students) != 3 {
		t.Fatalf("after esc searching=%v students=%d, want false/3", m.searching, len(m.students))
	}
}

func TestPollRecomputesOnVersionChange(t *testing.T) {
	m, r, _ := newTestModel(t)

	r.students = append(r.students, roster.Student{ID: 4, FirstName: "Mia", LastName: "Kern",
		Weekday: roster.Monday, LessonTime: "18:00 - 19:00"})
	m = send(t, m, pollMsg(testNow))
	if len(m.today) != 2 {
		t.Fatalf("today = %d without version bump, want 2", len(m.today))
	}

	r.version++
	m = send(t, m, pollMsg(testNow))
	if len(m.today) != 3 {
		t.Fatalf("today = %d after version bump, want 3", len(m.today))
	}
}

func TestRefreshAndFlushCommands(t *testing.T) {
	m, r, _ := newTestModel(t)

	next, cmd := m.Update(runes("r"))
	m = next.(Model)
	if cmd == nil || !m.refreshing {
		t.Fatalf("refresh key did not start a refresh")
	}
	m = send(t, m, cmd())
	if r.refreshed != 1 || m.refreshing {
		t.Fatalf("refreshed = %d refreshing = %v, want 1/false", r.refreshed, m.refreshing)
	}

	r.refreshErr = errors.New("proxy down")
	next, cmd = m.Update(runes("r"))
	m = send(t, next.(Model), cmd())
	if !m.flashErr || !strings.Contains(m.flash, "proxy down") {
		t.Fatalf("flash = %q (err %v), want refresh failure", m.flash, m.flashErr)
	}

	next, cmd = m.Update(runes("S"))
	m = send(t, next.(Model), cmd())
	if r.flushed != 1 {
		t.Fatalf("flushed = %d, want 1", r.flushed)
	}
	if m.flash != "2 übertragen" {
		t.Fatalf("flash = %q, want %q", m.flash, "2 übertragen")
	}
}

func TestQuitAndHelp(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = send(t, m, runes("?"))
	if !m.showHelp {
		t.Fatalf("showHelp = false, want true")
	}
	m = send(t, m, runes("q"))
	if m.showHelp {
		t.Fatalf("any key should close help")
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q did not quit")
	}
}

func TestViewRenders(t *testing.T) {
	m, _, _ := newTestModel(t)
	if got := m.View(); got != "Lade..." {
		t.Fatalf("View before size = %q, want Lade...", got)
	}

	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	out := m.View()
	for _, want := range []string{"lessondesk", "Vogel", "Braun", "Stick Control"} {
		if !strings.Contains(out, want) {
			t.Fatalf("today view missing %q", want)
		}
	}

	m = send(t, m, runes("A"))
	if out := m.View(); !strings.Contains(out, "Öztürk") {
		t.Fatalf("students view missing Öztürk")
	}

	m = send(t, m, runes("?"))
	if out := m.View(); !strings.Contains(out, "Tastenkürzel") {
		t.Fatalf("help view missing title")
	}
}

func TestSortStudentsGermanCollation(t *testing.T) {
	students := []roster.Student{
		{ID: 1, LastName: "Zander"},
		{ID: 2, LastName: "Özdemir"},
		{ID: 3, LastName: "Meyer"},
		{ID: 4, LastName: "Ostermann"},
	}
	sortStudents(students, sortByName, collate.New(language.German, collate.IgnoreCase))

	want := []int64{3, 4, 2, 1}
	for i, id := range want {
		if students[i].ID != id {
			t.Fatalf("position %d = %d (%s), want %d", i, students[i].ID, students[i].LastName, id)
		}
	}
}

func TestFilterStudents(t *testing.T) {
	students := testStudents()
	cases := []struct {
		name  string
		query string
		drums drumFilter
		want  int
	}{
		{"all", "", drumsAll, 3},
		{"name", "lena", drumsAll, 1},
		{"book", "stick", drumsAll, 1},
		{"with kit", "", drumsWith, 1},
		{"without kit", "", drumsWithout, 1},
		{"no match", "zzz", drumsAll, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(filterStudents(students, tc.query, tc.drums)); got != tc.want {
				t.Fatalf("filterStudents(%q, %v) = %d, want %d", tc.query, tc.drums, got, tc.want)
			}
		})
	}
}

func TestSortModeNames(t *testing.T) {
	for _, name := range []string{"name", "day", "payment", "drums"} {
		if got := parseSortMode(name).String(); got != name {
			t.Fatalf("parseSortMode(%q).String() = %q", name, got)
		}
	}
	if got := parseSortMode("bogus"); got != sortByName {
		t.Fatalf("parseSortMode(bogus) = %v, want name", got)
	}
	if got := sortByDrums.next(); got != sortByName {
		t.Fatalf("sortByDrums.next() = %v, want name", got)
	}
}

func TestDescribeFlush(t *testing.T) {
	cases := []struct {
		in     syncq.Result
		online bool
		want   string
	}{
		{syncq.Result{Skipped: true}, true, "Synchronisierung läuft bereits"},
		{syncq.Result{Skipped: true, Remaining: 3}, false, "Offline: 3 Änderung(en) warten"},
		{syncq.Result{}, true, "Keine ausstehenden Änderungen"},
		{syncq.Result{Delivered: 1, Failed: 1, Remaining: 1}, true, "1 übertragen, 1 fehlgeschlagen, 1 ausstehend"},
		{syncq.Result{Dropped: 2}, true, "0 übertragen, 2 verworfen"},
	}
	for _, tc := range cases {
		if got := describeFlush(tc.in, tc.online); got != tc.want {
			t.Fatalf("describeFlush(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatLastSync(t *testing.T) {
	now := time.Date(2026, 3, 9, 16, 0, 0, 0, time.Local)
	cases := []struct {
		last time.Time
		want string
	}{
		{time.Time{}, "nie"},
		{now.Add(-20 * time.Second), "gerade eben"},
		{now.Add(-5 * time.Minute), "vor 5 min"},
		{now.Add(-3 * time.Hour), "vor 3 h"},
		{now.Add(-48 * time.Hour), "07.03. 16:00"},
	}
	for _, tc := range cases {
		if got := formatLastSync(tc.last, now); got != tc.want {
			t.Fatalf("formatLastSync(%v) = %q, want %q", tc.last, got, tc.want)
		}
	}
}

func TestThemes(t *testing.T) {
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, st := range attendance.Statuses() {
			if th.StatusColors[string(st)] == "" {
				t.Fatalf("%s has no color for %s", name, st)
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"  kurz ", 10, "kurz"},
		{"Schlagzeug", 0, "Schlagzeug"},
		{"Schlagzeug", 3, "Sch"},
		{"Schlagzeugunterricht", 10, "Schlagz..."},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}
