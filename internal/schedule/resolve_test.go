package schedule

import (
	"testing"
	"time"

	"github.com/five82/lessondesk/internal/roster"
)

// 2026-03-09 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, 3, 9, hour, minute, 30, 0, time.Local)
}

func student(id int64, day roster.Weekday, lesson string) roster.Student {
	return roster.Student{ID: id, FirstName: "S", Weekday: day, LessonTime: lesson}
}

func TestStartMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"16:30-17:45", 990, true},
		{"9:05 - 10:00", 545, true},
		{"ab 14:00", 840, true},
		{"24:00-25:00", 0, false},
		{"12:75", 0, false},
		{"nachmittags", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := StartMinutes(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("StartMinutes(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolve_EmptyAndWrongDay(t *testing.T) {
	if res := Resolve(nil, monday(16, 0), 5); res.Current != nil || res.Next != nil || res.IsWaitingTime {
		t.Fatalf("Resolve(nil) = %#v, want empty", res)
	}
	students := []roster.Student{student(1, roster.Tuesday, "16:00-17:00"), student(2, "", "16:00-17:00")}
	if res := Resolve(students, monday(16, 0), 5); res.Current != nil || res.Next != nil {
		t.Fatalf("Resolve(no Monday students) = %#v, want empty", res)
	}
}

func TestResolve_UnparseableTimesAreIgnored(t *testing.T) {
	students := []roster.Student{student(1, roster.Monday, "tbd"), student(2, roster.Monday, "")}
	if res := Resolve(students, monday(16, 0), 5); res.Current != nil || res.Next != nil {
		t.Fatalf("Resolve = %#v, want empty", res)
	}
}

func TestResolve_OverlapLatestStartedWins(t *testing.T) {
	students := []roster.Student{
		student(1, roster.Monday, "10:00-11:00"),
		student(2, roster.Monday, "11:00-12:00"),
	}
	res := Resolve(students, monday(11, 0), 5)
	if res.Current == nil || res.Current.ID != 2 {
		t.Fatalf("Current = %v, want student 2", res.Current)
	}
	if res.Next != nil {
		t.Fatalf("Next = %v, want none", res.Next)
	}
}

func TestResolve_EarlyWindowPrefersRunningLesson(t *testing.T) {
	students := []roster.Student{
		student(1, roster.Monday, "11:00-12:00"),
		student(2, roster.Monday, "10:00-11:00"),
	}
	// 10:57: student 2 is running, student 1 is in its early window.
	res := Resolve(students, monday(10, 57), 5)
	if res.Current == nil || res.Current.ID != 2 {
		t.Fatalf("Current = %v, want running student 2", res.Current)
	}
	if res.Next == nil || res.Next.ID != 1 || res.MinutesUntilNext != 3 {
		t.Fatalf("Next = %v (%d min), want student 1 in 3 min", res.Next, res.MinutesUntilNext)
	}
}

func TestResolve_EqualStartsKeepRosterOrder(t *testing.T) {
	students := []roster.Student{
		student(1, roster.Monday, "15:00-16:00"),
		student(2, roster.Monday, "15:00-15:30"),
	}
	res := Resolve(students, monday(15, 10), 5)
	if res.Current == nil || res.Current.ID != 1 {
		t.Fatalf("Current = %v, want first listed", res.Current)
	}
}

func TestResolve_EarlyArrivalIsCurrent(t *testing.T) {
	students := []roster.Student{student(1, roster.Monday, "16:00-17:00")}
	res := Resolve(students, monday(15, 57), 5)
	if res.Current == nil || res.Current.ID != 1 {
		t.Fatalf("Current = %v, want student 1", res.Current)
	}
	if res.IsWaitingTime {
		t.Fatalf("IsWaitingTime = true with a current student")
	}
}

func TestResolve_WaitingForNext(t *testing.T) {
	students := []roster.Student{
		student(1, roster.Monday, "18:00-19:00"),
		student(2, roster.Monday, "16:00-17:00"),
		student(3, roster.Monday, "14:00-15:00"),
	}
	res := Resolve(students, monday(15, 40), 5)
	if res.Current != nil {
		t.Fatalf("Current = %v, want none", res.Current)
	}
	if res.Next == nil || res.Next.ID != 2 {
		t.Fatalf("Next = %v, want student 2", res.Next)
	}
	if res.MinutesUntilNext != 20 || !res.IsWaitingTime {
		t.Fatalf("MinutesUntilNext = %d, waiting = %v; want 20, true", res.MinutesUntilNext, res.IsWaitingTime)
	}
}

func TestResolve_WindowEndIsInclusive(t *testing.T) {
	students := []roster.Student{student(1, roster.Monday, "16:00-17:00")}
	if res := Resolve(students, monday(17, 0), 5); res.Current == nil {
		t.Fatalf("17:00 should still be current")
	}
	if res := Resolve(students, monday(17, 1), 5); res.Current != nil || res.Next != nil {
		t.Fatalf("17:01 = %#v, want empty", res)
	}
}

func TestToday(t *testing.T) {
	students := []roster.Student{
		student(1, roster.Monday, "nachmittags"),
		student(2, roster.Monday, "17:00-18:00"),
		student(3, roster.Tuesday, "09:00-10:00"),
		student(4, roster.Monday, "9:30-10:30"),
		student(5, roster.Monday, "12:00-13:00"),
	}
	got := Today(students, monday(8, 0), func(s roster.Student) bool { return s.ID == 5 })
	want := []int64{4, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("Today = %d students, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("Today[%d] = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestCountdown(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
		hours   int
		rest    int
	}{
		{0, "0 min", 0, 0},
		{20, "20 min", 0, 20},
		{59, "59 min", 0, 59},
		{60, "1h", 1, 0},
		{95, "1h 35m", 1, 35},
		{185, "3h 5m", 3, 5},
		{-4, "0 min", 0, 0},
	}
	for _, tt := range tests {
		if got := Countdown(tt.minutes); got != tt.want {
			t.Fatalf("Countdown(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
		h, m := Breakdown(tt.minutes)
		if h != tt.hours || m != tt.rest {
			t.Fatalf("Breakdown(%d) = %d, %d; want %d, %d", tt.minutes, h, m, tt.hours, tt.rest)
		}
	}
}
