// Package schedule decides which student is in the lesson slot right now and
// who comes next. Everything here is a pure function of the roster and the
// clock.
package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/five82/lessondesk/internal/roster"
)

// LessonMinutes is the nominal lesson length used for the "current" window.
const LessonMinutes = 60

// DefaultEarlyMinutes is how long before the start a lesson counts as current.
const DefaultEarlyMinutes = 5

var startPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// Result is the outcome of Resolve. Current and Next point into the
// slice passed to Resolve.
type Result struct {
	Current          *roster.Student
	Next             *roster.Student
	MinutesUntilNext int
	IsWaitingTime    bool
}

// StartMinutes extracts the first H:MM or HH:MM from a lesson time range
// and returns it as minutes after midnight.
func StartMinutes(timeRange string) (int, bool) {
	m := startPattern.FindStringSubmatch(timeRange)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h > 23 || min > 59 {
		return 0, false
	}
	return h*60 + min, true
}

// MinuteOfDay truncates t to whole minutes after local midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

type slot struct {
	idx   int
	start int
}

// Resolve finds the current and next student for now. A student is current
// from earlyMinutes before the start until LessonMinutes after it. When
// several windows overlap, the latest start not after now wins; if none of
// them has started yet the earliest start wins. Equal starts keep roster
// order.
func Resolve(students []roster.Student, now time.Time, earlyMinutes int) Result {
	if earlyMinutes < 0 {
		earlyMinutes = 0
	}
	nowMin := MinuteOfDay(now)

	var slots []slot
	for i := range students {
		if !students[i].Weekday.On(now) {
			continue
		}
		start, ok := StartMinutes(students[i].LessonTime)
		if !ok {
			continue
		}
		slots = append(slots, slot{idx: i, start: start})
	}
	if len(slots) == 0 {
		return Result{}
	}

	current := -1
	for _, s := range slots {
		if nowMin < s.start-earlyMinutes || nowMin > s.start+LessonMinutes {
			continue
		}
		if current == -1 {
			current = s.idx
			continue
		}
		best, _ := StartMinutes(students[current].LessonTime)
		switch {
		case s.start <= nowMin && (best > nowMin || s.start > best):
			current = s.idx
		case s.start > nowMin && best > nowMin && s.start < best:
			current = s.idx
		}
	}

	next := -1
	bestDiff := 0
	for _, s := range slots {
		if s.idx == current {
			continue
		}
		diff := s.start - nowMin
		if diff < 0 {
			continue
		}
		if next == -1 || diff < bestDiff {
			next = s.idx
			bestDiff = diff
		}
	}

	var res Result
	if current >= 0 {
		res.Current = &students[current]
	}
	if next >= 0 {
		res.Next = &students[next]
		res.MinutesUntilNext = bestDiff
	}
	res.IsWaitingTime = res.Current == nil && res.Next != nil
	return res
}

// Today returns the students scheduled on now's weekday ordered by start
// time; entries without a parseable start come last. Students for which
// skip returns true are left out. A nil skip keeps everyone.
func Today(students []roster.Student, now time.Time, skip func(roster.Student) bool) []roster.Student {
	var out []roster.Student
	for _, s := range students {
		if !s.Weekday.On(now) {
			continue
		}
		if skip != nil && skip(s) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := StartMinutes(out[i].LessonTime)
		b, okB := StartMinutes(out[j].LessonTime)
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		}
		return false
	})
	return out
}

// Breakdown splits minutes into whole hours and the remainder.
func Breakdown(minutes int) (hours, rest int) {
	if minutes < 0 {
		minutes = 0
	}
	return minutes / 60, minutes % 60
}

// Countdown renders minutes as "N min" below an hour and "Hh Mm" above.
func Countdown(minutes int) string {
	h, m := Breakdown(minutes)
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
