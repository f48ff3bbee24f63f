// Package earnings estimates what a student has paid since the contract
// started.
package earnings

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/five82/lessondesk/internal/roster"
)

var printer = message.NewPrinter(language.German)

// Estimate is the earnings summary for one student.
type Estimate struct {
	Fee    float64
	Start  time.Time
	Months int
	Total  float64
}

// ParseFee reads a monthly fee such as "45", "45,50", "45.50" or "45 €".
func ParseFee(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "EUR"))
	if s == "" {
		return 0, false
	}
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ParseStartDate accepts YYYY-MM-DD and DD.MM.YYYY.
func ParseStartDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02.01.2006", "2.1.2006"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthsSince counts calendar months from start's month through now's
// month, both included. A start in the future yields 0.
func MonthsSince(start, now time.Time) int {
	months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month()) + 1
	if months < 0 {
		return 0
	}
	return months
}

// For computes the estimate for s. It reports false when the fee or the
// start date is missing or unreadable.
func For(s roster.Student, now time.Time) (Estimate, bool) {
	fee, ok := ParseFee(s.MonthlyFee)
	if !ok {
		return Estimate{}, false
	}
	start, ok := ParseStartDate(s.StartDate)
	if !ok {
		return Estimate{Fee: fee}, false
	}
	months := MonthsSince(start, now)
	return Estimate{
		Fee:    fee,
		Start:  start,
		Months: months,
		Total:  float64(months) * fee,
	}, true
}

// MonthlyTotal sums the readable monthly fees of all students.
func MonthlyTotal(students []roster.Student) float64 {
	var sum float64
	for _, s := range students {
		if fee, ok := ParseFee(s.MonthlyFee); ok {
			sum += fee
		}
	}
	return sum
}

// FormatEUR renders v the German way, e.g. "1.234,50 €".
func FormatEUR(v float64) string {
	return printer.Sprintf("%.2f €", v)
}

// FormatMonths renders a month count in German.
func FormatMonths(n int) string {
	if n == 1 {
		return "1 Monat"
	}
	return strconv.Itoa(n) + " Monate"
}
