package roster

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var rangePattern = regexp.MustCompile(`^\s*(\d+)\s*(?:-\s*(\d+))?\s*$`)

// StepNumber adds delta to a numeric page value. Blank or non-numeric
// values count as zero; the result never drops below 1.
func StepNumber(value string, delta int) string {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		n = 0
	}
	n += delta
	if n < 1 {
		n = 1
	}
	return strconv.Itoa(n)
}

// StepRange shifts an exercise value such as "3" or "3-5" by delta, keeping
// the width of the range. Values that are not a number or range restart at 1.
func StepRange(value string, delta int) string {
	m := rangePattern.FindStringSubmatch(value)
	if m == nil {
		return StepNumber("", delta)
	}
	from, _ := strconv.Atoi(m[1])
	to := from
	if m[2] != "" {
		to, _ = strconv.Atoi(m[2])
	}
	if to < from {
		from, to = to, from
	}
	width := to - from
	from += delta
	if from < 1 {
		from = 1
	}
	if width == 0 {
		return strconv.Itoa(from)
	}
	return fmt.Sprintf("%d-%d", from, from+width)
}

// WhatsAppLink builds a wa.me link for a phone number. German mobile numbers
// written with a leading 015/016/017 are rewritten to the 49 country code.
func WhatsAppLink(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	number := b.String()
	if number == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(number, "015"), strings.HasPrefix(number, "016"), strings.HasPrefix(number, "017"):
		number = "49" + number[1:]
	case strings.HasPrefix(number, "+"):
		number = number[1:]
	}
	return "https://wa.me/" + number
}

// MailtoLink returns a mailto: link, or "" for a blank address.
func MailtoLink(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	return "mailto:" + email
}
