package attendance

import "strings"

// Status is the recorded outcome of a lesson.
type Status string

// Current statuses.
const (
	Appeared           Status = "erschienen"
	CancelledByStudent Status = "vom_schueler_abgesagt"
	CancelledByTeacher Status = "vom_lehrer_abgesagt"
	NoSchool           Status = "schulfrei"
	NoShow             Status = "nicht_erschienen"
)

// Legacy statuses still found in older logs.
const (
	legacySick      Status = "krank"
	legacyCancelled Status = "abgesagt"
)

// Statuses lists the statuses that can be set, in menu order.
func Statuses() []Status {
	return []Status{Appeared, CancelledByStudent, CancelledByTeacher, NoSchool, NoShow}
}

// ParseStatus accepts current and legacy status strings.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case Appeared, CancelledByStudent, CancelledByTeacher, NoSchool, NoShow, legacySick, legacyCancelled:
		return st, true
	}
	return "", false
}

// Label returns the German display text.
func (s Status) Label() string {
	switch s {
	case Appeared:
		return "Erschienen"
	case CancelledByStudent:
		return "Vom Schüler abgesagt"
	case CancelledByTeacher:
		return "Vom Lehrer abgesagt"
	case NoSchool:
		return "Schulfrei"
	case NoShow:
		return "Nicht erschienen"
	case legacySick:
		return "Krank"
	case legacyCancelled:
		return "Abgesagt"
	}
	return string(s)
}

type bucket int

const (
	bucketOther bucket = iota
	bucketAppeared
	bucketSick
	bucketCancelled
	bucketNoShow
)

func (s Status) bucket() bucket {
	switch s {
	case Appeared:
		return bucketAppeared
	case CancelledByStudent, legacySick:
		return bucketSick
	case CancelledByTeacher, NoSchool, legacyCancelled:
		return bucketCancelled
	case NoShow:
		return bucketNoShow
	}
	return bucketOther
}
