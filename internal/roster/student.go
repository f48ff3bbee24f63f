package roster

import (
	"strings"
	"time"
)

// App-level field names. They double as the JSON keys of the persisted roster.
const (
	FieldFirstName     = "vorname"
	FieldLastName      = "nachname"
	FieldBirthDate     = "geburtsdatum"
	FieldWeekday       = "unterrichtstag"
	FieldLessonTime    = "unterrichtszeit"
	FieldBook          = "buch"
	FieldPage          = "seite"
	FieldExercise      = "übung"
	FieldSongs         = "aktuelleLieder"
	FieldFocus         = "wichtigerFokus"
	FieldMonthlyFee    = "monatlicherbetrag"
	FieldRequestStatus = "anfrageStatus"
	FieldPayment       = "zahlungStatus"
	FieldStartDate     = "startdatum"
	FieldContact       = "ansprechpartner"
	FieldPhone         = "handynummer"
	FieldEmail         = "email"
	FieldContractLink  = "vertragslink"
	FieldBook2         = "buch2"
	FieldPage2         = "seite2"
	FieldExercise2     = "übung2"
	FieldDrumKit       = "hatSchlagzeug"
)

// Student is the app view of one roster row. The ID is assigned by the
// backend and never changes.
type Student struct {
	ID            int64         `json:"id"`
	FirstName     string        `json:"vorname"`
	LastName      string        `json:"nachname"`
	BirthDate     string        `json:"geburtsdatum"`
	Weekday       Weekday       `json:"unterrichtstag"`
	LessonTime    string        `json:"unterrichtszeit"`
	Book          string        `json:"buch"`
	Page          string        `json:"seite"`
	Exercise      string        `json:"übung"`
	Songs         string        `json:"aktuelleLieder"`
	Focus         string        `json:"wichtigerFokus"`
	MonthlyFee    string        `json:"monatlicherbetrag"`
	RequestStatus string        `json:"anfrageStatus"`
	Payment       PaymentStatus `json:"zahlungStatus"`
	StartDate     string        `json:"startdatum"`
	Contact       string        `json:"ansprechpartner"`
	Phone         string        `json:"handynummer"`
	Email         string        `json:"email"`
	ContractLink  string        `json:"vertragslink"`
	Book2         string        `json:"buch2"`
	Page2         string        `json:"seite2"`
	Exercise2     string        `json:"übung2"`
	DrumKit       DrumKit       `json:"hatSchlagzeug"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Set assigns value to the attribute named by field. It reports false for
// unknown field names and for the id.
func (s *Student) Set(field, value string) bool {
	switch field {
	case FieldFirstName:
		s.FirstName = value
	case FieldLastName:
		s.LastName = value
	case FieldBirthDate:
		s.BirthDate = value
	case FieldWeekday:
		s.Weekday = Weekday(value)
	case FieldLessonTime:
		s.LessonTime = value
	case FieldBook:
		s.Book = value
	case FieldPage:
		s.Page = value
	case FieldExercise:
		s.Exercise = value
	case FieldSongs:
		s.Songs = value
	case FieldFocus:
		s.Focus = value
	case FieldMonthlyFee:
		s.MonthlyFee = value
	case FieldRequestStatus:
		s.RequestStatus = value
	case FieldPayment:
		s.Payment = ParsePaymentStatus(value)
	case FieldStartDate:
		s.StartDate = value
	case FieldContact:
		s.Contact = value
	case FieldPhone:
		s.Phone = value
	case FieldEmail:
		s.Email = value
	case FieldContractLink:
		s.ContractLink = value
	case FieldBook2:
		s.Book2 = value
	case FieldPage2:
		s.Page2 = value
	case FieldExercise2:
		s.Exercise2 = value
	case FieldDrumKit:
		s.DrumKit = ParseDrumKit(value)
	default:
		return false
	}
	return true
}

// Get returns the attribute named by field.
func (s Student) Get(field string) (string, bool) {
	switch field {
	case FieldFirstName:
		return s.FirstName, true
	case FieldLastName:
		return s.LastName, true
	case FieldBirthDate:
		return s.BirthDate, true
	case FieldWeekday:
		return string(s.Weekday), true
	case FieldLessonTime:
		return s.LessonTime, true
	case FieldBook:
		return s.Book, true
	case FieldPage:
		return s.Page, true
	case FieldExercise:
		return s.Exercise, true
	case FieldSongs:
		return s.Songs, true
	case FieldFocus:
		return s.Focus, true
	case FieldMonthlyFee:
		return s.MonthlyFee, true
	case FieldRequestStatus:
		return s.RequestStatus, true
	case FieldPayment:
		return string(s.Payment), true
	case FieldStartDate:
		return s.StartDate, true
	case FieldContact:
		return s.Contact, true
	case FieldPhone:
		return s.Phone, true
	case FieldEmail:
		return s.Email, true
	case FieldContractLink:
		return s.ContractLink, true
	case FieldBook2:
		return s.Book2, true
	case FieldPage2:
		return s.Page2, true
	case FieldExercise2:
		return s.Exercise2, true
	case FieldDrumKit:
		return string(s.DrumKit), true
	}
	return "", false
}

// Weekday is the German weekday name stored by the backend ("Montag" ...).
// The empty value means no lesson day is set.
type Weekday string

// Weekday values.
const (
	Monday    Weekday = "Montag"
	Tuesday   Weekday = "Dienstag"
	Wednesday Weekday = "Mittwoch"
	Thursday  Weekday = "Donnerstag"
	Friday    Weekday = "Freitag"
	Saturday  Weekday = "Samstag"
	Sunday    Weekday = "Sonntag"
)

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the German weekday of t in t's location.
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

// Weekdays lists the days in calendar order starting on Monday.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// Index returns the Monday-based position of the weekday, or -1 when unset
// or unknown.
func (w Weekday) Index() int {
	for i, d := range Weekdays() {
		if strings.EqualFold(strings.TrimSpace(string(w)), string(d)) {
			return i
		}
	}
	return -1
}

// On reports whether t falls on this weekday.
func (w Weekday) On(t time.Time) bool {
	return strings.EqualFold(strings.TrimSpace(string(w)), string(WeekdayOf(t)))
}

// PaymentStatus is the backend's payment label.
type PaymentStatus string

// Payment labels as used by the backend's single-select options.
const (
	PaymentPaid    PaymentStatus = "ja"
	PaymentUnpaid  PaymentStatus = "nein"
	PaymentPayPal  PaymentStatus = "Paypal"
	PaymentUnknown PaymentStatus = "unbekannt"
)

// PaymentStatuses lists the labels in cycling order.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentPaid, PaymentUnpaid, PaymentPayPal, PaymentUnknown}
}

// ParsePaymentStatus normalizes a label; anything unrecognized is unknown.
func ParsePaymentStatus(label string) PaymentStatus {
	for _, p := range PaymentStatuses() {
		if strings.EqualFold(strings.TrimSpace(label), string(p)) {
			return p
		}
	}
	return PaymentUnknown
}

// Next returns the following label in cycling order.
func (p PaymentStatus) Next() PaymentStatus {
	all := PaymentStatuses()
	for i, s := range all {
		if s == p {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// DrumKit records whether the student owns a drum kit.
type DrumKit string

// Drum kit labels.
const (
	DrumKitYes     DrumKit = "Ja"
	DrumKitNo      DrumKit = "Nein"
	DrumKitUnknown DrumKit = "Unbekannt"
)

// ParseDrumKit normalizes a label; anything unrecognized is unknown.
func ParseDrumKit(label string) DrumKit {
	for _, d := range []DrumKit{DrumKitYes, DrumKitNo, DrumKitUnknown} {
		if strings.EqualFold(strings.TrimSpace(label), string(d)) {
			return d
		}
	}
	return DrumKitUnknown
}

// Next cycles yes → no → unknown.
func (d DrumKit) Next() DrumKit {
	switch d {
	case DrumKitYes:
		return DrumKitNo
	case DrumKitNo:
		return DrumKitUnknown
	default:
		return DrumKitYes
	}
}

// Clone copies a roster slice.
func Clone(students []Student) []Student {
	if len(students) == 0 {
		return nil
	}
	dup := make([]Student, len(students))
	copy(dup, students)
	return dup
}

// Find returns the index of the student with id, or -1.
func Find(students []Student, id int64) int {
	for i := range students {
		if students[i].ID == id {
			return i
		}
	}
	return -1
}
