package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lessondesk/internal/earnings"
	"github.com/five82/lessondesk/internal/roster"
)

func (m Model) renderDetailBox(width, height int) string {
	s, ok := m.selected()
	if !ok {
		return m.renderTitledBox("Details", m.theme.Styles().MutedText.Render("Kein Schüler ausgewählt"), width, height, false)
	}
	return m.renderTitledBox(s.FullName(), m.renderDetail(s, width-2), width, height, false)
}

// renderDetail shows progress, payment, attendance, earnings and contact
// for one student.
func (m Model) renderDetail(s roster.Student, width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	labelWidth := 14

	row := func(label, value string, style lipgloss.Style) string {
		return styles.MutedText.Render(padRight(label, labelWidth)) +
			style.Render(truncate(value, max(width-labelWidth, 4)))
	}
	section := func(title string) string {
		return styles.AccentText.Bold(true).Render(title)
	}

	var lines []string
	lines = append(lines,
		row("Termin", strings.TrimSpace(string(s.Weekday)+" "+s.LessonTime), styles.Text),
		"",
		section("Fortschritt"),
		row("Buch", orDash(s.Book), styles.Text),
		row("Seite", orDash(s.Page), styles.Text),
		row("Übung", orDash(s.Exercise), styles.Text),
	)
	if s.Book2 != "" || s.Page2 != "" || s.Exercise2 != "" {
		lines = append(lines,
			row("Buch 2", orDash(s.Book2), styles.Text),
			row("Seite 2", orDash(s.Page2), styles.Text),
			row("Übung 2", orDash(s.Exercise2), styles.Text),
		)
	}
	lines = append(lines,
		row("Lieder", orDash(s.Songs), styles.Text),
		row("Fokus", orDash(s.Focus), styles.Text),
		"",
		section("Organisation"),
		row("Zahlung", paymentLabel(s.Payment), m.paymentStyle(s.Payment, styles)),
		row("Schlagzeug", string(roster.ParseDrumKit(string(s.DrumKit))), styles.Text),
	)

	if rec, ok := m.attendance.Today(s.ID); ok {
		lines = append(lines, row("Heute", rec.Status.Label(), styles.StatusText(string(rec.Status)).Background(lipgloss.Color(m.theme.SurfaceAlt))))
	} else {
		lines = append(lines, row("Heute", "nicht erfasst", styles.FaintText))
	}
	stats := m.attendance.Stats(s.ID, statsWindowDays)
	if stats.Total > 0 {
		lines = append(lines, row("30 Tage", fmt.Sprintf("%d%% (%d/%d, %d abgesagt, %d gefehlt)",
			stats.Rate, stats.Appeared, stats.Total, stats.Sick+stats.Cancelled, stats.NoShow), styles.Text))
	} else {
		lines = append(lines, row("30 Tage", "keine Einträge", styles.FaintText))
	}

	if est, ok := earnings.For(s, m.now()); ok {
		lines = append(lines,
			row("Beitrag", earnings.FormatEUR(est.Fee)+" / Monat", styles.Text),
			row("Einnahmen", fmt.Sprintf("%s (%s)", earnings.FormatEUR(est.Total), earnings.FormatMonths(est.Months)), styles.SuccessText),
		)
	}

	lines = append(lines, "", section("Kontakt"))
	if s.Contact != "" {
		lines = append(lines, row("Ansprechp.", s.Contact, styles.Text))
	}
	if s.Phone != "" {
		lines = append(lines, row("Telefon", s.Phone, styles.Text))
		if link := roster.WhatsAppLink(s.Phone); link != "" {
			lines = append(lines, row("WhatsApp", link, styles.InfoText))
		}
	}
	if s.Email != "" {
		lines = append(lines, row("E-Mail", roster.MailtoLink(s.Email), styles.InfoText))
	}
	if s.ContractLink != "" {
		lines = append(lines, row("Vertrag", s.ContractLink, styles.InfoText))
	}
	if s.Contact == "" && s.Phone == "" && s.Email == "" {
		lines = append(lines, styles.FaintText.Render("keine Kontaktdaten"))
	}

	return strings.Join(lines, "\n")
}

func paymentLabel(p roster.PaymentStatus) string {
	switch p {
	case roster.PaymentPaid:
		return "bezahlt"
	case roster.PaymentUnpaid:
		return "offen"
	case roster.PaymentPayPal:
		return "PayPal"
	}
	return "unbekannt"
}

func (m Model) paymentStyle(p roster.PaymentStatus, styles Styles) lipgloss.Style {
	switch p {
	case roster.PaymentPaid, roster.PaymentPayPal:
		return styles.SuccessText
	case roster.PaymentUnpaid:
		return styles.DangerText
	}
	return styles.MutedText
}

var fieldLabels = map[string]string{
	roster.FieldBook:      "Buch",
	roster.FieldPage:      "Seite",
	roster.FieldExercise:  "Übung",
	roster.FieldSongs:     "Lieder",
	roster.FieldFocus:     "Fokus",
	roster.FieldBook2:     "Buch 2",
	roster.FieldPage2:     "Seite 2",
	roster.FieldExercise2: "Übung 2",
	roster.FieldPayment:   "Zahlung",
	roster.FieldDrumKit:   "Schlagzeug",
}

// fieldLabel returns the German label for an app field name.
func fieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}
