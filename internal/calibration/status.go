// Package calibration classifies measurement points by how close their next
// calibration is.
package calibration

import (
	"fmt"
	"strings"
	"time"
)

// WarningDays is the horizon of the "próximo vencimento" status and the
// default horizon of the critical point queries.
const WarningDays = 30

// Status is a calibration state with its display text. Key doubles as the CSS class.
type Status struct {
	Key  string
	Text string
}

var (
	NoDate      = Status{Key: "sem-data", Text: "Sem Data"}
	InvalidDate = Status{Key: "sem-data", Text: "Data Inválida"}
	Overdue     = Status{Key: "vencido", Text: "Vencido"}
	DueSoon     = Status{Key: "proximo-vencimento", Text: "Próximo Vencimento"}
	Current     = Status{Key: "vigente", Text: "Vigente"}
)

// FromDays classifies a days-remaining count; nil means no date on record.
func FromDays(days *int) Status {
	switch {
	case days == nil:
		return NoDate
	case *days < 0:
		return Overdue
	case *days <= WarningDays:
		return DueSoon
	default:
		return Current
	}
}

// FromDate classifies the next calibration date relative to now.
func FromDate(raw string, now time.Time) Status {
	if strings.TrimSpace(raw) == "" {
		return NoDate
	}
	days, ok := DaysUntil(raw, now)
	if !ok {
		return InvalidDate
	}
	return FromDays(&days)
}

// DaysUntil counts whole calendar days from now to the date in raw.
func DaysUntil(raw string, now time.Time) (int, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	target := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(target.Sub(today).Hours() / 24), true
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

// ParseDate accepts the date formats the backend emits.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDaysRemaining renders a countdown such as "3 dias" or "2 dias atrás".
func FormatDaysRemaining(days *int) string {
	switch {
	case days == nil:
		return "-"
	case *days < 0:
		return fmt.Sprintf("%d dias atrás", -*days)
	case *days == 0:
		return "Hoje"
	case *days == 1:
		return "1 dia"
	default:
		return fmt.Sprintf("%d dias", *days)
	}
}
