package services

import (
	"strings"
	"time"
)

var periodLayouts = []string{"2006-01", "2006-01-02"}

// FormatDates renders a job period: "Jan 2020 – Present" when ongoing,
// "Jan 2020 – Mar 2022" when closed, or just the start otherwise.
// A start date that doesn't parse is returned as-is.
func FormatDates(startDate string, endDate *string, current bool) string {
	start, ok := formatMonth(startDate)
	if !ok {
		return strings.TrimSpace(startDate)
	}
	if current {
		return start + " – Present"
	}
	if endDate != nil && strings.TrimSpace(*endDate) != "" {
		if end, ok := formatMonth(*endDate); ok {
			return start + " – " + end
		}
		return start + " – " + strings.TrimSpace(*endDate)
	}
	return start
}

// ValidPeriodDate reports whether s is a YYYY-MM or YYYY-MM-DD date.
func ValidPeriodDate(s string) bool {
	_, ok := parseMonth(s)
	return ok
}

func formatMonth(s string) (string, bool) {
	t, ok := parseMonth(s)
	if !ok {
		return "", false
	}
	return t.Format("Jan 2006"), true
}

func parseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
