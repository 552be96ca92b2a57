package tracker

import (
	"fmt"
	"strings"
	"time"
)

const (
	isoLayout     = "2006-01-02"
	zohoLayout    = "01-02-2006"
	compactOffset = "2006-01-02T15:04:05-0700"
)

// Date is a calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(now.In(loc))
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Zoho formats d as MM-DD-YYYY, the form the v1 task endpoints accept.
func (d Date) Zoho() string {
	return fmt.Sprintf("%02d-%02d-%04d", int(d.Month), d.Day, d.Year)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.DaysUntil(o) > 0 }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.DaysUntil(o) < 0 }

// DaysUntil returns the signed number of whole days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.midnight().Sub(d.midnight()) / (24 * time.Hour))
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// NormalizeDueDate converts a raw end_date into a calendar date. Two shapes
// are accepted: a date-time with an explicit zone offset (the date is taken
// in that zone) and a plain MM-DD-YYYY date. Anything else reports false.
func NormalizeDueDate(raw string) (Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, false
	}
	if strings.Contains(raw, "T") {
		for _, layout := range []string{time.RFC3339, compactOffset} {
			if t, err := time.Parse(layout, raw); err == nil {
				return DateOf(t), true
			}
		}
		return Date{}, false
	}
	t, err := time.Parse(zohoLayout, raw)
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// ParseLenient accepts everything NormalizeDueDate does plus YYYY-MM-DD.
// Reports use it for display, where a best-effort date beats none.
func ParseLenient(raw string) (Date, bool) {
	if d, ok := NormalizeDueDate(raw); ok {
		return d, true
	}
	if t, err := time.Parse(isoLayout, strings.TrimSpace(raw)); err == nil {
		return DateOf(t), true
	}
	return Date{}, false
}

// ParseISODate parses a strict YYYY-MM-DD date as typed by users.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("tracker: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}
