package todotxt

import (
	"fmt"
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var dateTokenRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a calendar date without a time of day. The zero value means the
// date is absent.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD date. Out of range days and months are
// rejected.
func ParseDate(s string) (Date, error) {
	if !dateTokenRegex.MatchString(s) {
		return Date{}, fmt.Errorf("invalid date format %q", s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
