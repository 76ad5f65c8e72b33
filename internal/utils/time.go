package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate = "2006-01-02"
	layoutHM   = "15:04"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD as a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.UTC)
}

// FormatDate formats time to YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(layoutDate)
}

// IsHM reports whether s is a zero-padded 24h HH:MM time.
func IsHM(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != len(layoutHM) {
		return false
	}
	_, err := time.Parse(layoutHM, s)
	return err == nil
}

// DaysInclusive counts calendar days from start to end, both included.
// Empty dates yield 0; end before start is an error.
func DaysInclusive(start, end string) (int, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return 0, nil
	}
	s, err := ParseDate(start)
	if err != nil {
		return 0, fmt.Errorf("start_date: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return 0, fmt.Errorf("end_date: %w", err)
	}
	if e.Before(s) {
		return 0, fmt.Errorf("end_date before start_date")
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// DayDate returns the calendar date of the given 1-based trip day, or "" without a start date.
func DayDate(start string, day int) string {
	s, err := ParseDate(start)
	if err != nil || day < 1 {
		return ""
	}
	return FormatDate(s.AddDate(0, 0, day-1))
}
