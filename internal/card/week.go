package card

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeekKey formats t as an ISO-8601 year-week ("2024-01"). The caller decides
// the time zone of t.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, week)
}

// ParseWeekKey accepts "YYYY-WW" and the "YYYY-Www" form.
func ParseWeekKey(key string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(key), "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 {
		return 0, 0, fmt.Errorf("%w: malformed week key %q", ErrInvalidInput, key)
	}
	if !allDigits(parts[0]) {
		return 0, 0, fmt.Errorf("%w: malformed week key %q", ErrInvalidInput, key)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed week key %q", ErrInvalidInput, key)
	}
	weekPart := strings.TrimPrefix(strings.ToUpper(parts[1]), "W")
	if len(weekPart) != 2 || !allDigits(weekPart) {
		return 0, 0, fmt.Errorf("%w: malformed week key %q", ErrInvalidInput, key)
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed week key %q", ErrInvalidInput, key)
	}
	if week < 1 || week > isoWeeksInYear(year) {
		return 0, 0, fmt.Errorf("%w: week %d out of range for %d", ErrInvalidInput, week, year)
	}
	return year, week, nil
}

// NormalizeWeekKey returns key in canonical "YYYY-WW" form.
func NormalizeWeekKey(key string) (string, error) {
	year, week, err := ParseWeekKey(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d-%02d", year, week), nil
}

// WeekStart returns Monday 00:00 UTC of the week identified by key.
func WeekStart(key string) (time.Time, error) {
	year, week, err := ParseWeekKey(key)
	if err != nil {
		return time.Time{}, err
	}
	return isoWeekMonday(year, week), nil
}

// NextWeekKey returns the key of the week following key, crossing into the
// next ISO year after week 52 or 53.
func NextWeekKey(key string) (string, error) {
	start, err := WeekStart(key)
	if err != nil {
		return "", err
	}
	return WeekKey(start.AddDate(0, 0, 7)), nil
}

// Jan 4th always falls in ISO week 1.
func isoWeekMonday(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(week-1)*7)
}

func isoWeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
