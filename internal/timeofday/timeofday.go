// Package timeofday converts clock times between the 24-hour storage form
// ("09:05:00") and the 12-hour display form ("9:05am") used by the app.
package timeofday

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	LayoutStorage = "HH:MM[:SS]"
	LayoutDisplay = "h[:mm]am|pm"

	MinutesPerDay = 24 * 60
)

var ErrFormat = errors.New("invalid time format")

var (
	storagePattern = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	displayPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

// FormatError reports an input that does not match the expected layout.
type FormatError struct {
	Input  string
	Layout string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("timeofday: %q does not match %s", e.Input, e.Layout)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func New(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, &FormatError{Input: fmt.Sprintf("%d:%d", hour, minute), Layout: LayoutStorage}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// MustParse is like Parse but panics on error. Meant for constants and tests.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return t
}

// FromMinutes wraps m into a single day.
func FromMinutes(m int) TimeOfDay {
	m = ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay

	return TimeOfDay{Hour: m / 60, Minute: m % 60}
}

// ParseStorage accepts exactly "HH:MM" or "HH:MM:SS". Seconds are validated
// and dropped.
func ParseStorage(s string) (TimeOfDay, error) {
	m := storagePattern.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, &FormatError{Input: s, Layout: LayoutStorage}
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return TimeOfDay{}, &FormatError{Input: s, Layout: LayoutStorage}
		}
	}

	if hour > 23 || minute > 59 {
		return TimeOfDay{}, &FormatError{Input: s, Layout: LayoutStorage}
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseDisplay accepts loose 12-hour forms such as "9am", "10:30pm" or "9:00 AM".
func ParseDisplay(s string) (TimeOfDay, error) {
	m := displayPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, &FormatError{Input: s, Layout: LayoutDisplay}
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}

	if hour < 1 || hour > 12 || minute > 59 {
		return TimeOfDay{}, &FormatError{Input: s, Layout: LayoutDisplay}
	}

	pm := strings.EqualFold(m[3], "pm")
	switch {
	case hour == 12 && !pm:
		hour = 0
	case hour != 12 && pm:
		hour += 12
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Parse picks the display parser when s carries an am/pm suffix and the
// storage parser otherwise.
// Surrounding whitespace is ignored.
func Parse(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, "am") || strings.HasSuffix(lower, "pm") {
		return ParseDisplay(s)
	}

	return ParseStorage(s)
}

func (t TimeOfDay) ToStorage() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// ToDisplay renders "9am" or "9:05am": lowercase suffix, no space, minutes
// omitted when zero.
func (t TimeOfDay) ToDisplay() string {
	suffix := "am"
	if t.Hour >= 12 {
		suffix = "pm"
	}

	h12 := t.Hour
	switch {
	case h12 == 0:
		h12 = 12
	case h12 > 12:
		h12 -= 12
	}

	if t.Minute == 0 {
		return fmt.Sprintf("%d%s", h12, suffix)
	}

	return fmt.Sprintf("%d:%02d%s", h12, t.Minute, suffix)
}

func (t TimeOfDay) String() string {
	return t.ToDisplay()
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Minutes() < u.Minutes()
}

func Compare(a, b TimeOfDay) int {
	switch am, bm := a.Minutes(), b.Minutes(); {
	case am < bm:
		return -1
	case am > bm:
		return 1
	default:
		return 0
	}
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.ToStorage())), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return &FormatError{Input: string(data), Layout: LayoutStorage}
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
