package util

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the last valid clock value, written as "24:00".
const MinutesPerDay = 24 * 60

var (
	// ErrMalformedRange is returned for range strings that are not two
	// H:MM/HH:MM clocks joined by a single separator.
	ErrMalformedRange = errors.New("malformed time range")
	// ErrInvertedRange is returned when a range does not end after it starts.
	ErrInvertedRange = errors.New("time range must end after it starts")
)

// RangeError identifies the time range that could not be parsed.
type RangeError struct {
	Range  string
	Reason string
	Err    error
}

func (e *RangeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Range)
	}
	return fmt.Sprintf("%v: %q: %s", e.Err, e.Range, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

var isoDurationRe = regexp.MustCompile(`(\d+)([HMS])`)

// ParseDuration parses ISO 8601 duration format (PT1H30M), as written by
// Taskwarrior exports for duration UDAs.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}

	s = s[1:]
	if len(s) == 0 || s[0] != 'T' {
		return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): P%s", s)
	}
	s = s[1:]

	var total time.Duration
	for _, match := range isoDurationRe.FindAllStringSubmatch(s, -1) {
		value, _ := strconv.Atoi(match[1])
		switch match[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		}
	}

	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: PT%s", s)
	}

	return total, nil
}

// ParseClock converts "H:MM" or "HH:MM" to minutes since midnight.
// Hours run 0-24 and "24:00" is the latest accepted value.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !isDigits(hh) || !isDigits(mm) {
		return 0, fmt.Errorf("clock %q is not H:MM or HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("clock %q has a non-numeric hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("clock %q has a non-numeric minute", s)
	}
	if m > 59 {
		return 0, fmt.Errorf("clock %q has minute %d out of range", s, m)
	}
	total := h*60 + m
	if total > MinutesPerDay {
		return 0, fmt.Errorf("clock %q is past 24:00", s)
	}
	return total, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseRange splits "HH:MM-HH:MM" into start and end minutes since midnight.
// An en dash is accepted as the separator. Ranges that are empty or inverted
// are rejected, so a block never has zero or negative capacity.
func ParseRange(s string) (start, end int, err error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "–", "-")
	parts := strings.Split(normalized, "-")
	if len(parts) != 2 {
		return 0, 0, &RangeError{Range: s, Reason: "expected exactly one '-' separator", Err: ErrMalformedRange}
	}

	start, err = ParseClock(parts[0])
	if err != nil {
		return 0, 0, &RangeError{Range: s, Reason: err.Error(), Err: ErrMalformedRange}
	}
	end, err = ParseClock(parts[1])
	if err != nil {
		return 0, 0, &RangeError{Range: s, Reason: err.Error(), Err: ErrMalformedRange}
	}
	if end <= start {
		return 0, 0, &RangeError{Range: s, Err: ErrInvertedRange}
	}
	return start, end, nil
}

// RangeDuration returns the length of a time range in minutes.
func RangeDuration(s string) (int, error) {
	start, end, err := ParseRange(s)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// MinutesToClock formats minutes since midnight as "HH:MM". Values of a day
// or more are printed with an hour field of 24 or above.
func MinutesToClock(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatRange is the canonical "HH:MM-HH:MM" form of a range.
func FormatRange(start, end int) string {
	return MinutesToClock(start) + "-" + MinutesToClock(end)
}

// CanonicalRange reformats a valid range into "HH:MM-HH:MM".
func CanonicalRange(s string) (string, error) {
	start, end, err := ParseRange(s)
	if err != nil {
		return "", err
	}
	return FormatRange(start, end), nil
}
