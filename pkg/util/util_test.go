package util

import (
	"errors"
	"testing"
	"time"
)

func TestRangeDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"08:00-10:00", 120},
		{"8:00-9:30", 90},
		{"00:00-24:00", 1440},
		{"13:15-13:16", 1},
		{" 09:00 - 10:45 ", 105},
		{"09:00–10:00", 60},
	}
	for _, tt := range tests {
		got, err := RangeDuration(tt.in)
		if err != nil {
			t.Errorf("RangeDuration(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("RangeDuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseRangeRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"08:00",
		"08:00-09:00-10:00",
		"aa:00-09:00",
		"08:00-09:xx",
		"0800-0900",
		"08:60-09:00",
		"08:00-24:01",
		"123:00-124:00",
		"08:+5-09:00",
		"+8:00-09:00",
		"08:00-9:+0",
	} {
		_, _, err := ParseRange(in)
		if !errors.Is(err, ErrMalformedRange) {
			t.Errorf("ParseRange(%q) error = %v, want ErrMalformedRange", in, err)
		}
		var rangeErr *RangeError
		if errors.As(err, &rangeErr) && rangeErr.Range != in {
			t.Errorf("RangeError.Range = %q, want %q", rangeErr.Range, in)
		}
	}
}

func TestParseRangeRejectsInverted(t *testing.T) {
	for _, in := range []string{"10:00-08:00", "09:00-09:00"} {
		_, _, err := ParseRange(in)
		if !errors.Is(err, ErrInvertedRange) {
			t.Errorf("ParseRange(%q) error = %v, want ErrInvertedRange", in, err)
		}
	}
}

func TestMinutesToClock(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{60, "01:00"},
		{125, "02:05"},
		{1439, "23:59"},
		{1440, "24:00"},
		{1505, "25:05"},
	}
	for _, tt := range tests {
		if got := MinutesToClock(tt.in); got != tt.want {
			t.Errorf("MinutesToClock(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalRange(t *testing.T) {
	got, err := CanonicalRange("8:05–9:00")
	if err != nil {
		t.Fatalf("CanonicalRange failed: %v", err)
	}
	if got != "08:05-09:00" {
		t.Errorf("CanonicalRange = %q, want %q", got, "08:05-09:00")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"PT1H", time.Hour, false},
		{"PT30M", 30 * time.Minute, false},
		{"PT1H30M", 90 * time.Minute, false},
		{"1h", 0, true},
		{"P1D", 0, true},
		{"PT", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
