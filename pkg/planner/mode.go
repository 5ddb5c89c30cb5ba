package planner

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/harrisonrobin/dayplan/pkg/model"
)

// Mode selects how much overhead is added to task estimates.
type Mode string

const (
	Normal  Mode = "normal"  // estimates x1.25
	Relaxed Mode = "relaxed" // estimates x1.5
)

// ErrUnknownMode is returned for any mode other than Normal or Relaxed.
var ErrUnknownMode = errors.New("unknown planning mode")

// ModeError reports the rejected mode value.
type ModeError struct {
	Mode string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("%v %q (want %q or %q)", ErrUnknownMode, e.Mode, Normal, Relaxed)
}

func (e *ModeError) Unwrap() error {
	return ErrUnknownMode
}

// Multipliers are kept as fractions so effective durations are exact.
var multipliers = map[Mode]struct{ num, den int }{
	Normal:  {5, 4},
	Relaxed: {3, 2},
}

// ParseMode maps user input to a Mode. Matching ignores case and
// surrounding space.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := multipliers[m]; !ok {
		return "", &ModeError{Mode: s}
	}
	return m, nil
}

func (m Mode) Validate() error {
	if _, ok := multipliers[m]; !ok {
		return &ModeError{Mode: string(m)}
	}
	return nil
}

// Multiplier returns the scale factor applied to estimates.
func (m Mode) Multiplier() float64 {
	f := multipliers[m]
	if f.den == 0 {
		return 0
	}
	return float64(f.num) / float64(f.den)
}

// EffectiveDuration is the estimate scaled by the mode multiplier and
// rounded down to whole minutes. Negative estimates count as zero, and
// estimates whose scaled value would overflow an int saturate at math.MaxInt.
func (m Mode) EffectiveDuration(estimate model.Minutes) int {
	f, ok := multipliers[m]
	if !ok || estimate <= 0 {
		return 0
	}
	if int(estimate) > math.MaxInt/f.num {
		return math.MaxInt
	}
	return int(estimate) * f.num / f.den
}
