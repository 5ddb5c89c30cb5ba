package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/dayplan/pkg/util"
)

// Minutes is an estimated duration in whole minutes.
type Minutes int

// MaxMinutes is the largest estimate accepted from input or a task file.
const MaxMinutes Minutes = math.MaxInt32

// ParseMinutes reads an estimate typed by a user or stored by an older
// version of the task file: "45", "45.5" (truncated) or an ISO 8601
// duration such as "PT1H30M". Empty input is zero.
func ParseMinutes(s string) (Minutes, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "P") {
		d, err := util.ParseDuration(s)
		if err != nil {
			return 0, err
		}
		if d < 0 {
			return 0, fmt.Errorf("estimated time %q is negative", s)
		}
		if d/time.Minute > time.Duration(MaxMinutes) {
			return 0, fmt.Errorf("estimated time %q exceeds %d minutes", s, MaxMinutes)
		}
		return Minutes(d / time.Minute), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("estimated time %q is not a number of minutes", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("estimated time %q is negative", s)
	}
	if f > float64(MaxMinutes) {
		return 0, fmt.Errorf("estimated time %q exceeds %d minutes", s, MaxMinutes)
	}
	return Minutes(f), nil
}

// Duration converts the estimate to a time.Duration.
func (m Minutes) Duration() time.Duration {
	return time.Duration(m) * time.Minute
}

// UnmarshalJSON accepts a JSON number, a string holding a number or an
// ISO 8601 duration, or null.
func (m *Minutes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	parsed, err := ParseMinutes(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
