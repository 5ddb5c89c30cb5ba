package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBadIndex is returned for references that are not "N" or "N.M".
	ErrBadIndex = errors.New("invalid task index")
	// ErrIndexOutOfRange is returned when a reference points past the list.
	ErrIndexOutOfRange = errors.New("task index out of range")
)

// IndexError reports which reference could not be resolved.
type IndexError struct {
	Ref string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Ref)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// Ref addresses a top-level task or one of its subtasks with 1-based
// positions, as printed by the task list ("2" or "2.1").
type Ref struct {
	Task    int
	Subtask int // 0 when the ref names a top-level task
}

func (r Ref) IsSubtask() bool {
	return r.Subtask > 0
}

func (r Ref) String() string {
	if r.IsSubtask() {
		return fmt.Sprintf("%d.%d", r.Task, r.Subtask)
	}
	return strconv.Itoa(r.Task)
}

// ParseRef parses "N" or "N.M". Positions must be positive; whether they
// exist is checked against a store.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Ref{}, &IndexError{Ref: s, Err: ErrBadIndex}
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Ref{}, &IndexError{Ref: s, Err: ErrBadIndex}
		}
		if n < 1 {
			return Ref{}, &IndexError{Ref: s, Err: ErrIndexOutOfRange}
		}
		nums[i] = n
	}

	ref := Ref{Task: nums[0]}
	if len(nums) == 2 {
		ref.Subtask = nums[1]
	}
	return ref, nil
}
