package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultTitle    = "Untitled"
	DefaultCategory = "Uncategorized"
)

// Task is a unit of work in the task list. Subtasks are owned by their parent
// and are never shared between tasks.
type Task struct {
	Title         string
	Category      string
	EstimatedTime Minutes
	DueDate       *string // nil when the task has no due date
	Completed     bool
	Subtasks      []*Task
}

// NewTask creates an incomplete task without subtasks.
func NewTask(title, category string, estimate Minutes, dueDate string) *Task {
	t := &Task{
		Title:         title,
		Category:      category,
		EstimatedTime: estimate,
	}
	if dueDate != "" {
		t.DueDate = &dueDate
	}
	return t
}

func (t *Task) MarkCompleted() {
	t.Completed = true
}

func (t *Task) MarkUncompleted() {
	t.Completed = false
}

func (t *Task) AddSubtask(sub *Task) {
	t.Subtasks = append(t.Subtasks, sub)
}

// Progress returns the completion percentage of the task. A task without
// subtasks is either 0 or 100; otherwise it is the share of its immediate
// subtasks that are completed. Grandchildren are not considered.
func (t *Task) Progress() float64 {
	if len(t.Subtasks) == 0 {
		if t.Completed {
			return 100
		}
		return 0
	}
	done := 0
	for _, sub := range t.Subtasks {
		if sub.Completed {
			done++
		}
	}
	return float64(done) / float64(len(t.Subtasks)) * 100
}

// Due returns the due date or an empty string.
func (t *Task) Due() string {
	if t.DueDate == nil {
		return ""
	}
	return *t.DueDate
}

func (t *Task) String() string {
	var b strings.Builder
	b.WriteString(t.Title)
	if due := t.Due(); due != "" {
		b.WriteString(" ")
		b.WriteString(due)
	}
	fmt.Fprintf(&b, " %dmin", t.EstimatedTime)
	return b.String()
}

// Clone returns a deep copy of the task tree.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	c.Subtasks = nil
	for _, sub := range t.Subtasks {
		c.Subtasks = append(c.Subtasks, sub.Clone())
	}
	return &c
}

type taskJSON struct {
	Title         *string `json:"title"`
	Category      *string `json:"category"`
	EstimatedTime Minutes `json:"estimated_time"`
	DueDate       *string `json:"due_date"`
	Completed     bool    `json:"completed"`
	Subtasks      []*Task `json:"subtasks"`
}

// MarshalJSON writes the persisted record shape. Subtasks are always written
// as an array, never null.
func (t *Task) MarshalJSON() ([]byte, error) {
	subs := t.Subtasks
	if subs == nil {
		subs = []*Task{}
	}
	return json.Marshal(taskJSON{
		Title:         &t.Title,
		Category:      &t.Category,
		EstimatedTime: t.EstimatedTime,
		DueDate:       t.DueDate,
		Completed:     t.Completed,
		Subtasks:      subs,
	})
}

// UnmarshalJSON reads a persisted record, filling defaults for missing fields.
func (t *Task) UnmarshalJSON(b []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("failed to decode task: %w", err)
	}

	*t = Task{
		Title:         DefaultTitle,
		Category:      DefaultCategory,
		EstimatedTime: raw.EstimatedTime,
		DueDate:       raw.DueDate,
		Completed:     raw.Completed,
	}
	if len(raw.Subtasks) > 0 {
		t.Subtasks = raw.Subtasks
	}
	if raw.Title != nil {
		t.Title = *raw.Title
	}
	if raw.Category != nil {
		t.Category = *raw.Category
	}
	return nil
}
