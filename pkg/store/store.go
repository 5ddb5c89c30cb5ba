// Package store keeps the ordered task list and persists it as JSON.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/dayplan/pkg/model"
)

// DefaultFile is the task file used when none is configured.
const DefaultFile = "tasks.json"

// Store is the in-memory task list backed by a JSON file. Iteration order
// is insertion order and is what the planner scans.
type Store struct {
	Path  string
	tasks []*model.Task
	dirty bool
}

// New returns an empty store that will save to path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Open loads the task file at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := New(path)
	if _, err := os.Stat(path); err == nil {
		if err := s.Load(); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not check task file '%s': %w", path, err)
	}
	return s, nil
}

func (s *Store) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			s.tasks = nil
			return nil
		}
		return err
	}
	defer f.Close()

	var tasks []*model.Task
	if err := json.NewDecoder(f).Decode(&tasks); err != nil {
		return fmt.Errorf("failed to decode task file '%s': %w", s.Path, err)
	}
	s.tasks = tasks
	s.dirty = false
	return nil
}

// Save writes the task list if it changed since the last load or save.
// The file is replaced atomically.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}
	if err := s.write(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *Store) write() error {
	tasks := s.tasks
	if tasks == nil {
		tasks = []*model.Task{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(tasks); err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tasks-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp task file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write task file: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path)
}

// Tasks returns the top-level tasks in order. The slice is shared with the
// store and must not be modified by callers.
func (s *Store) Tasks() []*model.Task {
	return s.tasks
}

func (s *Store) Len() int {
	return len(s.tasks)
}

func (s *Store) Add(task *model.Task) {
	s.tasks = append(s.tasks, task)
	s.dirty = true
}

// AddSubtask appends sub to the top-level task at 1-based position parent.
func (s *Store) AddSubtask(parent string, sub *model.Task) (*model.Task, error) {
	ref, err := ParseRef(parent)
	if err != nil {
		return nil, err
	}
	if ref.IsSubtask() {
		return nil, &IndexError{Ref: parent, Err: ErrBadIndex}
	}
	task, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	task.AddSubtask(sub)
	s.dirty = true
	return task, nil
}

// Get returns the task or subtask named by ref ("N" or "N.M").
func (s *Store) Get(ref string) (*model.Task, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return s.resolve(r)
}

func (s *Store) MarkCompleted(ref string) (*model.Task, error) {
	return s.setCompleted(ref, true)
}

func (s *Store) MarkUncompleted(ref string) (*model.Task, error) {
	return s.setCompleted(ref, false)
}

func (s *Store) setCompleted(ref string, completed bool) (*model.Task, error) {
	task, err := s.Get(ref)
	if err != nil {
		return nil, err
	}
	if task.Completed != completed {
		task.Completed = completed
		s.dirty = true
	}
	return task, nil
}

// Delete removes the task or subtask named by ref and returns it.
func (s *Store) Delete(ref string) (*model.Task, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	// Resolve first so bounds errors leave the list untouched.
	removed, err := s.resolve(r)
	if err != nil {
		return nil, err
	}

	if r.IsSubtask() {
		parent := s.tasks[r.Task-1]
		parent.Subtasks = append(parent.Subtasks[:r.Subtask-1], parent.Subtasks[r.Subtask:]...)
		if len(parent.Subtasks) == 0 {
			parent.Subtasks = nil
		}
	} else {
		s.tasks = append(s.tasks[:r.Task-1], s.tasks[r.Task:]...)
	}
	s.dirty = true
	return removed, nil
}

// Merge appends tasks that are not already in the list. A task counts as
// present when a top-level task has the same title and category. It returns
// how many tasks were added.
func (s *Store) Merge(tasks []*model.Task) int {
	type key struct{ title, category string }
	seen := make(map[key]bool, len(s.tasks))
	for _, t := range s.tasks {
		seen[key{t.Title, t.Category}] = true
	}

	added := 0
	for _, t := range tasks {
		k := key{t.Title, t.Category}
		if seen[k] {
			continue
		}
		seen[k] = true
		s.tasks = append(s.tasks, t)
		added++
	}
	if added > 0 {
		s.dirty = true
	}
	return added
}

// OverallProgress is the mean progress of the top-level tasks, 0 when empty.
func (s *Store) OverallProgress() float64 {
	if len(s.tasks) == 0 {
		return 0
	}
	var sum float64
	for _, t := range s.tasks {
		sum += t.Progress()
	}
	return sum / float64(len(s.tasks))
}

func (s *Store) resolve(r Ref) (*model.Task, error) {
	if r.Task < 1 || r.Task > len(s.tasks) {
		return nil, &IndexError{Ref: r.String(), Err: ErrIndexOutOfRange}
	}
	task := s.tasks[r.Task-1]
	if !r.IsSubtask() {
		return task, nil
	}
	if r.Subtask > len(task.Subtasks) {
		return nil, &IndexError{Ref: r.String(), Err: ErrIndexOutOfRange}
	}
	return task.Subtasks[r.Subtask-1], nil
}
