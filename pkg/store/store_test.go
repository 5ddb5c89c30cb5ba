package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrisonrobin/dayplan/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "tasks.json"))
	s.Add(model.NewTask("Thesis", "Study", 120, "2025-06-01"))
	s.Add(model.NewTask("Run", "Health", 40, ""))
	if _, err := s.AddSubtask("1", model.NewTask("Outline", "Study", 30, "")); err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	if _, err := s.AddSubtask("1", model.NewTask("Draft", "Study", 90, "")); err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	return s
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSaveAndOpen(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.MarkCompleted("1.1"); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(s.Path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(raw), "\n  {") {
		t.Errorf("expected indented JSON, got:\n%s", raw)
	}

	loaded, err := Open(s.Path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}
	thesis := loaded.Tasks()[0]
	if thesis.Title != "Thesis" || thesis.Due() != "2025-06-01" || thesis.EstimatedTime != 120 {
		t.Errorf("unexpected first task: %+v", thesis)
	}
	if len(thesis.Subtasks) != 2 || thesis.Subtasks[1].Title != "Draft" {
		t.Fatalf("subtasks not preserved: %+v", thesis.Subtasks)
	}
	if !thesis.Subtasks[0].Completed {
		t.Error("subtask completion not preserved")
	}
}

func TestSaveSkipsCleanStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s := New(path)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("clean store should not write a file, stat err = %v", err)
	}
}

func TestMarkAndProgress(t *testing.T) {
	s := newTestStore(t)

	if got := s.OverallProgress(); got != 0 {
		t.Errorf("OverallProgress() = %v, want 0", got)
	}
	if _, err := s.MarkCompleted("1.1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MarkCompleted("2"); err != nil {
		t.Fatal(err)
	}
	// (50 + 100) / 2
	if got := s.OverallProgress(); got != 75 {
		t.Errorf("OverallProgress() = %v, want 75", got)
	}
	if _, err := s.MarkUncompleted("2"); err != nil {
		t.Fatal(err)
	}
	if got := s.OverallProgress(); got != 25 {
		t.Errorf("OverallProgress() = %v, want 25", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	removed, err := s.Delete("1.1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed.Title != "Outline" {
		t.Errorf("removed %q, want Outline", removed.Title)
	}
	if got := len(s.Tasks()[0].Subtasks); got != 1 {
		t.Errorf("subtasks left = %d, want 1", got)
	}

	if _, err := s.Delete("1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s.Len() != 1 || s.Tasks()[0].Title != "Run" {
		t.Errorf("unexpected tasks after delete: %v", s.Tasks())
	}
}

func TestIndexErrors(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		ref  string
		want error
	}{
		{"0", ErrIndexOutOfRange},
		{"3", ErrIndexOutOfRange},
		{"1.3", ErrIndexOutOfRange},
		{"2.1", ErrIndexOutOfRange},
		{"1.0", ErrIndexOutOfRange},
		{"x", ErrBadIndex},
		{"1.x", ErrBadIndex},
		{"1.1.1", ErrBadIndex},
		{"", ErrBadIndex},
	}
	for _, tt := range tests {
		_, err := s.Get(tt.ref)
		if !errors.Is(err, tt.want) {
			t.Errorf("Get(%q) error = %v, want %v", tt.ref, err, tt.want)
		}
		var indexErr *IndexError
		if !errors.As(err, &indexErr) {
			t.Errorf("Get(%q) error %T is not an *IndexError", tt.ref, err)
		}
	}

	if _, err := s.Delete("9"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Delete(9) error = %v, want ErrIndexOutOfRange", err)
	}
	if s.Len() != 2 {
		t.Errorf("failed delete changed the list: Len() = %d", s.Len())
	}
	if _, err := s.AddSubtask("1.1", model.NewTask("x", "y", 1, "")); !errors.Is(err, ErrBadIndex) {
		t.Errorf("AddSubtask on a subtask ref error = %v, want ErrBadIndex", err)
	}
}

func TestMerge(t *testing.T) {
	s := newTestStore(t)
	added := s.Merge([]*model.Task{
		model.NewTask("Run", "Health", 40, ""),
		model.NewTask("Run", "Errands", 20, ""),
		model.NewTask("Groceries", "Errands", 30, ""),
		model.NewTask("Groceries", "Errands", 30, ""),
	})
	if added != 2 {
		t.Errorf("Merge added %d, want 2", added)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}
