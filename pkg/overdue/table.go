// Package overdue tracks pushed plan slots so that slots whose time has
// passed while their task is still open can be flagged on the calendar.
package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const tableFile = "pushed_slots.json"

type Entry struct {
	EventID  string    `json:"event_id"`
	Summary  string    `json:"summary"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	End      time.Time `json:"end"`
}

type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

// NewTable loads the table stored in dir, if any.
func NewTable(dir string) (*Table, error) {
	t := &Table{
		Path:    filepath.Join(dir, tableFile),
		Entries: make(map[string]Entry),
	}

	if _, err := os.Stat(t.Path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(t); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Update records a pushed slot under its key.
func (t *Table) Update(slotKey string, e Entry) {
	if old, ok := t.Entries[slotKey]; ok && old == e {
		return
	}
	t.Entries[slotKey] = e
	t.dirty = true
}

func (t *Table) Remove(slotKey string) {
	if _, exists := t.Entries[slotKey]; exists {
		delete(t.Entries, slotKey)
		t.dirty = true
	}
}

// Sweep returns the entries that ended before now and for which stillOpen
// reports true. Ended entries whose task is no longer open are dropped. The
// returned entries stay in the table until the caller removes them, so a
// failed mark is retried on the next sweep.
func (t *Table) Sweep(now time.Time, stillOpen func(Entry) bool) map[string]Entry {
	swept := make(map[string]Entry)
	for key, entry := range t.Entries {
		if !entry.End.Before(now) {
			continue
		}
		if stillOpen(entry) {
			swept[key] = entry
			continue
		}
		delete(t.Entries, key)
		t.dirty = true
	}
	return swept
}
