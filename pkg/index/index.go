// Package index caches which calendar event belongs to which plan slot, so
// that re-pushing a plan does not need an API search per slot.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const indexFile = "events.json"

type EventIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	dirty    bool
}

// NewEventIndex loads the index stored in dir, if any.
func NewEventIndex(dir string) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[string]string),
		Path:     filepath.Join(dir, indexFile),
	}

	if _, err := os.Stat(idx.Path); err == nil {
		if err := idx.Load(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *EventIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&idx.Mappings)
}

func (idx *EventIndex) Save() error {
	if !idx.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(idx.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

// Get returns the event id for a slot key, or "".
func (idx *EventIndex) Get(slotKey string) string {
	return idx.Mappings[slotKey]
}

func (idx *EventIndex) Set(slotKey, eventID string) {
	if idx.Mappings[slotKey] != eventID {
		idx.Mappings[slotKey] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(slotKey string) {
	if _, exists := idx.Mappings[slotKey]; exists {
		delete(idx.Mappings, slotKey)
		idx.dirty = true
	}
}
