// Package template holds the ordered day template: time ranges mapped to
// task categories. Entry order is the order blocks are planned in and is
// kept through the JSON file.
package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrisonrobin/dayplan/pkg/util"
)

// DefaultFile is the template file used when none is configured.
const DefaultFile = "template.json"

var (
	ErrEmptyCategory = errors.New("category must not be empty")
	ErrMalformedLine = errors.New(`line must look like "08:00-10:00 Study"`)
)

// EntryError identifies the template entry that failed validation.
type EntryError struct {
	Range    string
	Category string
	Err      error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("template entry %q -> %q: %v", e.Range, e.Category, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Entry is one time block of the day.
type Entry struct {
	Range    string
	Category string
}

// Bounds returns the block's start and end in minutes since midnight.
func (e Entry) Bounds() (start, end int, err error) {
	return util.ParseRange(e.Range)
}

// Template is an ordered mapping from time range to category.
type Template struct {
	entries []Entry
}

func New() *Template {
	return &Template{}
}

// Build validates pairs in order and returns the resulting template. The
// first invalid pair aborts the build.
func Build(pairs []Entry) (*Template, error) {
	t := New()
	for _, p := range pairs {
		if err := t.Set(p.Range, p.Category); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Set validates and stores a block. The range is stored in canonical
// "HH:MM-HH:MM" form. Setting a range that is already present replaces its
// category without moving it.
func (t *Template) Set(timeRange, category string) error {
	category = strings.TrimSpace(category)
	canonical, err := util.CanonicalRange(timeRange)
	if err != nil {
		return &EntryError{Range: timeRange, Category: category, Err: err}
	}
	if category == "" {
		return &EntryError{Range: timeRange, Category: category, Err: ErrEmptyCategory}
	}

	for i := range t.entries {
		if t.entries[i].Range == canonical {
			t.entries[i].Category = category
			return nil
		}
	}
	t.entries = append(t.entries, Entry{Range: canonical, Category: category})
	return nil
}

// Remove deletes the block with the given range and reports whether it
// existed.
func (t *Template) Remove(timeRange string) bool {
	canonical, err := util.CanonicalRange(timeRange)
	if err != nil {
		return false
	}
	for i := range t.entries {
		if t.entries[i].Range == canonical {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a copy of the blocks in planning order.
func (t *Template) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Template) Len() int {
	return len(t.entries)
}

// Category returns the category for a range, if present.
func (t *Template) Category(timeRange string) (string, bool) {
	canonical, err := util.CanonicalRange(timeRange)
	if err != nil {
		return "", false
	}
	for _, e := range t.entries {
		if e.Range == canonical {
			return e.Category, true
		}
	}
	return "", false
}

// Overlaps returns every pair of blocks whose ranges intersect. Overlapping
// blocks are allowed but produce slots that collide across blocks.
func (t *Template) Overlaps() [][2]Entry {
	var out [][2]Entry
	for i := 0; i < len(t.entries); i++ {
		s1, e1, err := t.entries[i].Bounds()
		if err != nil {
			continue
		}
		for j := i + 1; j < len(t.entries); j++ {
			s2, e2, err := t.entries[j].Bounds()
			if err != nil {
				continue
			}
			if s1 < e2 && s2 < e1 {
				out = append(out, [2]Entry{t.entries[i], t.entries[j]})
			}
		}
	}
	return out
}

// MarshalJSON writes a flat object with keys in template order.
func (t *Template) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalString(e.Range)
		if err != nil {
			return nil, err
		}
		v, err := marshalString(e.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads a flat object, keeping the key order of the input.
// Every entry is validated.
func (t *Template) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode template: %w", err)
	}
	if tok == nil {
		t.entries = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("failed to decode template: expected an object, got %v", tok)
	}

	parsed := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode template: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("failed to decode template: unexpected key %v", keyTok)
		}
		var category string
		if err := dec.Decode(&category); err != nil {
			return fmt.Errorf("failed to decode template category for %q: %w", key, err)
		}
		if err := parsed.Set(key, category); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to decode template: %w", err)
	}

	t.entries = parsed.entries
	return nil
}

// Load reads the template file at path. The boolean is false when the file
// does not exist, in which case the template is empty.
func Load(path string) (*Template, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), false, nil
		}
		return nil, false, err
	}
	t := New()
	if err := json.Unmarshal(b, t); err != nil {
		return nil, true, fmt.Errorf("failed to load template '%s': %w", path, err)
	}
	return t, true, nil
}

// Save writes the template to path as indented JSON.
func (t *Template) Save(path string) error {
	b, err := t.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create template directory: %w", err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// String renders one "range category" line per block.
func (t *Template) String() string {
	var b strings.Builder
	for _, e := range t.entries {
		fmt.Fprintf(&b, "%s %s\n", e.Range, e.Category)
	}
	return b.String()
}

// WriteTo writes the String form to w.
func (t *Template) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.String())
	return int64(n), err
}
