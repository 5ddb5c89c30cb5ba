package template

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseLine reads a "08:00-10:00 Study" line into a validated entry.
func ParseLine(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Entry{}, &EntryError{Range: strings.TrimSpace(line), Err: ErrMalformedLine}
	}
	probe := New()
	if err := probe.Set(fields[0], fields[1]); err != nil {
		return Entry{}, err
	}
	return probe.entries[0], nil
}

// Collect reads template lines from r until a blank line or EOF, prompting
// on w. Invalid lines are reported and skipped so the user can retype them.
// Lines are applied on top of base, which may be nil.
func Collect(r io.Reader, w io.Writer, base *Template) (*Template, error) {
	t := New()
	if base != nil {
		t.entries = base.Entries()
	}

	fmt.Fprintln(w, "Enter time blocks, one per line (blank line to finish)")
	fmt.Fprintln(w, "Format: 08:00-10:00 Study")

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		entry, err := ParseLine(line)
		if err != nil {
			fmt.Fprintf(w, "%v\n", err)
			continue
		}
		// ParseLine already validated the entry.
		_ = t.Set(entry.Range, entry.Category)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read template input: %w", err)
	}
	return t, nil
}
