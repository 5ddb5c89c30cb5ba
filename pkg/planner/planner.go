// Package planner fills the blocks of a day template with pending tasks.
//
// Planning is greedy first-fit: blocks are visited in template order, and
// for each block the task list is scanned in its stored order. An incomplete
// task whose category equals the block's category is placed at the block's
// cursor when its effective duration fits in the time left. Tasks that do
// not fit are skipped, and smaller tasks further down the list may still be
// placed. Nothing is reordered and nothing is deferred to later blocks.
//
// The fit test uses whole minutes: the effective duration is rounded down
// once, and that same value is compared against and subtracted from the
// remaining capacity. A task that needs exactly the remaining time fits.
//
// A task whose category matches several blocks is placed in every block it
// fits in, because planning never marks tasks as scheduled.
package planner

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/template"
	"github.com/harrisonrobin/dayplan/pkg/util"
)

// Slot is a task placed at a time within a block.
type Slot struct {
	Task        *model.Task
	Start       string // "HH:MM"
	End         string // "HH:MM"
	StartMinute int
	EndMinute   int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s-%s %s", s.Start, s.End, s.Task.Title)
}

// Block is a template entry together with the slots placed in it.
type Block struct {
	Range     string
	Category  string
	Capacity  int // minutes
	Remaining int // minutes left after placing Slots
	Slots     []Slot
}

func (b Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s):", b.Range, b.Category)
	for _, s := range b.Slots {
		sb.WriteString("\n  ")
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Plan is the result of one planning run.
type Plan struct {
	Mode   Mode
	Blocks []Block
}

func (p *Plan) String() string {
	parts := make([]string, len(p.Blocks))
	for i, b := range p.Blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n")
}

// SlotCount is the number of slots across all blocks.
func (p *Plan) SlotCount() int {
	n := 0
	for _, b := range p.Blocks {
		n += len(b.Slots)
	}
	return n
}

// Unscheduled returns the incomplete tasks from tasks that received no slot.
func (p *Plan) Unscheduled(tasks []*model.Task) []*model.Task {
	placed := make(map[*model.Task]bool)
	for _, b := range p.Blocks {
		for _, s := range b.Slots {
			placed[s.Task] = true
		}
	}
	var out []*model.Task
	for _, t := range tasks {
		if !t.Completed && !placed[t] {
			out = append(out, t)
		}
	}
	return out
}

// Generate builds a plan for tmpl from tasks. It does not modify tasks or
// the template. An unknown mode returns a *ModeError and no plan.
func Generate(tmpl *template.Template, tasks []*model.Task, mode Mode) (*Plan, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	var entries []template.Entry
	if tmpl != nil {
		entries = tmpl.Entries()
	}
	plan := &Plan{Mode: mode, Blocks: make([]Block, 0, len(entries))}
	for _, entry := range entries {
		block, err := fillBlock(entry, tasks, mode)
		if err != nil {
			return nil, err
		}
		plan.Blocks = append(plan.Blocks, block)
	}
	return plan, nil
}

func fillBlock(entry template.Entry, tasks []*model.Task, mode Mode) (Block, error) {
	start, end, err := util.ParseRange(entry.Range)
	if err != nil {
		return Block{}, fmt.Errorf("block %q: %w", entry.Range, err)
	}

	block := Block{
		Range:     entry.Range,
		Category:  entry.Category,
		Capacity:  end - start,
		Remaining: end - start,
	}
	cursor := start

	for _, task := range tasks {
		if task.Completed || task.Category != entry.Category {
			continue
		}
		need := mode.EffectiveDuration(task.EstimatedTime)
		if need < 0 || need > block.Remaining {
			continue
		}
		block.Slots = append(block.Slots, Slot{
			Task:        task,
			Start:       util.MinutesToClock(cursor),
			End:         util.MinutesToClock(cursor + need),
			StartMinute: cursor,
			EndMinute:   cursor + need,
		})
		cursor += need
		block.Remaining -= need
	}
	return block, nil
}
