package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/dayplan/pkg/planner"
	"google.golang.org/api/calendar/v3"
)

const (
	// DateLayout is the format of plan dates in flags and event properties.
	DateLayout = "2006-01-02"

	slotKeyProperty = "dayplan_slot"
	dateProperty    = "dayplan_date"
)

var slotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/harrisonrobin/dayplan/slot"))

// SlotKey identifies a slot across pushes of the same day. It depends on the
// date, the block, the task title and how many earlier slots of the block
// carry the same title, so re-planning a task into a new time within the
// same block updates the existing event while same-titled tasks keep
// separate events.
func SlotKey(date time.Time, block planner.Block, slot planner.Slot) string {
	occurrence := 0
	for _, s := range block.Slots {
		if s.Task == slot.Task {
			break
		}
		if s.Task.Title == slot.Task.Title {
			occurrence++
		}
	}
	name := strings.Join([]string{
		date.Format(DateLayout), block.Range, block.Category, slot.Task.Title, strconv.Itoa(occurrence),
	}, "|")
	return uuid.NewSHA1(slotNamespace, []byte(name)).String()
}

// SlotTimes places a slot on date, in date's location.
func SlotTimes(date time.Time, slot planner.Slot) (start, end time.Time) {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return midnight.Add(time.Duration(slot.StartMinute) * time.Minute),
		midnight.Add(time.Duration(slot.EndMinute) * time.Minute)
}

// ConvertSlotToCalendarEvent builds the event for a slot of a plan.
func ConvertSlotToCalendarEvent(date time.Time, mode planner.Mode, block planner.Block, slot planner.Slot, colorID string) *calendar.Event {
	start, end := SlotTimes(date, slot)
	task := slot.Task

	var desc strings.Builder
	fmt.Fprintf(&desc, "Category: %s\n", block.Category)
	fmt.Fprintf(&desc, "Block: %s\n", block.Range)
	fmt.Fprintf(&desc, "Estimate: %d min (x%.2f %s)\n", task.EstimatedTime, mode.Multiplier(), mode)
	if due := task.Due(); due != "" {
		fmt.Fprintf(&desc, "Due: %s\n", due)
	}
	if len(task.Subtasks) > 0 {
		fmt.Fprintf(&desc, "\nSubtasks (%.0f%%):\n", task.Progress())
		for _, sub := range task.Subtasks {
			mark := " "
			if sub.Completed {
				mark = "x"
			}
			fmt.Fprintf(&desc, "‣ [%s] %s\n", mark, sub.Title)
		}
	}

	return &calendar.Event{
		Summary:     task.Title,
		Description: desc.String(),
		ColorId:     colorID,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				slotKeyProperty: SlotKey(date, block, slot),
				dateProperty:    date.Format(DateLayout),
			},
		},
	}
}

// EventNeedsUpdate returns a patch with the fields of target that differ
// from existing, or nil when they match.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	sameTime, err := sameEventTime(existing, target)
	if err != nil {
		return nil, err
	}
	if !sameTime {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameEventTime(a, b *calendar.Event) (bool, error) {
	if a.Start == nil || a.End == nil || b.Start == nil || b.End == nil {
		return false, nil
	}
	pairs := [][2]string{{a.Start.DateTime, b.Start.DateTime}, {a.End.DateTime, b.End.DateTime}}
	for _, p := range pairs {
		x, err := time.Parse(time.RFC3339, p[0])
		if err != nil {
			return false, err
		}
		y, err := time.Parse(time.RFC3339, p[1])
		if err != nil {
			return false, err
		}
		if !x.Equal(y) {
			return false, nil
		}
	}
	return true, nil
}
