package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/dayplan/pkg/colors"
	"github.com/harrisonrobin/dayplan/pkg/index"
	"github.com/harrisonrobin/dayplan/pkg/logging"
	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/overdue"
	"github.com/harrisonrobin/dayplan/pkg/planner"
	"google.golang.org/api/calendar/v3"
)

// OverduePrefix marks events whose slot passed while the task stayed open.
const OverduePrefix = "! "

type SyncAction int

const (
	Unchanged SyncAction = iota
	Created
	Updated
)

// PushResult counts what a plan push did on the calendar.
type PushResult struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
}

// CalendarClient pushes plans to one Google Calendar. The index, color
// cache and overdue table are optional.
type CalendarClient struct {
	events EventService
	index  *index.EventIndex
	colors *colors.ColorCache
	sweep  *overdue.Table
	log    *logging.Logger
}

// NewCalendarClient wires a client from its parts. Nil state holders are
// allowed and simply skipped.
func NewCalendarClient(events EventService, idx *index.EventIndex, cc *colors.ColorCache, sweep *overdue.Table, log *logging.Logger) *CalendarClient {
	if log == nil {
		log = logging.Discard()
	}
	return &CalendarClient{events: events, index: idx, colors: cc, sweep: sweep, log: log}
}

// SyncEvent creates the event for slotKey or patches the existing one when
// it differs from target.
func (c *CalendarClient) SyncEvent(ctx context.Context, slotKey string, target *calendar.Event) (*calendar.Event, SyncAction, error) {
	var existing *calendar.Event

	if c.index != nil {
		if eventID := c.index.Get(slotKey); eventID != "" {
			ev, err := c.events.Get(ctx, eventID)
			if err == nil && ev.Status != "cancelled" {
				existing = ev
			}
		}
	}

	if existing == nil {
		ev, err := c.GetEventBySlotKey(ctx, slotKey)
		if err != nil {
			return nil, Unchanged, fmt.Errorf("error searching for event: %w", err)
		}
		existing = ev
	}

	if existing != nil {
		patch, err := EventNeedsUpdate(existing, target)
		if err != nil {
			return nil, Unchanged, fmt.Errorf("could not compare slot with its calendar event: %w", err)
		}
		if patch == nil {
			c.remember(slotKey, existing.Id)
			return existing, Unchanged, nil
		}
		updated, err := c.events.Patch(ctx, existing.Id, patch)
		if err != nil {
			return nil, Unchanged, err
		}
		c.remember(slotKey, updated.Id)
		return updated, Updated, nil
	}

	created, err := c.events.Insert(ctx, target)
	if err != nil {
		return nil, Unchanged, err
	}
	c.remember(slotKey, created.Id)
	return created, Created, nil
}

func (c *CalendarClient) remember(slotKey, eventID string) {
	if c.index != nil {
		c.index.Set(slotKey, eventID)
	}
}

// GetEventBySlotKey finds the event carrying the slot key, or nil.
func (c *CalendarClient) GetEventBySlotKey(ctx context.Context, slotKey string) (*calendar.Event, error) {
	events, err := c.events.ListByProperty(ctx, slotKeyProperty, slotKey)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		return events[0], nil
	}
	return nil, nil
}

// PushPlan makes the calendar match plan for date: one event per slot, and
// events from earlier pushes of the same date that are no longer in the
// plan are deleted.
func (c *CalendarClient) PushPlan(ctx context.Context, plan *planner.Plan, date time.Time) (PushResult, error) {
	var result PushResult
	keep := make(map[string]bool)

	for _, block := range plan.Blocks {
		colorID := colors.UncategorizedColor
		if c.colors != nil {
			colorID = c.colors.ColorID(block.Category)
		}
		for _, slot := range block.Slots {
			key := SlotKey(date, block, slot)
			keep[key] = true

			target := ConvertSlotToCalendarEvent(date, plan.Mode, block, slot, colorID)
			event, action, err := c.SyncEvent(ctx, key, target)
			if err != nil {
				return result, fmt.Errorf("slot %s %s: %w", slot.Start, slot.Task.Title, err)
			}
			switch action {
			case Created:
				result.Created++
			case Updated:
				result.Updated++
			default:
				result.Unchanged++
			}
			c.log.Debug("slot synced", "key", key, "event", event.Id, "action", int(action))

			if c.sweep != nil {
				_, end := SlotTimes(date, slot)
				c.sweep.Update(key, overdue.Entry{
					EventID:  event.Id,
					Summary:  target.Summary,
					Title:    slot.Task.Title,
					Category: block.Category,
					End:      end,
				})
			}
		}
	}

	existing, err := c.events.ListByProperty(ctx, dateProperty, date.Format(DateLayout))
	if err != nil {
		return result, fmt.Errorf("unable to list events for %s: %w", date.Format(DateLayout), err)
	}
	for _, ev := range existing {
		key := ""
		if ev.ExtendedProperties != nil {
			key = ev.ExtendedProperties.Private[slotKeyProperty]
		}
		if key == "" || keep[key] {
			continue
		}
		if err := c.events.Delete(ctx, ev.Id); err != nil {
			return result, fmt.Errorf("error deleting stale event %s: %w", ev.Id, err)
		}
		if c.index != nil {
			c.index.Remove(key)
		}
		if c.sweep != nil {
			c.sweep.Remove(key)
		}
		result.Deleted++
	}

	return result, nil
}

// SweepOverdue prefixes OverduePrefix to pushed events that ended before
// now while a matching top-level task is still open. It returns how many
// events were marked. Slots whose event could not be patched are kept for
// the next sweep.
func (c *CalendarClient) SweepOverdue(ctx context.Context, now time.Time, tasks []*model.Task) (int, error) {
	if c.sweep == nil {
		return 0, nil
	}

	type key struct{ title, category string }
	open := make(map[key]bool)
	for _, t := range tasks {
		if !t.Completed {
			open[key{t.Title, t.Category}] = true
		}
	}

	marked := 0
	var errs []error
	for slotKey, entry := range c.sweep.Sweep(now, func(e overdue.Entry) bool {
		return open[key{e.Title, e.Category}]
	}) {
		patch := &calendar.Event{Summary: OverduePrefix + entry.Summary}
		if _, err := c.events.Patch(ctx, entry.EventID, patch); err != nil {
			c.log.Warn("could not mark overdue slot", "key", slotKey, "event", entry.EventID, "error", err)
			errs = append(errs, err)
			continue
		}
		c.sweep.Remove(slotKey)
		marked++
	}
	return marked, errors.Join(errs...)
}

// Save persists the index, color cache and overdue table.
func (c *CalendarClient) Save() error {
	var errs []error
	if c.index != nil {
		errs = append(errs, c.index.Save())
	}
	if c.colors != nil {
		errs = append(errs, c.colors.Save())
	}
	if c.sweep != nil {
		errs = append(errs, c.sweep.Save())
	}
	return errors.Join(errs...)
}
