package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/dayplan/pkg/index"
	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/overdue"
	"github.com/harrisonrobin/dayplan/pkg/planner"
	"github.com/harrisonrobin/dayplan/pkg/template"
	"google.golang.org/api/calendar/v3"
)

// fakeEvents is an in-memory EventService.
type fakeEvents struct {
	events  map[string]*calendar.Event
	nextID  int
	inserts int
	patches int
	deletes int
	// patchErr, when set, fails every Patch.
	patchErr error
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[string]*calendar.Event)}
}

func (f *fakeEvents) Get(_ context.Context, id string) (*calendar.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return ev, nil
}

func (f *fakeEvents) Insert(_ context.Context, ev *calendar.Event) (*calendar.Event, error) {
	f.nextID++
	f.inserts++
	stored := *ev
	stored.Id = fmt.Sprintf("ev%d", f.nextID)
	f.events[stored.Id] = &stored
	return &stored, nil
}

func (f *fakeEvents) Patch(_ context.Context, id string, patch *calendar.Event) (*calendar.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, errors.New("not found")
	}
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	f.patches++
	if patch.Summary != "" {
		ev.Summary = patch.Summary
	}
	if patch.Description != "" {
		ev.Description = patch.Description
	}
	if patch.ColorId != "" {
		ev.ColorId = patch.ColorId
	}
	if patch.Start != nil {
		ev.Start = patch.Start
	}
	if patch.End != nil {
		ev.End = patch.End
	}
	return ev, nil
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return errors.New("not found")
	}
	f.deletes++
	delete(f.events, id)
	return nil
}

func (f *fakeEvents) ListByProperty(_ context.Context, key, value string) ([]*calendar.Event, error) {
	var out []*calendar.Event
	for _, ev := range f.events {
		if ev.ExtendedProperties != nil && ev.ExtendedProperties.Private[key] == value {
			out = append(out, ev)
		}
	}
	return out, nil
}

var planDate = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func testPlan(t *testing.T, tasks []*model.Task) *planner.Plan {
	t.Helper()
	tmpl, err := template.Build([]template.Entry{
		{Range: "09:00-10:00", Category: "work"},
		{Range: "18:00-19:00", Category: "home"},
	})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := planner.Generate(tmpl, tasks, planner.Normal)
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func testTasks() []*model.Task {
	return []*model.Task{
		model.NewTask("Write report", "work", 20, "2026-10-20"),
		model.NewTask("Review PR", "work", 8, ""),
		model.NewTask("Laundry", "home", 40, ""),
	}
}

func TestConvertSlotToCalendarEvent(t *testing.T) {
	plan := testPlan(t, testTasks())
	block := plan.Blocks[0]
	slot := block.Slots[0]

	ev := ConvertSlotToCalendarEvent(planDate, plan.Mode, block, slot, "5")

	if ev.Summary != "Write report" {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if ev.Start.DateTime != "2026-10-18T09:00:00Z" || ev.End.DateTime != "2026-10-18T09:25:00Z" {
		t.Errorf("times = %s..%s", ev.Start.DateTime, ev.End.DateTime)
	}
	if ev.ColorId != "5" {
		t.Errorf("ColorId = %q", ev.ColorId)
	}
	for _, want := range []string{"Category: work", "Block: 09:00-10:00", "Estimate: 20 min", "Due: 2026-10-20"} {
		if !strings.Contains(ev.Description, want) {
			t.Errorf("description missing %q:\n%s", want, ev.Description)
		}
	}
	props := ev.ExtendedProperties.Private
	if props[slotKeyProperty] != SlotKey(planDate, block, slot) {
		t.Errorf("slot key property = %q", props[slotKeyProperty])
	}
	if props[dateProperty] != "2026-10-18" {
		t.Errorf("date property = %q", props[dateProperty])
	}
}

func TestSlotKeyStable(t *testing.T) {
	a := testPlan(t, testTasks())
	b := testPlan(t, testTasks())
	ka := SlotKey(planDate, a.Blocks[0], a.Blocks[0].Slots[1])
	kb := SlotKey(planDate, b.Blocks[0], b.Blocks[0].Slots[1])
	if ka != kb {
		t.Errorf("keys differ across identical plans: %s vs %s", ka, kb)
	}
	if other := SlotKey(planDate.AddDate(0, 0, 1), a.Blocks[0], a.Blocks[0].Slots[1]); other == ka {
		t.Error("key does not depend on the date")
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	base := func() *calendar.Event {
		return &calendar.Event{
			Summary: "A",
			ColorId: "1",
			Start:   &calendar.EventDateTime{DateTime: "2026-10-18T09:00:00Z"},
			End:     &calendar.EventDateTime{DateTime: "2026-10-18T09:30:00Z"},
		}
	}

	same := base()
	same.Start.DateTime = "2026-10-18T11:00:00+02:00"
	if patch, err := EventNeedsUpdate(base(), same); err != nil || patch != nil {
		t.Errorf("equal instants: patch = %+v, err = %v", patch, err)
	}

	renamed := base()
	renamed.Summary = "B"
	patch, err := EventNeedsUpdate(base(), renamed)
	if err != nil || patch == nil {
		t.Fatalf("rename: patch = %v, err = %v", patch, err)
	}
	if patch.Summary != "B" || patch.Start != nil {
		t.Errorf("rename patch = %+v", patch)
	}

	moved := base()
	moved.End.DateTime = "2026-10-18T10:00:00Z"
	patch, _ = EventNeedsUpdate(base(), moved)
	if patch == nil || patch.Start == nil || patch.End == nil {
		t.Errorf("move patch = %+v", patch)
	}

	bad := base()
	bad.Start.DateTime = "not a time"
	if _, err := EventNeedsUpdate(base(), bad); err == nil {
		t.Error("expected an error for an unparsable time")
	}
}

func TestPushPlan(t *testing.T) {
	ctx := context.Background()
	fake := newFakeEvents()
	dir := t.TempDir()
	idx, err := index.NewEventIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	client := NewCalendarClient(fake, idx, nil, nil, nil)

	tasks := testTasks()
	res, err := client.PushPlan(ctx, testPlan(t, tasks), planDate)
	if err != nil {
		t.Fatalf("first push: %v", err)
	}
	if res != (PushResult{Created: 3}) {
		t.Errorf("first push = %+v", res)
	}

	res, err = client.PushPlan(ctx, testPlan(t, tasks), planDate)
	if err != nil {
		t.Fatalf("second push: %v", err)
	}
	if res != (PushResult{Unchanged: 3}) {
		t.Errorf("second push = %+v", res)
	}

	// Dropping the first work task moves the second one to 09:00.
	tasks[0].MarkCompleted()
	res, err = client.PushPlan(ctx, testPlan(t, tasks), planDate)
	if err != nil {
		t.Fatalf("third push: %v", err)
	}
	if res != (PushResult{Updated: 1, Unchanged: 1, Deleted: 1}) {
		t.Errorf("third push = %+v", res)
	}
	if len(fake.events) != 2 {
		t.Errorf("calendar holds %d events, want 2", len(fake.events))
	}
	for _, ev := range fake.events {
		if ev.Summary == "Review PR" && ev.Start.DateTime != "2026-10-18T09:00:00Z" {
			t.Errorf("Review PR starts at %s", ev.Start.DateTime)
		}
	}
}

func TestPushPlanStaleIndex(t *testing.T) {
	ctx := context.Background()
	fake := newFakeEvents()
	idx, err := index.NewEventIndex(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := NewCalendarClient(fake, idx, nil, nil, nil)
	plan := testPlan(t, testTasks())

	if _, err := client.PushPlan(ctx, plan, planDate); err != nil {
		t.Fatal(err)
	}
	for key := range idx.Mappings {
		idx.Set(key, "gone")
	}

	res, err := client.PushPlan(ctx, plan, planDate)
	if err != nil {
		t.Fatal(err)
	}
	if res.Unchanged != 3 || fake.inserts != 3 {
		t.Errorf("push with stale index = %+v, inserts = %d", res, fake.inserts)
	}
	for key, id := range idx.Mappings {
		if id == "gone" {
			t.Errorf("index entry %s was not repaired", key)
		}
	}
}

func TestSweepOverdue(t *testing.T) {
	ctx := context.Background()
	fake := newFakeEvents()
	table, err := overdue.NewTable(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := NewCalendarClient(fake, nil, nil, table, nil)

	tasks := testTasks()
	if _, err := client.PushPlan(ctx, testPlan(t, tasks), planDate); err != nil {
		t.Fatal(err)
	}
	tasks[1].MarkCompleted()

	// Both work slots have ended; Laundry at 18:00 has not.
	now := planDate.Add(12 * time.Hour)
	marked, err := client.SweepOverdue(ctx, now, tasks)
	if err != nil {
		t.Fatal(err)
	}
	if marked != 1 {
		t.Errorf("marked = %d, want 1", marked)
	}

	var summaries []string
	for _, ev := range fake.events {
		if strings.HasPrefix(ev.Summary, OverduePrefix) {
			summaries = append(summaries, ev.Summary)
		}
	}
	if len(summaries) != 1 || summaries[0] != "! Write report" {
		t.Errorf("overdue summaries = %v", summaries)
	}
	if len(table.Entries) != 1 {
		t.Errorf("table keeps %d entries, want 1", len(table.Entries))
	}

	marked, _ = client.SweepOverdue(ctx, now, tasks)
	if marked != 0 {
		t.Errorf("second sweep marked %d", marked)
	}
}

func TestPushPlanSameTitledTasks(t *testing.T) {
	ctx := context.Background()
	fake := newFakeEvents()
	idx, err := index.NewEventIndex(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	table, err := overdue.NewTable(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := NewCalendarClient(fake, idx, nil, table, nil)

	tasks := []*model.Task{
		model.NewTask("Email", "work", 8, ""),
		model.NewTask("Email", "work", 8, ""),
	}
	plan := testPlan(t, tasks)
	slots := plan.Blocks[0].Slots
	if len(slots) != 2 {
		t.Fatalf("plan has %d work slots, want 2", len(slots))
	}
	if SlotKey(planDate, plan.Blocks[0], slots[0]) == SlotKey(planDate, plan.Blocks[0], slots[1]) {
		t.Fatal("same-titled slots share a key")
	}

	res, err := client.PushPlan(ctx, plan, planDate)
	if err != nil {
		t.Fatal(err)
	}
	if res != (PushResult{Created: 2}) {
		t.Errorf("push = %+v, want 2 created", res)
	}
	if len(fake.events) != 2 || len(table.Entries) != 2 {
		t.Errorf("events = %d, overdue entries = %d, want 2 each", len(fake.events), len(table.Entries))
	}

	res, err = client.PushPlan(ctx, testPlan(t, tasks), planDate)
	if err != nil {
		t.Fatal(err)
	}
	if res != (PushResult{Unchanged: 2}) {
		t.Errorf("second push = %+v, want 2 unchanged", res)
	}
}

func TestSweepOverdueRetriesFailedMarks(t *testing.T) {
	ctx := context.Background()
	fake := newFakeEvents()
	table, err := overdue.NewTable(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := NewCalendarClient(fake, nil, nil, table, nil)

	tasks := testTasks()
	if _, err := client.PushPlan(ctx, testPlan(t, tasks), planDate); err != nil {
		t.Fatal(err)
	}
	now := planDate.Add(12 * time.Hour)

	fake.patchErr = errors.New("backend unavailable")
	marked, err := client.SweepOverdue(ctx, now, tasks)
	if err == nil || marked != 0 {
		t.Fatalf("failing sweep: marked = %d, err = %v", marked, err)
	}
	if len(table.Entries) != 3 {
		t.Errorf("table keeps %d entries after failed marks, want 3", len(table.Entries))
	}

	fake.patchErr = nil
	marked, err = client.SweepOverdue(ctx, now, tasks)
	if err != nil {
		t.Fatal(err)
	}
	if marked != 2 {
		t.Errorf("retry marked %d, want 2", marked)
	}
	if len(table.Entries) != 1 {
		t.Errorf("table keeps %d entries, want only the future slot", len(table.Entries))
	}
}
