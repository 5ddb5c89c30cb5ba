package google

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
)

// EventService is the part of the Calendar events API the plan push uses.
type EventService interface {
	Get(ctx context.Context, eventID string) (*calendar.Event, error)
	Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	Patch(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error)
	Delete(ctx context.Context, eventID string) error
	// ListByProperty returns events carrying the private extended
	// property key=value.
	ListByProperty(ctx context.Context, key, value string) ([]*calendar.Event, error)
}

// calendarEvents implements EventService on one calendar of a Calendar API
// service.
type calendarEvents struct {
	srv        *calendar.Service
	calendarID string
}

// NewEventService binds the events API of srv to calendarID.
func NewEventService(srv *calendar.Service, calendarID string) EventService {
	return &calendarEvents{srv: srv, calendarID: calendarID}
}

func (c *calendarEvents) Get(ctx context.Context, eventID string) (*calendar.Event, error) {
	return c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
}

func (c *calendarEvents) Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
}

func (c *calendarEvents) Patch(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

func (c *calendarEvents) Delete(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

func (c *calendarEvents) ListByProperty(ctx context.Context, key, value string) ([]*calendar.Event, error) {
	var out []*calendar.Event
	call := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", key, value)).
		ShowDeleted(false)
	err := call.Pages(ctx, func(page *calendar.Events) error {
		out = append(out, page.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
