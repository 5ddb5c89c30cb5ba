package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/dayplan/pkg/auth"
	"github.com/harrisonrobin/dayplan/pkg/colors"
	"github.com/harrisonrobin/dayplan/pkg/index"
	"github.com/harrisonrobin/dayplan/pkg/logging"
	"github.com/harrisonrobin/dayplan/pkg/overdue"
)

// NewClient authenticates, resolves calendarName to its id and loads the
// local state kept in configDir. State files that fail to load are logged
// and skipped.
func NewClient(ctx context.Context, calendarName, configDir string, log *logging.Logger) (*CalendarClient, error) {
	srv, err := auth.GetCalendarService(ctx, configDir)
	if err != nil {
		return nil, err
	}

	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar '%s' not found", calendarName)
	}

	idx, err := index.NewEventIndex(configDir)
	if err != nil {
		log.Warn("failed to load event index", "error", err)
		idx = nil
	}
	cc, err := colors.NewColorCache(configDir)
	if err != nil {
		log.Warn("failed to load color cache", "error", err)
		cc = nil
	}
	sweep, err := overdue.NewTable(configDir)
	if err != nil {
		log.Warn("failed to load overdue table", "error", err)
		sweep = nil
	}

	return NewCalendarClient(NewEventService(srv, calendarID), idx, cc, sweep, log), nil
}
