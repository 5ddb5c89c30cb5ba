package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/dayplan/pkg/google"
	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/planner"
	"github.com/spf13/cobra"
)

var errEmptyTemplate = errors.New("template has no blocks; add some with 'dayplan template add'")

type planOptions struct {
	mode     string
	plain    bool
	push     bool
	date     string
	calendar string
}

func newPlanCmd(a *app) *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate today's plan from the template and open tasks",
		Long: `Generate a plan by filling each template block, in order, with open tasks
of the block's category. Tasks are taken in list order and skipped when their
padded estimate does not fit the time left in the block.

Without a saved template you are asked to enter one first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.mode, "mode", "m", "", "planning mode: normal or relaxed (default from config)")
	flags.BoolVar(&opts.plain, "plain", false, "print the plan as plain text")
	flags.BoolVar(&opts.push, "push", false, "push the plan to Google Calendar")
	flags.StringVar(&opts.date, "date", "", "calendar date of the plan, YYYY-MM-DD (default today)")
	flags.StringVar(&opts.calendar, "calendar", "", "Google Calendar name (default from config)")
	return cmd
}

func (a *app) runPlan(cmd *cobra.Command, opts planOptions) error {
	modeName := opts.mode
	if modeName == "" {
		modeName = a.cfg.Mode
	}
	mode, err := planner.ParseMode(modeName)
	if err != nil {
		return err
	}

	date := time.Now()
	if opts.date != "" {
		date, err = time.ParseInLocation(google.DateLayout, opts.date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", opts.date, err)
		}
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	tmpl, exists, err := a.loadTemplate()
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved template found.")
		if tmpl, err = a.collectTemplate(cmd, nil); err != nil {
			return err
		}
	}
	if tmpl.Len() == 0 {
		return errEmptyTemplate
	}
	a.warnOverlaps(tmpl)

	plan, err := planner.Generate(tmpl, s.Tasks(), mode)
	if err != nil {
		return err
	}
	a.log.Info("plan generated", "mode", string(mode), "blocks", len(plan.Blocks), "slots", plan.SlotCount())

	out := cmd.OutOrStdout()
	if opts.plain {
		err = planner.RenderPlain(out, plan)
	} else {
		err = planner.Render(out, plan)
		if err == nil {
			printUnscheduled(cmd, plan.Unscheduled(s.Tasks()))
		}
	}
	if err != nil {
		return err
	}

	if !opts.push {
		return nil
	}
	name := opts.calendar
	if name == "" {
		name = a.cfg.Calendar
	}
	return a.pushPlan(cmd.Context(), cmd, plan, date, name, s.Tasks())
}

func printUnscheduled(cmd *cobra.Command, tasks []*model.Task) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Not scheduled:")
	for _, t := range tasks {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", t, t.Category)
	}
}

func (a *app) pushPlan(ctx context.Context, cmd *cobra.Command, plan *planner.Plan, date time.Time, calendarName string, tasks []*model.Task) error {
	client, err := a.calendarClient(ctx, calendarName)
	if err != nil {
		return fmt.Errorf("error creating Google Calendar client: %w", err)
	}

	res, pushErr := client.PushPlan(ctx, plan, date)

	// Pushing rewrites summaries, so overdue markers go on afterwards.
	marked, sweepErr := client.SweepOverdue(ctx, time.Now(), tasks)
	if sweepErr != nil {
		a.log.Warn("overdue sweep incomplete", "error", sweepErr)
	}

	if err := client.Save(); err != nil {
		a.log.Warn("failed to save calendar state", "error", err)
	}
	if pushErr != nil {
		return pushErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pushed to %s for %s: %d created, %d updated, %d unchanged, %d deleted",
		calendarName, date.Format(google.DateLayout), res.Created, res.Updated, res.Unchanged, res.Deleted)
	if marked > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d marked overdue", marked)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func (a *app) calendarClient(ctx context.Context, name string) (*google.CalendarClient, error) {
	if a.newCalendar != nil {
		return a.newCalendar(ctx, name)
	}
	return google.NewClient(ctx, name, a.configDir, a.log)
}
