package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/store"
	"github.com/spf13/cobra"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task list",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks with their progress",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			return listTasks(cmd.OutOrStdout(), s)
		},
	}

	var category, estimate, due string
	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := model.ParseMinutes(estimate)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			task := model.NewTask(args[0], category, est, due)
			s.Add(task)
			if err := s.Save(); err != nil {
				return err
			}
			a.log.Info("task added", "title", task.Title, "category", task.Category, "estimate", int(task.EstimatedTime))
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d %s\n", s.Len(), task)
			return nil
		},
	}
	add.Flags().StringVarP(&category, "category", "C", model.DefaultCategory, "category matched against template blocks")
	add.Flags().StringVarP(&estimate, "estimate", "e", "0", "estimated time in minutes or as an ISO 8601 duration")
	add.Flags().StringVarP(&due, "due", "d", "", "due date")

	var subEstimate, subDue string
	subtask := &cobra.Command{
		Use:   "subtask INDEX TITLE",
		Short: "Add a subtask to the task at INDEX",
		Long:  "Add a subtask to the task at INDEX. The subtask takes the parent's category.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			est, err := model.ParseMinutes(subEstimate)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			parent, err := s.Get(args[0])
			if err != nil {
				return err
			}
			sub := model.NewTask(args[1], parent.Category, est, subDue)
			if _, err := s.AddSubtask(args[0], sub); err != nil {
				return err
			}
			if err := s.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s.%d %s\n", args[0], len(parent.Subtasks), sub)
			return nil
		},
	}
	subtask.Flags().StringVarP(&subEstimate, "estimate", "e", "0", "estimated time in minutes or as an ISO 8601 duration")
	subtask.Flags().StringVarP(&subDue, "due", "d", "", "due date")

	done := refCommand(a, "done INDEX", "Mark a task or subtask (e.g. 1 or 1.2) completed", (*store.Store).MarkCompleted)
	undo := refCommand(a, "undo INDEX", "Mark a task or subtask uncompleted", (*store.Store).MarkUncompleted)
	rm := refCommand(a, "rm INDEX", "Delete a task or subtask", (*store.Store).Delete)
	rm.Aliases = []string{"delete"}

	cmd.AddCommand(list, add, subtask, done, undo, rm)
	return cmd
}

// refCommand builds a command that applies op to the task named by its one
// argument, saves, and lists the tasks again.
func refCommand(a *app, use, short string, op func(*store.Store, string) (*model.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			task, err := op(s, args[0])
			if err != nil {
				return err
			}
			if err := s.Save(); err != nil {
				return err
			}
			a.log.Info("task updated", "ref", args[0], "title", task.Title, "completed", task.Completed)
			return listTasks(cmd.OutOrStdout(), s)
		},
	}
}

func listTasks(w io.Writer, s *store.Store) error {
	if s.Len() == 0 {
		_, err := fmt.Fprintln(w, "No tasks found")
		return err
	}

	r := lipgloss.NewRenderer(w)
	doneStyle := r.NewStyle().Foreground(lipgloss.Color("10"))
	pendingStyle := r.NewStyle().Foreground(lipgloss.Color("11"))
	status := func(t *model.Task) string {
		if t.Completed {
			return doneStyle.Render("[✓]")
		}
		return pendingStyle.Render("[ ]")
	}

	for i, task := range s.Tasks() {
		idx := strconv.Itoa(i + 1)
		fmt.Fprintf(w, "%s%s %s\n", status(task), idx, task)
		for j, sub := range task.Subtasks {
			fmt.Fprintf(w, "   %s%s.%d %s\n", status(sub), idx, j+1, sub)
		}
	}
	progress := r.NewStyle().Bold(true).Render(fmt.Sprintf("Progress: %.2f%%", s.OverallProgress()))
	_, err := fmt.Fprintln(w, progress)
	return err
}
