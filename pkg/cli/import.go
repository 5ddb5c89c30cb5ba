package cli

import (
	"fmt"

	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/orgmode"
	"github.com/harrisonrobin/dayplan/pkg/taskwarrior"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from other task managers",
		Long: `Import tasks from other task managers. Tasks whose title and category
already exist in the list are skipped.`,
	}

	var fromStdin bool
	tw := &cobra.Command{
		Use:   "taskwarrior [FILTER...]",
		Short: "Import pending Taskwarrior tasks",
		Long: `Import Taskwarrior tasks by running 'task FILTER export'. The project
becomes the category, the UDA "est" the estimate and due the due date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := taskwarrior.NewClient()
			var (
				twTasks []taskwarrior.Task
				err     error
			)
			if fromStdin {
				twTasks, err = client.ParseTasks(cmd.InOrStdin())
			} else {
				filter := args
				if len(filter) == 0 {
					filter = []string{"status:pending"}
				}
				twTasks, err = client.GetTasks(cmd.Context(), filter)
			}
			if err != nil {
				return err
			}
			return a.merge(cmd, "taskwarrior", taskwarrior.ToTasks(twTasks))
		},
	}
	tw.Flags().BoolVar(&fromStdin, "stdin", false, "read 'task export' JSON from stdin instead of running task")

	var category string
	org := &cobra.Command{
		Use:   "org FILE...",
		Short: "Import TODO headlines from Org-mode files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := orgmode.ParseFiles(args)
			if err != nil {
				return fmt.Errorf("failed to parse org files: %w", err)
			}
			if category != "" {
				tasks = orgmode.FilterByCategory(tasks, category)
			}
			return a.merge(cmd, "org", tasks)
		},
	}
	org.Flags().StringVarP(&category, "category", "C", "", "only import tasks in this category")

	cmd.AddCommand(tw, org)
	return cmd
}

func (a *app) merge(cmd *cobra.Command, source string, tasks []*model.Task) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	added := s.Merge(tasks)
	if err := s.Save(); err != nil {
		return err
	}
	a.log.Info("tasks imported", "source", source, "read", len(tasks), "added", added)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d tasks from %s\n", added, len(tasks), source)
	return nil
}
