package cli

import (
	"fmt"

	"github.com/harrisonrobin/dayplan/pkg/template"
	"github.com/spf13/cobra"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage the day template of time blocks",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := a.loadTemplate()
			if err != nil {
				return err
			}
			if t.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No template defined")
				return nil
			}
			a.warnOverlaps(t)
			_, err = t.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	add := &cobra.Command{
		Use:   "add RANGE CATEGORY",
		Short: "Add a block such as 08:00-10:00 Study, or recategorize an existing one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := a.loadTemplate()
			if err != nil {
				return err
			}
			if err := t.Set(args[0], args[1]); err != nil {
				return err
			}
			a.warnOverlaps(t)
			return t.Save(a.cfg.TemplateFile)
		},
	}

	rm := &cobra.Command{
		Use:   "rm RANGE",
		Short: "Remove a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := a.loadTemplate()
			if err != nil {
				return err
			}
			if !t.Remove(args[0]) {
				return fmt.Errorf("no block %s in template", args[0])
			}
			return t.Save(a.cfg.TemplateFile)
		},
	}

	var keep bool
	collect := &cobra.Command{
		Use:   "collect",
		Short: "Enter the template interactively, replacing the saved one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var base *template.Template
			if keep {
				t, _, err := a.loadTemplate()
				if err != nil {
					return err
				}
				base = t
			}
			t, err := a.collectTemplate(cmd, base)
			if err != nil {
				return err
			}
			_, err = t.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	collect.Flags().BoolVar(&keep, "keep", false, "add to the saved template instead of replacing it")

	cmd.AddCommand(show, add, rm, collect)
	return cmd
}

// collectTemplate prompts for blocks on the command's stdin and saves the
// result.
func (a *app) collectTemplate(cmd *cobra.Command, base *template.Template) (*template.Template, error) {
	t, err := template.Collect(cmd.InOrStdin(), cmd.OutOrStdout(), base)
	if err != nil {
		return nil, err
	}
	a.warnOverlaps(t)
	if err := t.Save(a.cfg.TemplateFile); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	a.log.Info("template saved", "file", a.cfg.TemplateFile, "blocks", t.Len())
	return t, nil
}
