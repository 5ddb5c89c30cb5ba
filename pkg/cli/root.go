// Package cli is the dayplan command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/harrisonrobin/dayplan/pkg/config"
	"github.com/harrisonrobin/dayplan/pkg/google"
	"github.com/harrisonrobin/dayplan/pkg/logging"
	"github.com/harrisonrobin/dayplan/pkg/store"
	"github.com/harrisonrobin/dayplan/pkg/template"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once flags and config are read.
type app struct {
	configPath string
	configDir  string
	v          *viper.Viper
	cfg        *config.Config
	log        *logging.Logger

	// newCalendar replaces google.NewClient when set.
	newCalendar func(ctx context.Context, name string) (*google.CalendarClient, error)
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "dayplan",
		Short: "Task list and daily plan generator",
		Long: `dayplan keeps a to-do list of categorized, time-estimated tasks and
fills a daily template of time blocks with them.

Tasks are placed first-fit in list order. Estimates are padded by the
planning mode: normal (x1.25) or relaxed (x1.5).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				return a.log.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/dayplan/config.yaml)")
	flags.String("tasks", "", "task list file (overrides tasks_file)")
	flags.String("template", "", "day template file (overrides template_file)")
	flags.String("log-level", "", "log level: DEBUG, INFO, WARN or ERROR")

	root.AddCommand(
		newTaskCmd(a),
		newTemplateCmd(a),
		newPlanCmd(a),
		newImportCmd(a),
		newAuthCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := config.NewViper(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for key, name := range map[string]string{
		"tasks_file":    "tasks",
		"template_file": "template",
		"log.level":     "log-level",
	} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	if a.configPath != "" {
		a.configDir = filepath.Dir(a.configPath)
	} else if a.configDir, err = config.ConfigDir(); err != nil {
		return fmt.Errorf("could not find path to configuration directory: %w", err)
	}

	log, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}

	a.v = v
	a.cfg = cfg
	a.log = log.With("cmd", cmd.CommandPath())
	a.log.Debug("configuration loaded", "file", v.ConfigFileUsed(), "tasks", cfg.TasksFile, "template", cfg.TemplateFile)
	return nil
}

func (a *app) openStore() (*store.Store, error) {
	s, err := store.Open(a.cfg.TasksFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return s, nil
}

func (a *app) loadTemplate() (*template.Template, bool, error) {
	t, exists, err := template.Load(a.cfg.TemplateFile)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load template: %w", err)
	}
	return t, exists, nil
}

// warnOverlaps logs template blocks that share time. Planning still fills
// each of them on its own.
func (a *app) warnOverlaps(t *template.Template) {
	for _, pair := range t.Overlaps() {
		a.log.Warn("template blocks overlap",
			"first", pair[0].Range, "first_category", pair[0].Category,
			"second", pair[1].Range, "second_category", pair[1].Category)
	}
}
