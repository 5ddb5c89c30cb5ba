package cli

import (
	"fmt"
	"path/filepath"

	"github.com/harrisonrobin/dayplan/pkg/auth"
	"github.com/spf13/cobra"
)

func newAuthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Calendar",
		Long: fmt.Sprintf(`Authenticate with Google Calendar, replacing any saved token.

The OAuth client secrets are read from %s in the configuration directory.`, auth.ClientSecretsFile),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.ResetToken(a.configDir); err != nil {
				return err
			}
			if _, err := auth.GetCalendarService(cmd.Context(), a.configDir); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n",
				filepath.Join(a.configDir, auth.TokenFile))
			return nil
		},
	}
}
