package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matchpoint-dev/matchpoint/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "matchpoint",
	Short: "Matchpoint - admin CLI for the court booking platform",
	Long: `Matchpoint CLI - Manage Matchpoint user accounts from the terminal.

The CLI talks to the Matchpoint backend API directly. Sign in with
'matchpoint login', then manage accounts with 'matchpoint users'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String(commands.BackendFlag, "", "Backend API URL (or set MATCHPOINT_BACKEND_URL)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "matchpoint version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
