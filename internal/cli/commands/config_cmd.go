package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matchpoint-dev/matchpoint/internal/cli/userconfig"
)

// NewConfigCmd creates the config command group
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the CLI configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-backend <url>",
		Short: "Set the default backend URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := userconfig.SetBackendURL(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Backend set to %s\n", stored)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd)
			if err != nil {
				return err
			}
			return runShowConfig(e)
		},
	})

	return cmd
}

func runShowConfig(e *env) error {
	path, err := userconfig.GetConfigPath()
	if err != nil {
		return err
	}
	cfg, err := userconfig.Load()
	if err != nil {
		return err
	}

	status := "not logged in"
	if _, err := e.token(); err == nil {
		status = "logged in"
	}

	fmt.Fprintf(e.out, "Config file: %s\n", path)
	fmt.Fprintf(e.out, "Backend:     %s (%s)\n", e.backendURL, status)
	if cfg.LastEmail != "" {
		fmt.Fprintf(e.out, "Last email:  %s\n", cfg.LastEmail)
	}
	return nil
}
