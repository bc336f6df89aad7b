package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matchpoint-dev/matchpoint/internal/backend"
	"github.com/matchpoint-dev/matchpoint/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Matchpoint backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd)
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), e, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set MATCHPOINT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set MATCHPOINT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, e *env, email, password string) error {
	// Environment variables are useful for scripts
	if email == "" {
		email = os.Getenv("MATCHPOINT_EMAIL")
	}
	if password == "" {
		password = os.Getenv("MATCHPOINT_PASSWORD")
	}
	if email == "" {
		if cfg, err := userconfig.Load(); err == nil {
			email = cfg.LastEmail
		}
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or MATCHPOINT_EMAIL env var)")
	}

	if password == "" {
		var err error
		if password, err = e.readPassword(); err != nil {
			return err
		}
	}

	fmt.Fprintf(e.out, "Logging in to %s as %s...\n", e.backendURL, email)

	resp, err := e.client.Login(ctx, backend.LoginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", e.describe(err))
	}

	if err := e.tokens.SaveToken(e.backendURL, resp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}
	if err := userconfig.SetLastEmail(email); err != nil {
		fmt.Fprintf(e.out, "Warning: could not remember email: %v\n", err)
	}

	fmt.Fprintln(e.out, "✓ Login successful!")
	fmt.Fprintf(e.out, "  User: %s (%s)\n", resp.Data.Name, resp.Data.Email)
	if resp.Data.Role == "admin" {
		fmt.Fprintln(e.out, "  Role: Admin")
	}

	return nil
}
