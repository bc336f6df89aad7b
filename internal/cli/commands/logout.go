package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token for the current backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd)
			if err != nil {
				return err
			}
			return runLogout(e)
		},
	}
}

func runLogout(e *env) error {
	if err := e.tokens.DeleteToken(e.backendURL); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "✓ Logged out of %s\n", e.backendURL)
	return nil
}
