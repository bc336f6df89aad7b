package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command group
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin only)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd)
			if err != nil {
				return err
			}
			return runListUsers(cmd.Context(), e)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd)
			if err != nil {
				return err
			}
			return runShowUser(cmd.Context(), e, args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a user",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEnv(cmd)
			if err != nil {
				return err
			}
			return runDeleteUser(cmd.Context(), e, args[0])
		},
	})

	return cmd
}

func runListUsers(ctx context.Context, e *env) error {
	token, err := e.token()
	if err != nil {
		return err
	}

	users, err := e.client.ListUsers(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", e.describe(err))
	}

	if len(users) == 0 {
		fmt.Fprintln(e.out, "No users found.")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return w.Flush()
}

func runShowUser(ctx context.Context, e *env, id string) error {
	token, err := e.token()
	if err != nil {
		return err
	}

	user, err := e.client.GetUser(ctx, token, id)
	if err != nil {
		return fmt.Errorf("failed to get user %s: %w", id, e.describe(err))
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", user.ID)
	fmt.Fprintf(w, "Name:\t%s\n", user.Name)
	fmt.Fprintf(w, "Email:\t%s\n", user.Email)
	fmt.Fprintf(w, "Role:\t%s\n", user.Role)
	if user.Image != "" {
		fmt.Fprintf(w, "Image:\t%s\n", user.Image)
	}
	if user.CreatedAt != "" {
		fmt.Fprintf(w, "Created:\t%s\n", user.CreatedAt)
	}
	if user.UpdatedAt != "" {
		fmt.Fprintf(w, "Updated:\t%s\n", user.UpdatedAt)
	}
	return w.Flush()
}

func runDeleteUser(ctx context.Context, e *env, id string) error {
	token, err := e.token()
	if err != nil {
		return err
	}

	resp, err := e.client.DeleteUser(ctx, token, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, e.describe(err))
	}

	message := resp.Message
	if message == "" {
		message = "User deleted"
	}
	fmt.Fprintf(e.out, "✓ %s\n", message)
	return nil
}
