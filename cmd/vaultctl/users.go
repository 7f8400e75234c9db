package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/spf13/cobra"
)

func newUsersCmd(op *operator) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every account with its organization and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := op.accounts.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tORGANIZATION\tROLE\tCREATED")
			for _, u := range users {
				org, role := u.OrganizationID, u.Role.String()
				if !u.HasOrganization() {
					org, role = "-", "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, org, role, u.CreatedAt.Format(time.RFC3339))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d user(s)\n", len(users))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset-password <email>",
		Short: "Replace a user's password with a generated one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := op.accounts.ResetPassword(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					return fmt.Errorf("no user with email %q", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "new password for %s: %s\n", args[0], password)
			return nil
		},
	})

	return cmd
}
