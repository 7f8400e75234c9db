package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newInvitesCmd(op *operator) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "Inspect and maintain invitations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "List pending invitations and flag the ones past their expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			invs, err := op.invites.ListAllPending(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			stale := 0
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tORGANIZATION\tROLE\tINVITED BY\tEXPIRES\tSTATE")
			for _, inv := range invs {
				state := "open"
				if !inv.IsOpen(now) {
					state = "expired"
					stale++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					inv.Email, inv.OrganizationID, inv.Role, inv.InviterLabel(),
					inv.ExpiresAt.Format(time.RFC3339), state)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pending, %d past expiry\n", len(invs), stale)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Mark pending invitations past their expiry as expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := op.invites.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d invitation(s)\n", n)
			return nil
		},
	})

	return cmd
}
