// Command vaultctl runs maintenance tasks directly against the vault database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aussiebroadwan/teamvault/internal/vault/app"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
	"github.com/spf13/cobra"
)

// operator holds what the subcommands share once the store is open.
type operator struct {
	store    store.Store
	accounts *service.AccountService
	invites  *service.InvitationService
}

func newRootCmd() *cobra.Command {
	op := &operator{}

	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "vaultctl is the teamvault operator tool",
		Long:          "vaultctl inspects users and invitations and performs maintenance on the vault database.\nIt reads the same environment as the vault service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return op.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if op.store == nil {
				return nil
			}
			return op.store.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	root.AddCommand(newUsersCmd(op), newInvitesCmd(op))
	return root
}

func (op *operator) open(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	// Operator output goes to stdout; keep logs to warnings and up on stderr.
	cfg.LogLevel = "warn"
	logger := slogx.New(slogx.Config{
		Service: "vaultctl",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  "text",
		Output:  os.Stderr,
	})

	st, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	pepper, err := cryptox.LoadOrCreateSecret(cfg.PepperFile)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	op.store = st
	op.accounts = &service.AccountService{Store: st, Hasher: cryptox.Hasher{Pepper: pepper}}
	op.invites = &service.InvitationService{Store: st}
	return nil
}

func main() {
	ctx := context.Background()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
