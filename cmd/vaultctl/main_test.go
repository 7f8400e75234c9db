package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/app"
	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// seed points the environment at a fresh database and fills it with an
// owner, a stale invitation and an open one.
func seed(t *testing.T) (pepperFile string) {
	t.Helper()
	dir := t.TempDir()
	pepperFile = filepath.Join(dir, "pepper")
	t.Setenv("VAULT_DATABASE_FILE", filepath.Join(dir, "vault.db"))
	t.Setenv("VAULT_PEPPER_FILE", pepperFile)
	t.Setenv("VAULT_STORE_DRIVER", "sqlite")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	ctx := context.Background()
	st, err := app.OpenStore(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer st.Close()

	pepper, err := cryptox.LoadOrCreateSecret(pepperFile)
	require.NoError(t, err)

	past := time.Now().Add(-8 * 24 * time.Hour)
	accounts := &service.AccountService{Store: st, Hasher: cryptox.Hasher{Pepper: pepper}}
	owner, _, err := accounts.Register(ctx, "owner@example.com", "correct horse battery")
	require.NoError(t, err)

	fresh := &service.InvitationService{Store: st}
	_, err = fresh.Create(ctx, domain.ActorFromUser(owner), "new@example.com", "admin")
	require.NoError(t, err)

	// Created last: an earlier create would sweep it. Issued eight days ago,
	// it has lapsed by now.
	stale := &service.InvitationService{Store: st, Clock: func() time.Time { return past }}
	_, err = stale.Create(ctx, domain.ActorFromUser(owner), "late@example.com", "member")
	require.NoError(t, err)

	return pepperFile
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersList(t *testing.T) {
	seed(t)

	out, err := run(t, "users", "list")
	require.NoError(t, err)
	require.Contains(t, out, "owner@example.com")
	require.Contains(t, out, "owner")
	require.Contains(t, out, "1 user(s)")
}

func TestUsersResetPassword(t *testing.T) {
	pepperFile := seed(t)

	out, err := run(t, "users", "reset-password", "Owner@Example.com")
	require.NoError(t, err)
	require.Contains(t, out, "new password for Owner@Example.com: ")
	password := strings.TrimSpace(out[strings.LastIndex(out, ": ")+2:])
	require.Len(t, password, 16)

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	st, err := app.OpenStore(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer st.Close()
	pepper, err := cryptox.LoadOrCreateSecret(pepperFile)
	require.NoError(t, err)

	accounts := &service.AccountService{Store: st, Hasher: cryptox.Hasher{Pepper: pepper}}
	_, err = accounts.Login(context.Background(), "owner@example.com", password)
	require.NoError(t, err)

	_, err = run(t, "users", "reset-password", "nobody@example.com")
	require.ErrorContains(t, err, "no user with email")
}

func TestInvitesCheckAndSweep(t *testing.T) {
	seed(t)

	out, err := run(t, "invites", "check")
	require.NoError(t, err)
	require.Contains(t, out, "late@example.com")
	require.Contains(t, out, "new@example.com")
	require.Contains(t, out, "2 pending, 1 past expiry")

	out, err = run(t, "invites", "sweep")
	require.NoError(t, err)
	require.Contains(t, out, "expired 1 invitation(s)")

	out, err = run(t, "invites", "check")
	require.NoError(t, err)
	require.Contains(t, out, "1 pending, 0 past expiry")
	require.NotContains(t, out, "late@example.com")
}

func TestUnknownDriverFails(t *testing.T) {
	t.Setenv("VAULT_STORE_DRIVER", "redis")
	_, err := run(t, "users", "list")
	require.ErrorContains(t, err, "unknown VAULT_STORE_DRIVER")
}
