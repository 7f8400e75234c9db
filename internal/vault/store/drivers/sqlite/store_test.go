package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/internal/vault/store/drivers/sqlite"
	"github.com/aussiebroadwan/teamvault/internal/vault/store/storetest"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestApplyMigrationsIsRepeatable(t *testing.T) {
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.ApplyMigrations(context.Background()))
	require.NoError(t, st.ApplyMigrations(context.Background()))
	require.NoError(t, st.Ping(context.Background()))
}

func TestNestedTransactionsAreRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.WithTx(ctx, func(store.Tx) error { return nil })
	})
	require.Error(t, err)
}

func TestTimestampsRoundTripInUTC(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	local := time.FixedZone("AEST", 10*60*60)
	at := time.Date(2026, 5, 4, 19, 30, 0, 0, local)

	owner := storetest.SeedUser(t, st, "tz@example.com", "", "")
	org := domain.Organization{ID: "org-tz", Name: "tz", OwnerID: owner.ID, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, st.Organizations().CreateOrganization(ctx, org))

	got, err := st.Organizations().GetOrganizationByID(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, time.UTC, got.CreatedAt.Location())
	require.True(t, at.Equal(got.CreatedAt))
}
