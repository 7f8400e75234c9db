package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/stretchr/testify/require"
)

func TestShareLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@example.com")
	carol := f.register(t, "carol@x.com")

	e, err := f.vault.Create(ctx, u1, EntryInput{Name: "Router", Password: "hunter2"})
	require.NoError(t, err)

	s1, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, "Carol@X.com")
	require.NoError(t, err)
	require.Equal(t, domain.ShareActive, s1.Status)
	require.Equal(t, carol.UserID, s1.ToUserID)
	require.Equal(t, "carol@x.com", s1.ToEmail)
	require.Equal(t, u1.Email, s1.FromEmail)
	require.Equal(t, []domain.SharePermission{domain.PermissionRead}, s1.Permissions)

	access, err := f.shares.ResolveEntryAccess(ctx, e.Entry.ID, carol.UserID)
	require.NoError(t, err)
	require.Equal(t, AccessShared, access.Kind)
	require.Equal(t, s1.ID, access.Share.ID)

	access, err = f.shares.ResolveEntryAccess(ctx, e.Entry.ID, u1.UserID)
	require.NoError(t, err)
	require.Equal(t, AccessOwned, access.Kind)

	require.NoError(t, f.shares.Revoke(ctx, u1, s1.ID))

	revoked, err := f.st.Shares().GetShareByID(ctx, s1.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ShareRevoked, revoked.Status)

	access, err = f.shares.ResolveEntryAccess(ctx, e.Entry.ID, carol.UserID)
	require.NoError(t, err)
	require.Equal(t, AccessDenied, access.Kind)

	// Sharing again reactivates the same row.
	s2, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, "carol@x.com")
	require.NoError(t, err)
	require.Equal(t, s1.ID, s2.ID)
	require.Equal(t, domain.ShareActive, s2.Status)
}

func TestShareUpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@example.com")
	f.register(t, "carol@x.com")

	e, err := f.vault.Create(ctx, u1, EntryInput{Name: "Router"})
	require.NoError(t, err)

	first, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, "carol@x.com")
	require.NoError(t, err)
	second, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, "carol@x.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	out, err := f.shares.ListOutgoing(ctx, u1, e.Entry.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, domain.ShareActive, out[0].Status)
}

func TestShareRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@example.com")
	carol := f.register(t, "carol@x.com")

	e, err := f.vault.Create(ctx, u1, EntryInput{Name: "Router"})
	require.NoError(t, err)

	t.Run("self share", func(t *testing.T) {
		_, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, u1.Email)
		require.ErrorIs(t, err, ErrSelfShare)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unregistered recipient", func(t *testing.T) {
		_, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, "ghost@example.com")
		require.ErrorIs(t, err, ErrRecipientNotRegistered)
	})

	t.Run("invalid recipient email", func(t *testing.T) {
		_, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, "ghost")
		require.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := f.shares.CreateOrUpdate(ctx, carol, e.Entry.ID, u1.Email)
		require.ErrorIs(t, err, ErrEntryNotFound)

		_, err = f.shares.ListOutgoing(ctx, carol, e.Entry.ID)
		require.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := f.shares.CreateOrUpdate(ctx, u1, "missing", carol.Email)
		require.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("only the sharer may revoke", func(t *testing.T) {
		s, err := f.shares.CreateOrUpdate(ctx, u1, e.Entry.ID, carol.Email)
		require.NoError(t, err)

		require.ErrorIs(t, f.shares.Revoke(ctx, carol, s.ID), ErrNotFound)
		require.ErrorIs(t, f.shares.Revoke(ctx, u1, "missing"), ErrNotFound)

		access, err := f.shares.ResolveEntryAccess(ctx, e.Entry.ID, carol.UserID)
		require.NoError(t, err)
		require.Equal(t, AccessShared, access.Kind)
	})
}

func TestShareListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@example.com")
	carol := f.register(t, "carol@x.com")
	dave := f.register(t, "dave@x.com")

	a, err := f.vault.Create(ctx, u1, EntryInput{Name: "A"})
	require.NoError(t, err)
	b, err := f.vault.Create(ctx, u1, EntryInput{Name: "B"})
	require.NoError(t, err)

	_, err = f.shares.CreateOrUpdate(ctx, u1, a.Entry.ID, carol.Email)
	require.NoError(t, err)
	f.advance(time.Second)
	_, err = f.shares.CreateOrUpdate(ctx, u1, b.Entry.ID, carol.Email)
	require.NoError(t, err)
	f.advance(time.Second)
	toDave, err := f.shares.CreateOrUpdate(ctx, u1, a.Entry.ID, dave.Email)
	require.NoError(t, err)
	require.NoError(t, f.shares.Revoke(ctx, u1, toDave.ID))

	out, err := f.shares.ListOutgoing(ctx, u1, "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, b.Entry.ID, out[0].EntryID)

	out, err = f.shares.ListOutgoing(ctx, u1, a.Entry.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, carol.UserID, out[0].ToUserID)

	in, err := f.shares.ListIncoming(ctx, carol)
	require.NoError(t, err)
	require.Len(t, in, 2)

	in, err = f.shares.ListIncoming(ctx, dave)
	require.NoError(t, err)
	require.Empty(t, in)
}

func TestShareListsKeepCreationOrderOnReshare(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u1 := f.register(t, "u1@example.com")
	carol := f.register(t, "carol@x.com")

	a, err := f.vault.Create(ctx, u1, EntryInput{Name: "A"})
	require.NoError(t, err)
	b, err := f.vault.Create(ctx, u1, EntryInput{Name: "B"})
	require.NoError(t, err)

	_, err = f.shares.CreateOrUpdate(ctx, u1, a.Entry.ID, carol.Email)
	require.NoError(t, err)
	f.advance(time.Second)
	_, err = f.shares.CreateOrUpdate(ctx, u1, b.Entry.ID, carol.Email)
	require.NoError(t, err)
	f.advance(time.Second)
	_, err = f.shares.CreateOrUpdate(ctx, u1, a.Entry.ID, carol.Email)
	require.NoError(t, err)

	out, err := f.shares.ListOutgoing(ctx, u1, "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, b.Entry.ID, out[0].EntryID)
	require.Equal(t, a.Entry.ID, out[1].EntryID)

	in, err := f.shares.ListIncoming(ctx, carol)
	require.NoError(t, err)
	require.Len(t, in, 2)
	require.Equal(t, b.Entry.ID, in[0].EntryID)
}

func TestAccessKindString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "owned", AccessOwned.String())
	require.Equal(t, "shared", AccessShared.String())
	require.Equal(t, "denied", AccessDenied.String())
}
