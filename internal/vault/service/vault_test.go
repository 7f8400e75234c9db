package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func TestVaultCreateSealsSecrets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	v, err := f.vault.Create(ctx, alice, EntryInput{
		Name:       "  Mail  ",
		Username:   "alice",
		Password:   "hunter2",
		URL:        "https://mail.example.com",
		TOTPSecret: "jbsw y3dp ehpk 3pxp",
	})
	require.NoError(t, err)
	require.Equal(t, "Mail", v.Entry.Name)
	require.Equal(t, "hunter2", v.Entry.Password)
	require.Equal(t, testTOTPSecret, v.Entry.TOTPSecret)
	require.Equal(t, alice.OrganizationID, v.Entry.OrganizationID)
	require.False(t, v.Shared)

	want, err := totp.GenerateCode(testTOTPSecret, f.now)
	require.NoError(t, err)
	require.Equal(t, want, v.TOTPCode)

	raw, err := f.st.Entries().GetEntryByID(ctx, v.Entry.ID)
	require.NoError(t, err)
	require.NotEmpty(t, raw.Password)
	require.NotEqual(t, "hunter2", raw.Password)
	require.NotEqual(t, testTOTPSecret, raw.TOTPSecret)

	got, err := f.vault.Get(ctx, alice, v.Entry.ID)
	require.NoError(t, err)
	require.Equal(t, "hunter2", got.Entry.Password)
	require.Equal(t, want, got.TOTPCode)
}

func TestVaultCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	_, err := f.vault.Create(ctx, alice, EntryInput{Name: "   "})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.vault.Create(ctx, alice, EntryInput{Name: "x", TOTPSecret: "not base32!"})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVaultSharedEntryIsReadOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	reader := f.register(t, "reader@example.com")
	stranger := f.register(t, "stranger@example.com")

	e, err := f.vault.Create(ctx, owner, EntryInput{Name: "DB", Password: "s3cret"})
	require.NoError(t, err)
	share, err := f.shares.CreateOrUpdate(ctx, owner, e.Entry.ID, reader.Email)
	require.NoError(t, err)

	got, err := f.vault.Get(ctx, reader, e.Entry.ID)
	require.NoError(t, err)
	require.True(t, got.Shared)
	require.Equal(t, share.ID, got.Share.ID)
	require.Equal(t, "s3cret", got.Entry.Password)

	_, err = f.vault.Update(ctx, reader, e.Entry.ID, EntryInput{Name: "mine now"})
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, f.vault.Delete(ctx, reader, e.Entry.ID), ErrForbidden)

	_, err = f.vault.Get(ctx, stranger, e.Entry.ID)
	require.ErrorIs(t, err, ErrEntryNotFound)
	_, err = f.vault.Update(ctx, stranger, e.Entry.ID, EntryInput{Name: "x"})
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestVaultUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")

	e, err := f.vault.Create(ctx, alice, EntryInput{Name: "Mail", Password: "old", TOTPSecret: testTOTPSecret})
	require.NoError(t, err)

	f.advance(time.Minute)
	v, err := f.vault.Update(ctx, alice, e.Entry.ID, EntryInput{Name: "Mail", Password: "new"})
	require.NoError(t, err)
	require.Equal(t, "new", v.Entry.Password)
	require.Empty(t, v.Entry.TOTPSecret)
	require.Empty(t, v.TOTPCode)
	require.Equal(t, f.now, v.Entry.UpdatedAt)

	got, err := f.vault.Get(ctx, alice, e.Entry.ID)
	require.NoError(t, err)
	require.Equal(t, "new", got.Entry.Password)
	require.True(t, got.Entry.UpdatedAt.Equal(f.now))
}

func TestVaultDeleteRevokesShares(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	reader := f.register(t, "reader@example.com")

	e, err := f.vault.Create(ctx, owner, EntryInput{Name: "DB"})
	require.NoError(t, err)
	_, err = f.shares.CreateOrUpdate(ctx, owner, e.Entry.ID, reader.Email)
	require.NoError(t, err)

	require.NoError(t, f.vault.Delete(ctx, owner, e.Entry.ID))
	require.ErrorIs(t, f.vault.Delete(ctx, owner, e.Entry.ID), ErrEntryNotFound)

	_, err = f.vault.Get(ctx, reader, e.Entry.ID)
	require.ErrorIs(t, err, ErrEntryNotFound)

	in, err := f.shares.ListIncoming(ctx, reader)
	require.NoError(t, err)
	require.Empty(t, in)
}

func TestVaultListInterleavesOwnedAndShared(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")

	oldest, err := f.vault.Create(ctx, alice, EntryInput{Name: "oldest"})
	require.NoError(t, err)
	f.advance(time.Minute)
	middle, err := f.vault.Create(ctx, bob, EntryInput{Name: "middle"})
	require.NoError(t, err)
	f.advance(time.Minute)
	newest, err := f.vault.Create(ctx, alice, EntryInput{Name: "newest"})
	require.NoError(t, err)
	f.advance(time.Minute)
	hidden, err := f.vault.Create(ctx, bob, EntryInput{Name: "hidden"})
	require.NoError(t, err)

	_, err = f.shares.CreateOrUpdate(ctx, bob, middle.Entry.ID, alice.Email)
	require.NoError(t, err)
	s, err := f.shares.CreateOrUpdate(ctx, bob, hidden.Entry.ID, alice.Email)
	require.NoError(t, err)
	require.NoError(t, f.shares.Revoke(ctx, bob, s.ID))

	ids := func(vs []EntryView) []string {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			out = append(out, v.Entry.ID)
		}
		return out
	}

	all, err := f.vault.List(ctx, alice, ScopeAll)
	require.NoError(t, err)
	require.Equal(t, []string{newest.Entry.ID, middle.Entry.ID, oldest.Entry.ID}, ids(all))
	require.False(t, all[0].Shared)
	require.True(t, all[1].Shared)

	owned, err := f.vault.List(ctx, alice, ScopeOwned)
	require.NoError(t, err)
	require.Equal(t, []string{newest.Entry.ID, oldest.Entry.ID}, ids(owned))

	shared, err := f.vault.List(ctx, alice, ScopeShared)
	require.NoError(t, err)
	require.Equal(t, []string{middle.Entry.ID}, ids(shared))
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Scope{
		"":        ScopeAll,
		"all":     ScopeAll,
		"Owned":   ScopeOwned,
		" shared": ScopeShared,
	} {
		got, err := ParseScope(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}

	_, err := ParseScope("everything")
	require.ErrorIs(t, err, ErrInvalidRequest)
}
