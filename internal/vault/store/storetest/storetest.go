// Package storetest is a conformance suite run against every store driver.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated, empty store.
type Factory func(t *testing.T) store.Store

// Run executes the suite. Each subtest gets its own store.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("invitations", func(t *testing.T) { testInvitations(t, newStore(t)) })
	t.Run("one pending invitation per email", func(t *testing.T) { testPendingUniqueness(t, newStore(t)) })
	t.Run("concurrent invitations", func(t *testing.T) { testConcurrentInvitations(t, newStore(t)) })
	t.Run("expire invitations", func(t *testing.T) { testExpireInvitations(t, newStore(t)) })
	t.Run("shares", func(t *testing.T) { testShares(t, newStore(t)) })
	t.Run("concurrent share upserts", func(t *testing.T) { testConcurrentShareUpserts(t, newStore(t)) })
	t.Run("entries", func(t *testing.T) { testEntries(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newID() string { return idx.New().String() }

// SeedUser creates a user, optionally inside orgID with role.
func SeedUser(t *testing.T, st store.Store, email, orgID string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	if orgID != "" {
		require.NoError(t, st.Users().SetOrganization(context.Background(), u.ID, orgID, role, base))
		u.OrganizationID = orgID
		u.Role = role
	}
	u.Email = domain.NormalizeEmail(email)
	return u
}

// SeedOrganization creates an organization owned by ownerID.
func SeedOrganization(t *testing.T, st store.Store, name, ownerID string) domain.Organization {
	t.Helper()
	o := domain.Organization{ID: newID(), Name: name, OwnerID: ownerID, CreatedAt: base, UpdatedAt: base}
	require.NoError(t, st.Organizations().CreateOrganization(context.Background(), o))
	return o
}

func pendingInvitation(orgID, email string, created time.Time) domain.Invitation {
	return domain.Invitation{
		ID:             newID(),
		Token:          newID(),
		Email:          email,
		OrganizationID: orgID,
		Role:           domain.RoleMember,
		InvitedByID:    "inviter",
		InvitedByEmail: "inviter@example.com",
		Status:         domain.InvitationPending,
		ExpiresAt:      created.Add(domain.InvitationTTL),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()

	owner := SeedUser(t, st, "Owner@Example.com", "", "")
	org := SeedOrganization(t, st, "owner's Workspace", owner.ID)
	require.NoError(t, st.Users().SetOrganization(ctx, owner.ID, org.ID, domain.RoleOwner, base))

	t.Run("lookup by email is case-insensitive", func(t *testing.T) {
		got, err := st.Users().GetUserByEmail(ctx, "OWNER@example.COM")
		require.NoError(t, err)
		require.Equal(t, owner.ID, got.ID)
		require.Equal(t, "owner@example.com", got.Email)
		require.Equal(t, org.ID, got.OrganizationID)
		require.Equal(t, domain.RoleOwner, got.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := st.Users().CreateUser(ctx, domain.User{
			ID: newID(), Email: "owner@example.com", PasswordHash: "x", CreatedAt: base, UpdatedAt: base,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, newID())
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("membership", func(t *testing.T) {
		member := SeedUser(t, st, "member@example.com", org.ID, domain.RoleMember)

		members, err := st.Users().ListUsersByOrganization(ctx, org.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)

		require.NoError(t, st.Users().ClearOrganization(ctx, member.ID, base.Add(time.Minute)))
		got, err := st.Users().GetUserByID(ctx, member.ID)
		require.NoError(t, err)
		require.False(t, got.HasOrganization())
		require.Empty(t, got.Role)

		require.ErrorIs(t, st.Users().ClearOrganization(ctx, newID(), base), store.ErrNotFound)
	})

	t.Run("password hash", func(t *testing.T) {
		require.NoError(t, st.Users().UpdatePasswordHash(ctx, owner.ID, "new-hash", base.Add(time.Hour)))
		got, err := st.Users().GetUserByID(ctx, owner.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
	})

	t.Run("list users", func(t *testing.T) {
		all, err := st.Users().ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("organization lookup", func(t *testing.T) {
		got, err := st.Organizations().GetOrganizationByID(ctx, org.ID)
		require.NoError(t, err)
		require.Equal(t, org.Name, got.Name)
		require.Equal(t, owner.ID, got.OwnerID)
		require.True(t, base.Equal(got.CreatedAt))

		_, err = st.Organizations().GetOrganizationByID(ctx, newID())
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testInvitations(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, st, "owner@example.com", "", "")
	org := SeedOrganization(t, st, "Org", owner.ID)

	older := pendingInvitation(org.ID, "a@example.com", base)
	newer := pendingInvitation(org.ID, "b@example.com", base.Add(time.Hour))
	require.NoError(t, st.Invitations().CreateInvitation(ctx, older))
	require.NoError(t, st.Invitations().CreateInvitation(ctx, newer))

	t.Run("lookup by token", func(t *testing.T) {
		got, err := st.Invitations().GetInvitationByToken(ctx, older.Token)
		require.NoError(t, err)
		require.Equal(t, older.ID, got.ID)
		require.Equal(t, domain.InvitationPending, got.Status)
		require.True(t, older.ExpiresAt.Equal(got.ExpiresAt))

		_, err = st.Invitations().GetInvitationByToken(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("open lookup respects expiry", func(t *testing.T) {
		_, err := st.Invitations().GetOpenInvitationByToken(ctx, older.Token, base.Add(time.Minute))
		require.NoError(t, err)

		_, err = st.Invitations().GetOpenInvitationByToken(ctx, older.Token, older.ExpiresAt.Add(time.Second))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("open list is newest first", func(t *testing.T) {
		list, err := st.Invitations().ListOpenInvitations(ctx, org.ID, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, newer.ID, list[0].ID)
		require.Equal(t, older.ID, list[1].ID)
	})

	t.Run("extend", func(t *testing.T) {
		later := base.Add(30 * 24 * time.Hour)
		require.NoError(t, st.Invitations().ExtendInvitation(ctx, older.ID, later, base.Add(time.Hour)))
		got, err := st.Invitations().GetInvitationByToken(ctx, older.Token)
		require.NoError(t, err)
		require.True(t, later.Equal(got.ExpiresAt))

		err = st.Invitations().ExtendInvitation(ctx, older.ID, later.Add(time.Hour), later.Add(time.Second))
		require.ErrorIs(t, err, store.ErrNotFound, "a lapsed invitation cannot be extended")
	})

	t.Run("transition is compare-and-set", func(t *testing.T) {
		now := base.Add(2 * time.Hour)
		require.NoError(t, st.Invitations().TransitionInvitation(
			ctx, newer.ID, domain.InvitationPending, domain.InvitationDeclined, now))

		err := st.Invitations().TransitionInvitation(
			ctx, newer.ID, domain.InvitationPending, domain.InvitationAccepted, now)
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := st.Invitations().GetInvitationByToken(ctx, newer.Token)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationDeclined, got.Status)

		err = st.Invitations().ExtendInvitation(ctx, newer.ID, now.Add(time.Hour), now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, st.Invitations().DeleteInvitation(ctx, older.ID))
		require.ErrorIs(t, st.Invitations().DeleteInvitation(ctx, older.ID), store.ErrNotFound)
	})
}

func testPendingUniqueness(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, st, "owner@example.com", "", "")
	org := SeedOrganization(t, st, "Org", owner.ID)
	other := SeedOrganization(t, st, "Other", owner.ID)

	first := pendingInvitation(org.ID, "dup@example.com", base)
	require.NoError(t, st.Invitations().CreateInvitation(ctx, first))

	dup := pendingInvitation(org.ID, "DUP@example.com", base)
	require.ErrorIs(t, st.Invitations().CreateInvitation(ctx, dup), store.ErrAlreadyExists)

	// Same email in another organization is fine.
	require.NoError(t, st.Invitations().CreateInvitation(ctx, pendingInvitation(other.ID, "dup@example.com", base)))

	// Once the first leaves pending, a new one may be issued.
	require.NoError(t, st.Invitations().TransitionInvitation(
		ctx, first.ID, domain.InvitationPending, domain.InvitationDeclined, base))
	require.NoError(t, st.Invitations().CreateInvitation(ctx, pendingInvitation(org.ID, "dup@example.com", base)))
}

func testConcurrentInvitations(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, st, "owner@example.com", "", "")
	org := SeedOrganization(t, st, "Org", owner.ID)

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		errs []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Invitations().CreateInvitation(ctx, pendingInvitation(org.ID, "race@example.com", base))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, oks)
	for _, err := range errs {
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	}
}

func testExpireInvitations(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := SeedUser(t, st, "owner@example.com", "", "")
	org := SeedOrganization(t, st, "Org", owner.ID)

	stale := pendingInvitation(org.ID, "stale@example.com", base)
	fresh := pendingInvitation(org.ID, "fresh@example.com", base.Add(6*24*time.Hour))
	require.NoError(t, st.Invitations().CreateInvitation(ctx, stale))
	require.NoError(t, st.Invitations().CreateInvitation(ctx, fresh))

	now := base.Add(8 * 24 * time.Hour)
	n, err := st.Invitations().ExpireInvitations(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// Idempotent.
	n, err = st.Invitations().ExpireInvitations(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	got, err := st.Invitations().GetInvitationByToken(ctx, stale.Token)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, got.Status)

	pending, err := st.Invitations().ListPendingInvitations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, fresh.ID, pending[0].ID)
}

func newShare(entryID string, from, to domain.User, at time.Time) domain.Share {
	return domain.Share{
		ID:          newID(),
		EntryID:     entryID,
		FromUserID:  from.ID,
		FromEmail:   from.Email,
		ToUserID:    to.ID,
		ToEmail:     to.Email,
		Permissions: []domain.SharePermission{domain.PermissionRead},
		Status:      domain.ShareActive,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func testShares(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := SeedUser(t, st, "alice@example.com", "", "")
	bob := SeedUser(t, st, "bob@example.com", "", "")
	carol := SeedUser(t, st, "carol@example.com", "", "")

	first, err := st.Shares().UpsertShare(ctx, newShare("entry-1", alice, bob, base))
	require.NoError(t, err)
	require.Equal(t, domain.ShareActive, first.Status)
	require.Equal(t, []domain.SharePermission{domain.PermissionRead}, first.Permissions)

	_, err = st.Shares().UpsertShare(ctx, newShare("entry-2", alice, carol, base.Add(time.Minute)))
	require.NoError(t, err)

	t.Run("upsert keeps one row per pair", func(t *testing.T) {
		again, err := st.Shares().UpsertShare(ctx, newShare("entry-1", alice, bob, base.Add(time.Hour)))
		require.NoError(t, err)
		require.Equal(t, first.ID, again.ID)
		require.True(t, base.Equal(again.CreatedAt))
		require.True(t, base.Add(time.Hour).Equal(again.UpdatedAt))
	})

	t.Run("lists", func(t *testing.T) {
		out, err := st.Shares().ListOutgoingShares(ctx, alice.ID, "")
		require.NoError(t, err)
		require.Len(t, out, 2)
		require.Equal(t, "entry-2", out[0].EntryID, "newest share first, re-sharing keeps its place")
		require.Equal(t, first.ID, out[1].ID)

		out, err = st.Shares().ListOutgoingShares(ctx, alice.ID, "entry-2")
		require.NoError(t, err)
		require.Len(t, out, 1)

		in, err := st.Shares().ListIncomingShares(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, in, 1)
		require.Equal(t, "entry-1", in[0].EntryID)
	})

	t.Run("revoke only by grantor", func(t *testing.T) {
		require.ErrorIs(t, st.Shares().RevokeShare(ctx, first.ID, bob.ID, base), store.ErrNotFound)
		require.NoError(t, st.Shares().RevokeShare(ctx, first.ID, alice.ID, base.Add(2*time.Hour)))

		got, err := st.Shares().GetShareByID(ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, domain.ShareRevoked, got.Status)

		_, err = st.Shares().GetActiveShare(ctx, "entry-1", bob.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		in, err := st.Shares().ListIncomingShares(ctx, bob.ID)
		require.NoError(t, err)
		require.Empty(t, in)
	})

	t.Run("reshare reactivates", func(t *testing.T) {
		again, err := st.Shares().UpsertShare(ctx, newShare("entry-1", alice, bob, base.Add(3*time.Hour)))
		require.NoError(t, err)
		require.Equal(t, first.ID, again.ID)
		require.Equal(t, domain.ShareActive, again.Status)

		active, err := st.Shares().GetActiveShare(ctx, "entry-1", bob.ID)
		require.NoError(t, err)
		require.Equal(t, first.ID, active.ID)
	})

	t.Run("revoke all for entry", func(t *testing.T) {
		require.NoError(t, st.Shares().RevokeEntryShares(ctx, "entry-2", base.Add(4*time.Hour)))
		_, err := st.Shares().GetActiveShare(ctx, "entry-2", carol.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testConcurrentShareUpserts(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := SeedUser(t, st, "alice@example.com", "", "")
	bob := SeedUser(t, st, "bob@example.com", "", "")

	const workers = 8
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := st.Shares().UpsertShare(ctx, newShare("entry-x", alice, bob, base.Add(time.Duration(i)*time.Second)))
			if err == nil {
				ids <- s.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	require.Len(t, seen, 1)

	out, err := st.Shares().ListOutgoingShares(ctx, alice.ID, "entry-x")
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func testEntries(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := SeedUser(t, st, "alice@example.com", "", "")
	bob := SeedUser(t, st, "bob@example.com", "", "")

	mk := func(owner domain.User, name string, at time.Time) domain.Entry {
		e := domain.Entry{
			ID: newID(), OwnerID: owner.ID, Name: name, Username: "u", Password: "sealed",
			CreatedAt: at, UpdatedAt: at,
		}
		require.NoError(t, st.Entries().CreateEntry(ctx, e))
		return e
	}

	a1 := mk(alice, "mail", base)
	a2 := mk(alice, "bank", base.Add(time.Hour))
	b1 := mk(bob, "forum", base)

	owned, err := st.Entries().ListEntriesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	require.Equal(t, a2.ID, owned[0].ID)

	byIDs, err := st.Entries().ListEntriesByIDs(ctx, []string{a1.ID, b1.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)

	none, err := st.Entries().ListEntriesByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, none)

	a1.Name = "webmail"
	a1.UpdatedAt = base.Add(2 * time.Hour)
	require.NoError(t, st.Entries().UpdateEntry(ctx, a1))
	got, err := st.Entries().GetEntryByID(ctx, a1.ID)
	require.NoError(t, err)
	require.Equal(t, "webmail", got.Name)

	wrongOwner := a1
	wrongOwner.OwnerID = bob.ID
	require.ErrorIs(t, st.Entries().UpdateEntry(ctx, wrongOwner), store.ErrNotFound)

	require.ErrorIs(t, st.Entries().DeleteEntry(ctx, a1.ID, bob.ID), store.ErrNotFound)
	require.NoError(t, st.Entries().DeleteEntry(ctx, a1.ID, alice.ID))
	_, err = st.Entries().GetEntryByID(ctx, a1.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTransactions(t *testing.T, st store.Store) {
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		id := newID()
		err := st.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
				ID: id, Email: "rolled@example.com", PasswordHash: "x", CreatedAt: base, UpdatedAt: base,
			}))
			return store.ErrAlreadyExists
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		_, err = st.Users().GetUserByID(ctx, id)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commit on success", func(t *testing.T) {
		id := newID()
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().CreateUser(ctx, domain.User{
				ID: id, Email: "kept@example.com", PasswordHash: "x", CreatedAt: base, UpdatedAt: base,
			})
		})
		require.NoError(t, err)

		_, err = st.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
	})
}
