package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/stretchr/testify/require"
)

func TestCreateOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	org, err := f.orgs.Create(ctx, "  Platform Team ", owner.UserID)
	require.NoError(t, err)
	require.Equal(t, "Platform Team", org.Name)
	require.Equal(t, owner.UserID, org.OwnerID)
	require.True(t, f.now.Equal(org.CreatedAt))

	got, err := f.orgs.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, org.Name, got.Name)

	// The owner's own membership is left alone.
	user, err := f.accounts.GetUser(ctx, owner.UserID)
	require.NoError(t, err)
	require.Equal(t, owner.OrganizationID, user.OrganizationID)

	_, err = f.orgs.Create(ctx, "   ", owner.UserID)
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.orgs.Create(ctx, "Orphan", "")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	f.advance(time.Second)
	m1 := f.join(t, owner, "m1@example.com", domain.RoleMember)
	f.advance(time.Second)
	admin := f.join(t, owner, "admin@example.com", domain.RoleAdmin)
	f.advance(time.Second)
	m2 := f.join(t, owner, "m2@example.com", domain.RoleMember)
	outsider := f.register(t, "outsider@example.com")

	members, err := f.orgs.ListMembers(ctx, m1, owner.OrganizationID)
	require.NoError(t, err)

	var got []string
	for _, u := range members {
		got = append(got, u.ID)
	}
	require.Equal(t, []string{owner.UserID, admin.UserID, m1.UserID, m2.UserID}, got)

	_, err = f.orgs.ListMembers(ctx, outsider, owner.OrganizationID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	admin := f.join(t, owner, "admin@example.com", domain.RoleAdmin)
	m1 := f.join(t, owner, "m1@example.com", domain.RoleMember)
	m2 := f.join(t, owner, "m2@example.com", domain.RoleMember)
	outsider := f.register(t, "outsider@example.com")

	t.Run("self removal is forbidden", func(t *testing.T) {
		require.ErrorIs(t, f.orgs.RemoveMember(ctx, owner, owner.UserID), ErrForbidden)
		require.ErrorIs(t, f.orgs.RemoveMember(ctx, m1, m1.UserID), ErrForbidden)
	})

	t.Run("role rules", func(t *testing.T) {
		require.ErrorIs(t, f.orgs.RemoveMember(ctx, admin, owner.UserID), ErrForbidden)
		require.ErrorIs(t, f.orgs.RemoveMember(ctx, m1, m2.UserID), ErrForbidden)
	})

	t.Run("other organizations", func(t *testing.T) {
		require.ErrorIs(t, f.orgs.RemoveMember(ctx, outsider, m1.UserID), ErrForbidden)
		require.ErrorIs(t, f.orgs.RemoveMember(ctx, owner, outsider.UserID), ErrForbidden)
	})

	t.Run("unknown user", func(t *testing.T) {
		require.ErrorIs(t, f.orgs.RemoveMember(ctx, owner, "missing"), ErrNotFound)
	})

	t.Run("admin removes member", func(t *testing.T) {
		require.NoError(t, f.orgs.RemoveMember(ctx, admin, m1.UserID))

		after := f.actor(t, m1.UserID)
		require.Empty(t, after.OrganizationID)
		require.Empty(t, after.Role)
	})

	t.Run("owner removes admin", func(t *testing.T) {
		require.NoError(t, f.orgs.RemoveMember(ctx, owner, admin.UserID))
		require.Empty(t, f.actor(t, admin.UserID).OrganizationID)
	})

	members, err := f.orgs.ListMembers(ctx, owner, owner.OrganizationID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}
