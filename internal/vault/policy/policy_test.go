package policy_test

import (
	"testing"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/policy"
	"github.com/stretchr/testify/require"
)

var roles = []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleMember, domain.Role("ghost")}

func TestCanManageInvites(t *testing.T) {
	t.Parallel()

	require.True(t, policy.CanManageInvites(domain.RoleOwner))
	require.True(t, policy.CanManageInvites(domain.RoleAdmin))
	require.False(t, policy.CanManageInvites(domain.RoleMember))
	require.False(t, policy.CanManageInvites(""))
}

func TestCanAssignRole(t *testing.T) {
	t.Parallel()

	allowed := map[[2]domain.Role]bool{
		{domain.RoleOwner, domain.RoleAdmin}:  true,
		{domain.RoleOwner, domain.RoleMember}: true,
		{domain.RoleAdmin, domain.RoleMember}: true,
	}

	for _, actor := range roles {
		for _, target := range roles {
			t.Run(string(actor)+"->"+string(target), func(t *testing.T) {
				require.Equal(t, allowed[[2]domain.Role{actor, target}], policy.CanAssignRole(actor, target))
			})
		}
	}

	t.Run("owner is never assignable", func(t *testing.T) {
		for _, actor := range roles {
			require.False(t, policy.CanAssignRole(actor, domain.RoleOwner))
		}
	})
}

func TestCanRemoveMember(t *testing.T) {
	t.Parallel()

	allowed := map[[2]domain.Role]bool{
		{domain.RoleOwner, domain.RoleAdmin}:  true,
		{domain.RoleOwner, domain.RoleMember}: true,
		{domain.RoleAdmin, domain.RoleMember}: true,
	}

	for _, actor := range roles {
		for _, target := range roles {
			t.Run(string(actor)+"->"+string(target), func(t *testing.T) {
				got := policy.CanRemoveMember(
					policy.Subject{UserID: "actor", Role: actor},
					policy.Subject{UserID: "target", Role: target},
				)
				require.Equal(t, allowed[[2]domain.Role{actor, target}], got)
			})
		}
	}

	t.Run("never self", func(t *testing.T) {
		for _, role := range roles {
			s := policy.Subject{UserID: "same", Role: role}
			require.False(t, policy.CanRemoveMember(s, s))
		}
	})

	t.Run("owner cannot remove another owner", func(t *testing.T) {
		require.False(t, policy.CanRemoveMember(
			policy.Subject{UserID: "a", Role: domain.RoleOwner},
			policy.Subject{UserID: "b", Role: domain.RoleOwner},
		))
	})
}

func TestCanRevokeOrResendInvite(t *testing.T) {
	t.Parallel()

	require.True(t, policy.CanRevokeOrResendInvite("org-1", "org-1"))
	require.False(t, policy.CanRevokeOrResendInvite("org-1", "org-2"))
	require.False(t, policy.CanRevokeOrResendInvite("", ""))
}

func TestCanViewOrganization(t *testing.T) {
	t.Parallel()

	require.True(t, policy.CanViewOrganization("org-1", "org-1"))
	require.False(t, policy.CanViewOrganization("org-1", "org-2"))
	require.False(t, policy.CanViewOrganization("", ""))
}
