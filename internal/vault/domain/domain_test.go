package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    domain.Role
		wantErr bool
	}{
		{"owner", domain.RoleOwner, false},
		{" Admin ", domain.RoleAdmin, false},
		{"MEMBER", domain.RoleMember, false},
		{"viewer", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domain.ParseRole(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidRole)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRoleRankOrdersOwnersFirst(t *testing.T) {
	require.Less(t, domain.RoleOwner.Rank(), domain.RoleAdmin.Rank())
	require.Less(t, domain.RoleAdmin.Rank(), domain.RoleMember.Rank())
}

func TestInvitationStatusTransitions(t *testing.T) {
	t.Parallel()

	all := []domain.InvitationStatus{
		domain.InvitationPending,
		domain.InvitationAccepted,
		domain.InvitationDeclined,
		domain.InvitationExpired,
	}

	for _, from := range all {
		for _, to := range all {
			want := from == domain.InvitationPending && to != domain.InvitationPending
			require.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
		require.Equal(t, from != domain.InvitationPending, from.IsTerminal())
	}
}

func TestInvitationIsOpen(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	inv := domain.Invitation{Status: domain.InvitationPending, ExpiresAt: now.Add(time.Minute)}
	require.True(t, inv.IsOpen(now))

	inv.ExpiresAt = now
	require.False(t, inv.IsOpen(now))

	inv.ExpiresAt = now.Add(time.Hour)
	inv.Status = domain.InvitationDeclined
	require.False(t, inv.IsOpen(now))
}

func TestWorkspaceName(t *testing.T) {
	require.Equal(t, "alice's Workspace", domain.WorkspaceName("Alice@Example.com"))
	require.Equal(t, "Team's Workspace", domain.WorkspaceName("@example.com"))
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "bob@example.com", domain.NormalizeEmail("  Bob@Example.COM "))
}
