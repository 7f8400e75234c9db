package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/stretchr/testify/require"
)

func TestInvitationAcceptJoinsOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "u1@example.com")

	inv, err := f.invites.Create(ctx, owner, "Bob@X.com", "member")
	require.NoError(t, err)
	require.Equal(t, "bob@x.com", inv.Email)
	require.Equal(t, domain.InvitationPending, inv.Status)
	require.Equal(t, t0.Add(7*24*time.Hour), inv.ExpiresAt)
	require.Equal(t, owner.Email, inv.InvitedByEmail)
	require.NotEmpty(t, inv.Token)

	bob := f.register(t, "bob@x.com")
	f.advance(time.Hour)

	res, err := f.invites.Respond(ctx, inv.Token, true)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, owner.OrganizationID, res.User.OrganizationID)
	require.Equal(t, domain.RoleMember, res.User.Role)
	require.Equal(t, domain.InvitationAccepted, res.Invitation.Status)

	// Bob left the workspace provisioned at registration.
	require.True(t, res.Switched)
	require.Equal(t, bob.OrganizationID, res.PreviousOrganizationID)

	after := f.actor(t, bob.UserID)
	require.Equal(t, owner.OrganizationID, after.OrganizationID)
	require.Equal(t, domain.RoleMember, after.Role)

	stored, err := f.st.Invitations().GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationAccepted, stored.Status)

	// Terminal: a second answer is rejected.
	_, err = f.invites.Respond(ctx, inv.Token, true)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestInvitationAcceptWithoutOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	member := f.join(t, owner, "member@example.com", domain.RoleMember)
	require.NoError(t, f.orgs.RemoveMember(ctx, owner, member.UserID))

	other := f.register(t, "other@example.com")
	inv, err := f.invites.Create(ctx, other, member.Email, "admin")
	require.NoError(t, err)

	res, err := f.invites.Respond(ctx, inv.Token, true)
	require.NoError(t, err)
	require.False(t, res.Switched)
	require.Empty(t, res.PreviousOrganizationID)
	require.Equal(t, domain.RoleAdmin, res.User.Role)
}

func TestInvitationDuplicatePending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	_, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)

	_, err = f.invites.Create(ctx, owner, "BOB@x.com", "admin")
	require.ErrorIs(t, err, ErrDuplicatePending)
	require.ErrorIs(t, err, ErrConflict)

	// Another organization may invite the same address.
	other := f.register(t, "other@example.com")
	_, err = f.invites.Create(ctx, other, "bob@x.com", "member")
	require.NoError(t, err)
}

func TestInvitationConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.invites.Create(ctx, owner, "race@example.com", "member")
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrDuplicatePending)
	}
	require.Equal(t, 1, ok)
}

func TestInvitationExistingMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	f.join(t, owner, "bob@x.com", domain.RoleMember)

	_, err := f.invites.Create(ctx, owner, "bob@x.com", "admin")
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInvitationAcceptWhenAlreadyMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	// Invited before registering, then joined through a second invitation.
	first, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)
	f.register(t, "bob@x.com")
	_, err = f.invites.Respond(ctx, first.Token, true)
	require.NoError(t, err)

	// Re-invite is blocked at creation; simulate a stale open invitation by
	// inserting one directly.
	stale := first
	stale.ID = "stale-invite"
	stale.Token = "stale-token"
	stale.Status = domain.InvitationPending
	require.NoError(t, f.st.Invitations().CreateInvitation(ctx, stale))

	_, err = f.invites.Respond(ctx, "stale-token", true)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInvitationAcceptBeforeRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	inv, err := f.invites.Create(ctx, owner, "newbie@example.com", "member")
	require.NoError(t, err)

	_, err = f.invites.Respond(ctx, inv.Token, true)
	require.ErrorIs(t, err, ErrUserNotFound)

	var notFound *UserNotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, "newbie@example.com", notFound.Email)

	// The invitation is untouched and can be accepted after registering.
	f.register(t, "newbie@example.com")
	_, err = f.invites.Respond(ctx, inv.Token, true)
	require.NoError(t, err)
}

func TestInvitationExpiredCannotBeAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	bob := f.register(t, "bob@x.com")

	inv, err := f.invites.Create(ctx, owner, bob.Email, "member")
	require.NoError(t, err)

	f.advance(domain.InvitationTTL + time.Second)

	_, err = f.invites.Respond(ctx, inv.Token, true)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
	_, err = f.invites.Respond(ctx, inv.Token, false)
	require.ErrorIs(t, err, ErrInvalidOrExpired)

	stored, err := f.st.Invitations().GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationPending, stored.Status)
	require.Equal(t, bob.OrganizationID, f.actor(t, bob.UserID).OrganizationID)
}

func TestInvitationUnknownToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.invites.Respond(context.Background(), "nope", true)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
	_, err = f.invites.Preview(context.Background(), "nope")
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestInvitationDecline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	inv, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)

	// Declining needs no account.
	res, err := f.invites.Respond(ctx, inv.Token, false)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, domain.InvitationDeclined, res.Invitation.Status)

	_, err = f.invites.Respond(ctx, inv.Token, true)
	require.ErrorIs(t, err, ErrInvalidOrExpired)

	// A declined invitation no longer blocks a new one.
	_, err = f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)
}

func TestInvitationResend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "u1@example.com")

	inv, err := f.invites.Create(ctx, owner, "dave@x.com", "admin")
	require.NoError(t, err)

	f.advance(48 * time.Hour)
	resent, err := f.invites.Resend(ctx, owner, inv.Token)
	require.NoError(t, err)
	require.Equal(t, f.now.Add(domain.InvitationTTL), resent.ExpiresAt)
	require.Equal(t, domain.InvitationPending, resent.Status)
	require.Equal(t, inv.ID, resent.ID)

	pending, err := f.invites.ListPending(ctx, owner, owner.OrganizationID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.True(t, resent.ExpiresAt.Equal(pending[0].ExpiresAt))

	require.Len(t, f.notifier.sent(), 2)
}

func TestInvitationResendAnswered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	inv, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)
	_, err = f.invites.Respond(ctx, inv.Token, false)
	require.NoError(t, err)

	_, err = f.invites.Resend(ctx, owner, inv.Token)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestInvitationResendLapsed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	inv, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)

	// No sweep has run; the row is still pending but past its expiry.
	f.advance(domain.InvitationTTL + 24*time.Hour)
	_, err = f.invites.Resend(ctx, owner, inv.Token)
	require.ErrorIs(t, err, ErrInvalidOrExpired)

	stored, err := f.st.Invitations().GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.True(t, inv.ExpiresAt.Equal(stored.ExpiresAt))
	require.Len(t, f.notifier.sent(), 1)

	// Same answer once housekeeping has flipped it.
	_, err = f.invites.SweepExpired(ctx)
	require.NoError(t, err)
	_, err = f.invites.Resend(ctx, owner, inv.Token)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestInvitationRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	member := f.join(t, owner, "member@example.com", domain.RoleMember)
	outsider := f.register(t, "outsider@example.com")

	inv, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)

	require.ErrorIs(t, f.invites.Revoke(ctx, outsider, inv.Token), ErrForbidden)
	require.ErrorIs(t, f.invites.Revoke(ctx, member, inv.Token), ErrForbidden)
	_, err = f.invites.Resend(ctx, outsider, inv.Token)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.invites.Revoke(ctx, owner, inv.Token))
	require.ErrorIs(t, f.invites.Revoke(ctx, owner, inv.Token), ErrNotFound)

	_, err = f.invites.Preview(ctx, inv.Token)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestInvitationRoleRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	admin := f.join(t, owner, "admin@example.com", domain.RoleAdmin)
	member := f.join(t, owner, "member@example.com", domain.RoleMember)

	_, err := f.invites.Create(ctx, owner, "x@example.com", "owner")
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.invites.Create(ctx, owner, "x@example.com", "superuser")
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.invites.Create(ctx, admin, "x@example.com", "admin")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.invites.Create(ctx, admin, "x@example.com", "member")
	require.NoError(t, err)

	_, err = f.invites.Create(ctx, member, "y@example.com", "member")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.invites.Create(ctx, owner, "not an email", "member")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.invites.ListPending(ctx, member, owner.OrganizationID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.invites.ListPending(ctx, admin, "some-other-org")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestInvitationNoOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	member := f.join(t, owner, "member@example.com", domain.RoleMember)
	require.NoError(t, f.orgs.RemoveMember(ctx, owner, member.UserID))

	_, err := f.invites.Create(ctx, f.actor(t, member.UserID), "x@example.com", "member")
	require.ErrorIs(t, err, ErrNoOrganization)
}

func TestInvitationListPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	first, err := f.invites.Create(ctx, owner, "a@example.com", "member")
	require.NoError(t, err)
	f.advance(time.Hour)
	second, err := f.invites.Create(ctx, owner, "b@example.com", "member")
	require.NoError(t, err)
	f.advance(time.Hour)
	declined, err := f.invites.Create(ctx, owner, "c@example.com", "member")
	require.NoError(t, err)
	_, err = f.invites.Respond(ctx, declined.Token, false)
	require.NoError(t, err)

	pending, err := f.invites.ListPending(ctx, owner, owner.OrganizationID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, second.ID, pending[0].ID)
	require.Equal(t, first.ID, pending[1].ID)

	// Past the first one's expiry only the second remains.
	f.now = first.ExpiresAt.Add(time.Minute)
	pending, err = f.invites.ListPending(ctx, owner, owner.OrganizationID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)
}

func TestInvitationSweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	inv, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)

	n, err := f.invites.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	f.advance(domain.InvitationTTL + time.Minute)

	n, err = f.invites.SweepExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = f.invites.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	stored, err := f.st.Invitations().GetInvitationByToken(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, stored.Status)

	// Expired rows do not block a fresh invitation.
	_, err = f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)
}

func TestInvitationLazySweepOnCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	_, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)

	f.advance(domain.InvitationTTL + time.Minute)
	_, err = f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)
}

func TestInvitationPreview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	inv, err := f.invites.Create(ctx, owner, "bob@x.com", "admin")
	require.NoError(t, err)

	p, err := f.invites.Preview(ctx, inv.Token)
	require.NoError(t, err)
	require.Equal(t, "owner's Workspace", p.OrganizationName)
	require.Equal(t, domain.RoleAdmin, p.Invitation.Role)
	require.Equal(t, "owner@example.com", p.Invitation.InviterLabel())
}

func TestInvitationNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	inv, err := f.invites.Create(ctx, owner, "bob@x.com", "member")
	require.NoError(t, err)

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	require.Equal(t, InvitationNotice{
		ToEmail:          "bob@x.com",
		InviterLabel:     "owner@example.com",
		OrganizationID:   owner.OrganizationID,
		OrganizationName: "owner's Workspace",
		Role:             "member",
		Token:            inv.Token,
		ExpiresAt:        inv.ExpiresAt,
	}, sent[0])

	t.Run("failure does not undo the invitation", func(t *testing.T) {
		f.notifier.err = errNotifierDown

		inv, err := f.invites.Create(ctx, owner, "carol@x.com", "member")
		require.NoError(t, err)

		stored, err := f.st.Invitations().GetInvitationByToken(ctx, inv.Token)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationPending, stored.Status)

		_, err = f.invites.Resend(ctx, owner, inv.Token)
		require.NoError(t, err)
	})
}
