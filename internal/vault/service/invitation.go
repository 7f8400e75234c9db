package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/policy"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/internal/vault/telemetry"
	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/aussiebroadwan/teamvault/pkg/idx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
)

const notifyTimeout = 15 * time.Second

// InvitationService runs the invitation lifecycle:
// pending -> accepted | declined | expired, all terminal.
type InvitationService struct {
	Store    store.Store
	Notifier Notifier
	Metrics  *telemetry.Metrics
	Clock    Clock
}

// RespondResult describes the outcome of answering an invitation.
type RespondResult struct {
	Invitation domain.Invitation
	Accepted   bool

	// User is the invitee after acceptance; zero on decline.
	User domain.User

	// Switched is set when the invitee left another organization to join.
	Switched               bool
	PreviousOrganizationID string
}

// InvitationPreview is the public view of an open invitation.
type InvitationPreview struct {
	Invitation       domain.Invitation
	OrganizationName string
}

// Create issues a pending invitation from the actor's organization to email.
func (s *InvitationService) Create(ctx context.Context, actor domain.Actor, email, role string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("user_id", actor.UserID),
		slog.String("organization_id", actor.OrganizationID),
	)

	// 1. The actor must be able to invite, and to grant this role.
	if actor.OrganizationID == "" {
		return domain.Invitation{}, ErrNoOrganization
	}
	if !policy.CanManageInvites(actor.Role) {
		log.Warn("invite denied", slog.String("role", actor.Role.String()))
		return domain.Invitation{}, ErrForbidden
	}

	email = domain.NormalizeEmail(email)
	if !validEmail(email) {
		return domain.Invitation{}, ErrInvalidEmail
	}
	target, err := domain.ParseRole(role)
	if err != nil || target == domain.RoleOwner {
		return domain.Invitation{}, ErrInvalidRole
	}
	if !policy.CanAssignRole(actor.Role, target) {
		log.Warn("invite role denied",
			slog.String("role", actor.Role.String()),
			slog.String("target_role", target.String()),
		)
		return domain.Invitation{}, ErrForbidden
	}

	// 2. Stale pending rows would otherwise block a fresh invite.
	now := s.Clock.now()
	s.sweep(ctx, now)

	// 3. Existing members cannot be invited again.
	existing, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.OrganizationID == actor.OrganizationID:
		log.Warn("invite for existing member", slog.String("email", email))
		return domain.Invitation{}, ErrAlreadyMember
	case err != nil && !errors.Is(err, store.ErrNotFound):
		log.Error("failed to look up invitee", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	// 4. Mint the token and insert. The pending-uniqueness index decides races.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invitation token", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	inv := domain.Invitation{
		ID:             idx.NewAt(now).String(),
		Token:          token,
		Email:          email,
		OrganizationID: actor.OrganizationID,
		Role:           target,
		InvitedByID:    actor.UserID,
		InvitedByEmail: actor.Email,
		Status:         domain.InvitationPending,
		ExpiresAt:      now.Add(domain.InvitationTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("duplicate pending invitation", slog.String("email", email))
			return domain.Invitation{}, ErrDuplicatePending
		}
		log.Error("failed to create invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("role", inv.Role.String()),
		slog.String("token_fp", cryptox.FingerprintToken(token)),
	)
	s.Metrics.InvitationEvent("created")

	// 5. Notify only after the row is durable.
	s.notify(ctx, inv)
	return inv, nil
}

// Resend pushes the expiry of a pending invitation out to a full TTL from
// now and notifies the invitee again.
func (s *InvitationService) Resend(ctx context.Context, actor domain.Actor, token string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx).With(slog.String("user_id", actor.UserID))

	inv, err := s.authorizedInvitation(ctx, actor, token)
	if err != nil {
		return domain.Invitation{}, err
	}
	now := s.Clock.now()
	if !inv.IsOpen(now) {
		return domain.Invitation{}, ErrInvalidOrExpired
	}

	expiresAt := now.Add(domain.InvitationTTL)
	if err := s.Store.Invitations().ExtendInvitation(ctx, inv.ID, expiresAt, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Answered or swept since we read it.
			return domain.Invitation{}, ErrInvalidOrExpired
		}
		log.Error("failed to extend invitation", slog.String("invitation_id", inv.ID), slog.Any("error", err))
		return domain.Invitation{}, err
	}
	inv.ExpiresAt = expiresAt
	inv.UpdatedAt = now

	log.Info("invitation resent", slog.String("invitation_id", inv.ID))
	s.Metrics.InvitationEvent("resent")

	s.notify(ctx, inv)
	return inv, nil
}

// Revoke deletes an invitation outright.
func (s *InvitationService) Revoke(ctx context.Context, actor domain.Actor, token string) error {
	log := slogx.FromContext(ctx).With(slog.String("user_id", actor.UserID))

	inv, err := s.authorizedInvitation(ctx, actor, token)
	if err != nil {
		return err
	}

	if err := s.Store.Invitations().DeleteInvitation(ctx, inv.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		log.Error("failed to delete invitation", slog.String("invitation_id", inv.ID), slog.Any("error", err))
		return err
	}

	log.Info("invitation revoked", slog.String("invitation_id", inv.ID))
	s.Metrics.InvitationEvent("revoked")
	return nil
}

// authorizedInvitation loads the invitation behind token and checks the
// actor may resend or revoke it.
func (s *InvitationService) authorizedInvitation(ctx context.Context, actor domain.Actor, token string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invitations().GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	if !policy.CanManageInvites(actor.Role) ||
		!policy.CanRevokeOrResendInvite(actor.OrganizationID, inv.OrganizationID) {
		log.Warn("invitation access denied",
			slog.String("user_id", actor.UserID),
			slog.String("invitation_id", inv.ID),
		)
		return domain.Invitation{}, ErrForbidden
	}
	return inv, nil
}

// Respond accepts or declines the open invitation behind token. The token
// itself is the credential; no session is required.
func (s *InvitationService) Respond(ctx context.Context, token string, accept bool) (RespondResult, error) {
	log := slogx.FromContext(ctx)
	now := s.Clock.now()

	if !accept {
		return s.decline(ctx, token, now)
	}

	var res RespondResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Only a pending, unexpired invitation can be answered.
		inv, err := tx.Invitations().GetOpenInvitationByToken(ctx, token, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidOrExpired
			}
			return err
		}

		// 2. The invitee must already have an account.
		user, err := tx.Users().GetUserByEmail(ctx, inv.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &UserNotFoundError{Email: inv.Email}
			}
			return err
		}
		if user.OrganizationID == inv.OrganizationID {
			return ErrAlreadyMember
		}

		// 3. Join (or switch into) the organization and close the invitation.
		if err := tx.Users().SetOrganization(ctx, user.ID, inv.OrganizationID, inv.Role, now); err != nil {
			return err
		}
		if err := tx.Invitations().TransitionInvitation(ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidOrExpired
			}
			return err
		}

		previous := user.OrganizationID
		user.OrganizationID = inv.OrganizationID
		user.Role = inv.Role
		user.UpdatedAt = now
		inv.Status = domain.InvitationAccepted
		inv.UpdatedAt = now

		res = RespondResult{
			Invitation:             inv,
			Accepted:               true,
			User:                   user,
			Switched:               previous != "",
			PreviousOrganizationID: previous,
		}
		return nil
	})
	if err != nil {
		var notFound *UserNotFoundError
		switch {
		case errors.As(err, &notFound):
			log.Info("invitation accepted before registration", slog.String("email", notFound.Email))
		case errors.Is(err, ErrInvalidOrExpired), errors.Is(err, ErrAlreadyMember):
			log.Warn("invitation accept rejected", slog.Any("error", err))
		default:
			log.Error("failed to accept invitation", slog.Any("error", err))
		}
		return RespondResult{}, err
	}

	log.Info("invitation accepted",
		slog.String("invitation_id", res.Invitation.ID),
		slog.String("user_id", res.User.ID),
		slog.String("organization_id", res.Invitation.OrganizationID),
		slog.Bool("switched", res.Switched),
	)
	s.Metrics.InvitationEvent("accepted")
	return res, nil
}

func (s *InvitationService) decline(ctx context.Context, token string, now time.Time) (RespondResult, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invitations().GetOpenInvitationByToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RespondResult{}, ErrInvalidOrExpired
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return RespondResult{}, err
	}

	err = s.Store.Invitations().TransitionInvitation(ctx, inv.ID, domain.InvitationPending, domain.InvitationDeclined, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RespondResult{}, ErrInvalidOrExpired
		}
		log.Error("failed to decline invitation", slog.String("invitation_id", inv.ID), slog.Any("error", err))
		return RespondResult{}, err
	}
	inv.Status = domain.InvitationDeclined
	inv.UpdatedAt = now

	log.Info("invitation declined", slog.String("invitation_id", inv.ID))
	s.Metrics.InvitationEvent("declined")
	return RespondResult{Invitation: inv}, nil
}

// ListPending returns the open invitations of orgID, newest first.
func (s *InvitationService) ListPending(ctx context.Context, actor domain.Actor, orgID string) ([]domain.Invitation, error) {
	if !policy.CanViewOrganization(actor.OrganizationID, orgID) || !policy.CanManageInvites(actor.Role) {
		slogx.FromContext(ctx).Warn("invitation list denied",
			slog.String("user_id", actor.UserID),
			slog.String("organization_id", orgID),
		)
		return nil, ErrForbidden
	}

	now := s.Clock.now()
	s.sweep(ctx, now)
	return s.Store.Invitations().ListOpenInvitations(ctx, orgID, now)
}

// ListAllPending returns every pending invitation across organizations,
// including ones past expiry that no sweep has reached yet.
func (s *InvitationService) ListAllPending(ctx context.Context) ([]domain.Invitation, error) {
	return s.Store.Invitations().ListPendingInvitations(ctx)
}

// Preview shows the holder of a token what they were invited to.
func (s *InvitationService) Preview(ctx context.Context, token string) (InvitationPreview, error) {
	inv, err := s.Store.Invitations().GetOpenInvitationByToken(ctx, token, s.Clock.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvitationPreview{}, ErrInvalidOrExpired
		}
		return InvitationPreview{}, err
	}
	return InvitationPreview{Invitation: inv, OrganizationName: s.organizationName(ctx, inv.OrganizationID)}, nil
}

// SweepExpired marks every pending invitation past its expiry as expired.
// Safe to run concurrently and repeatedly.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Store.Invitations().ExpireInvitations(ctx, s.Clock.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slogx.FromContext(ctx).Info("expired stale invitations", slog.Int64("count", n))
	}
	s.Metrics.InvitationsExpired(n)
	return n, nil
}

// sweep is the lazy form of SweepExpired used before creates and lists.
func (s *InvitationService) sweep(ctx context.Context, now time.Time) {
	n, err := s.Store.Invitations().ExpireInvitations(ctx, now)
	if err != nil {
		slogx.FromContext(ctx).Error("lazy invitation sweep failed", slog.Any("error", err))
		return
	}
	s.Metrics.InvitationsExpired(n)
}

func (s *InvitationService) organizationName(ctx context.Context, orgID string) string {
	org, err := s.Store.Organizations().GetOrganizationByID(ctx, orgID)
	if err != nil {
		slogx.FromContext(ctx).Warn("organization lookup failed",
			slog.String("organization_id", orgID),
			slog.Any("error", err),
		)
		return "a team workspace"
	}
	return org.Name
}

// notify delivers an invitation notice. Failures are logged and dropped; the
// invitation stands either way.
func (s *InvitationService) notify(ctx context.Context, inv domain.Invitation) {
	if s.Notifier == nil {
		return
	}
	log := slogx.FromContext(ctx)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := s.Notifier.SendInvitation(ctx, InvitationNotice{
		ToEmail:          inv.Email,
		InviterLabel:     inv.InviterLabel(),
		OrganizationID:   inv.OrganizationID,
		OrganizationName: s.organizationName(ctx, inv.OrganizationID),
		Role:             inv.Role.String(),
		Token:            inv.Token,
		ExpiresAt:        inv.ExpiresAt,
	})
	s.Metrics.Notification(err)
	if err != nil {
		log.Warn("invitation notification failed",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
	}
}
