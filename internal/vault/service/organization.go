package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/policy"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/pkg/idx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
)

// OrganizationService is the organization registry plus team membership.
type OrganizationService struct {
	Store store.Store
	Clock Clock
}

// Create registers an organization owned by ownerID. It does not touch the
// owner's user record; AccountService.Register runs it inside the
// registration transaction alongside the ownership update.
func (s *OrganizationService) Create(ctx context.Context, name, ownerID string) (domain.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" || ownerID == "" {
		return domain.Organization{}, ErrInvalidRequest
	}

	now := s.Clock.now()
	org := domain.Organization{
		ID:        idx.NewAt(now).String(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Organizations().CreateOrganization(ctx, org); err != nil {
		return domain.Organization{}, err
	}
	return org, nil
}

func (s *OrganizationService) Get(ctx context.Context, id string) (domain.Organization, error) {
	org, err := s.Store.Organizations().GetOrganizationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Organization{}, ErrNotFound
	}
	return org, err
}

// ListMembers returns the members of orgID: owners, then admins, then
// members, each group by account age.
func (s *OrganizationService) ListMembers(ctx context.Context, actor domain.Actor, orgID string) ([]domain.User, error) {
	if !policy.CanViewOrganization(actor.OrganizationID, orgID) {
		slogx.FromContext(ctx).Warn("member list denied",
			slog.String("user_id", actor.UserID),
			slog.String("organization_id", orgID),
		)
		return nil, ErrForbidden
	}

	members, err := s.Store.Users().ListUsersByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(members, func(a, b domain.User) int {
		return cmp.Or(
			cmp.Compare(a.Role.Rank(), b.Role.Rank()),
			a.CreatedAt.Compare(b.CreatedAt),
			strings.Compare(a.ID, b.ID),
		)
	})
	return members, nil
}

// RemoveMember detaches targetID from the actor's organization.
func (s *OrganizationService) RemoveMember(ctx context.Context, actor domain.Actor, targetID string) error {
	log := slogx.FromContext(ctx).With(
		slog.String("user_id", actor.UserID),
		slog.String("target_id", targetID),
	)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Target must exist.
		target, err := tx.Users().GetUserByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		// 2. Same organization, and the roles must allow it.
		if !policy.CanViewOrganization(actor.OrganizationID, target.OrganizationID) {
			return ErrForbidden
		}
		if !policy.CanRemoveMember(
			policy.Subject{UserID: actor.UserID, Role: actor.Role},
			policy.Subject{UserID: target.ID, Role: target.Role},
		) {
			return ErrForbidden
		}

		// 3. Drop organization and role together.
		return tx.Users().ClearOrganization(ctx, target.ID, s.Clock.now())
	})
	switch {
	case err == nil:
		log.Info("member removed", slog.String("organization_id", actor.OrganizationID))
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		log.Warn("member removal rejected", slog.Any("error", err))
		return err
	default:
		log.Error("failed to remove member", slog.Any("error", err))
		return err
	}
}
