package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/internal/vault/telemetry"
	"github.com/aussiebroadwan/teamvault/pkg/idx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
)

// AccessKind is the outcome of ResolveEntryAccess.
type AccessKind int

const (
	AccessDenied AccessKind = iota
	AccessOwned
	AccessShared
)

func (k AccessKind) String() string {
	switch k {
	case AccessOwned:
		return "owned"
	case AccessShared:
		return "shared"
	default:
		return "denied"
	}
}

// EntryAccess says how a user reaches an entry. Entry is set unless access
// is denied; Share only for AccessShared.
type EntryAccess struct {
	Kind  AccessKind
	Entry domain.Entry
	Share domain.Share
}

// ShareService grants and revokes read access to single entries.
type ShareService struct {
	Store   store.Store
	Metrics *telemetry.Metrics
	Clock   Clock
}

// CreateOrUpdate shares an entry owned by the actor with the user behind
// toEmail. Sharing the same pair again reactivates and returns the one
// existing row.
func (s *ShareService) CreateOrUpdate(ctx context.Context, actor domain.Actor, entryID, toEmail string) (domain.Share, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("user_id", actor.UserID),
		slog.String("entry_id", entryID),
	)

	// 1. Only the owner may share.
	if _, err := s.ownedEntry(ctx, actor.UserID, entryID); err != nil {
		return domain.Share{}, err
	}

	// 2. The recipient must exist and be someone else.
	toEmail = domain.NormalizeEmail(toEmail)
	if !validEmail(toEmail) {
		return domain.Share{}, ErrInvalidEmail
	}
	recipient, err := s.Store.Users().GetUserByEmail(ctx, toEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("share to unregistered email", slog.String("to_email", toEmail))
			return domain.Share{}, ErrRecipientNotRegistered
		}
		log.Error("failed to look up recipient", slog.Any("error", err))
		return domain.Share{}, err
	}
	if recipient.ID == actor.UserID {
		log.Warn("self share rejected")
		return domain.Share{}, ErrSelfShare
	}

	// 3. Single atomic upsert keyed by (entry, recipient).
	now := s.Clock.now()
	share, err := s.Store.Shares().UpsertShare(ctx, domain.Share{
		ID:          idx.NewAt(now).String(),
		EntryID:     entryID,
		FromUserID:  actor.UserID,
		FromEmail:   actor.Email,
		ToUserID:    recipient.ID,
		ToEmail:     recipient.Email,
		Permissions: []domain.SharePermission{domain.PermissionRead},
		Status:      domain.ShareActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		log.Error("failed to upsert share", slog.Any("error", err))
		return domain.Share{}, err
	}

	log.Info("entry shared",
		slog.String("share_id", share.ID),
		slog.String("to_user_id", recipient.ID),
	)
	s.Metrics.ShareEvent("granted")
	return share, nil
}

// Revoke turns off a share the actor granted. The row is kept.
func (s *ShareService) Revoke(ctx context.Context, actor domain.Actor, shareID string) error {
	log := slogx.FromContext(ctx).With(
		slog.String("user_id", actor.UserID),
		slog.String("share_id", shareID),
	)

	// 1. Only the sharer sees the share; anyone else gets NotFound.
	share, err := s.Store.Shares().GetShareByID(ctx, shareID)
	switch {
	case errors.Is(err, store.ErrNotFound), err == nil && share.FromUserID != actor.UserID:
		log.Warn("revoke of unknown or foreign share")
		return ErrNotFound
	case err != nil:
		log.Error("failed to load share", slog.Any("error", err))
		return err
	}

	// 2. Flip the status. The grantor guard is repeated in the update.
	if err := s.Store.Shares().RevokeShare(ctx, shareID, actor.UserID, s.Clock.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		log.Error("failed to revoke share", slog.Any("error", err))
		return err
	}

	log.Info("share revoked",
		slog.String("entry_id", share.EntryID),
		slog.String("to_user_id", share.ToUserID),
	)
	s.Metrics.ShareEvent("revoked")
	return nil
}

// ListOutgoing returns the actor's active shares, optionally for one of
// their entries.
func (s *ShareService) ListOutgoing(ctx context.Context, actor domain.Actor, entryID string) ([]domain.Share, error) {
	if entryID != "" {
		if _, err := s.ownedEntry(ctx, actor.UserID, entryID); err != nil {
			return nil, err
		}
	}
	return s.Store.Shares().ListOutgoingShares(ctx, actor.UserID, entryID)
}

// ListIncoming returns active shares granted to the actor.
func (s *ShareService) ListIncoming(ctx context.Context, actor domain.Actor) ([]domain.Share, error) {
	return s.Store.Shares().ListIncomingShares(ctx, actor.UserID)
}

// ResolveEntryAccess decides whether userID may read entryID, and how.
// Missing entries resolve to AccessDenied rather than an error.
func (s *ShareService) ResolveEntryAccess(ctx context.Context, entryID, userID string) (EntryAccess, error) {
	entry, err := s.Store.Entries().GetEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return EntryAccess{Kind: AccessDenied}, nil
		}
		return EntryAccess{}, err
	}
	if entry.OwnerID == userID {
		return EntryAccess{Kind: AccessOwned, Entry: entry}, nil
	}

	share, err := s.Store.Shares().GetActiveShare(ctx, entryID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return EntryAccess{Kind: AccessDenied}, nil
		}
		return EntryAccess{}, err
	}
	return EntryAccess{Kind: AccessShared, Entry: entry, Share: share}, nil
}

func (s *ShareService) ownedEntry(ctx context.Context, userID, entryID string) (domain.Entry, error) {
	entry, err := s.Store.Entries().GetEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Entry{}, ErrEntryNotFound
		}
		return domain.Entry{}, err
	}
	if entry.OwnerID != userID {
		return domain.Entry{}, ErrEntryNotFound
	}
	return entry, nil
}
