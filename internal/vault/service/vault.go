package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/aussiebroadwan/teamvault/pkg/idx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
	"github.com/pquerna/otp/totp"
	"golang.org/x/sync/errgroup"
)

// Scope filters List.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeOwned  Scope = "owned"
	ScopeShared Scope = "shared"
)

// ParseScope maps "" to ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeOwned:
		return ScopeOwned, nil
	case ScopeShared:
		return ScopeShared, nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", ErrInvalidRequest, s)
	}
}

// EntryInput is the editable part of an entry, in plaintext.
type EntryInput struct {
	Name       string
	Username   string
	Password   string
	URL        string
	Notes      string
	TOTPSecret string
}

// EntryView is an entry with its secrets opened. Shared views are read-only.
type EntryView struct {
	Entry    domain.Entry
	TOTPCode string
	Shared   bool
	Share    domain.Share
}

// VaultService stores entries and answers "what can I see" queries. Secrets
// are sealed before they reach the store.
type VaultService struct {
	Store  store.Store
	Shares *ShareService
	Sealer *cryptox.Sealer
	Clock  Clock
}

func (s *VaultService) Create(ctx context.Context, actor domain.Actor, in EntryInput) (EntryView, error) {
	log := slogx.FromContext(ctx).With(slog.String("user_id", actor.UserID))

	in, err := normalizeEntryInput(in)
	if err != nil {
		return EntryView{}, err
	}

	now := s.Clock.now()
	entry := domain.Entry{
		ID:             idx.NewAt(now).String(),
		OwnerID:        actor.UserID,
		OrganizationID: actor.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.seal(&entry, in); err != nil {
		return EntryView{}, err
	}

	if err := s.Store.Entries().CreateEntry(ctx, entry); err != nil {
		log.Error("failed to create entry", slog.Any("error", err))
		return EntryView{}, err
	}

	log.Info("entry created", slog.String("entry_id", entry.ID))
	return s.view(entry, domain.Share{}, now)
}

// Get returns an entry the actor owns or has an active share for.
func (s *VaultService) Get(ctx context.Context, actor domain.Actor, id string) (EntryView, error) {
	access, err := s.Shares.ResolveEntryAccess(ctx, id, actor.UserID)
	if err != nil {
		return EntryView{}, err
	}
	if access.Kind == AccessDenied {
		return EntryView{}, ErrEntryNotFound
	}
	return s.view(access.Entry, access.Share, s.Clock.now())
}

// Update replaces an owned entry. Recipients of a share get ErrForbidden.
func (s *VaultService) Update(ctx context.Context, actor domain.Actor, id string, in EntryInput) (EntryView, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("user_id", actor.UserID),
		slog.String("entry_id", id),
	)

	if err := s.requireOwner(ctx, actor, id); err != nil {
		return EntryView{}, err
	}

	in, err := normalizeEntryInput(in)
	if err != nil {
		return EntryView{}, err
	}

	var entry domain.Entry
	now := s.Clock.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		entry, err = tx.Entries().GetEntryByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.seal(&entry, in); err != nil {
			return err
		}
		entry.UpdatedAt = now
		return tx.Entries().UpdateEntry(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return EntryView{}, ErrEntryNotFound
		}
		log.Error("failed to update entry", slog.Any("error", err))
		return EntryView{}, err
	}

	log.Info("entry updated")
	return s.view(entry, domain.Share{}, now)
}

// Delete removes an owned entry and revokes every share of it.
func (s *VaultService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	log := slogx.FromContext(ctx).With(
		slog.String("user_id", actor.UserID),
		slog.String("entry_id", id),
	)

	if err := s.requireOwner(ctx, actor, id); err != nil {
		return err
	}

	now := s.Clock.now()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Entries().DeleteEntry(ctx, id, actor.UserID); err != nil {
			return err
		}
		return tx.Shares().RevokeEntryShares(ctx, id, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEntryNotFound
		}
		log.Error("failed to delete entry", slog.Any("error", err))
		return err
	}

	log.Info("entry deleted")
	return nil
}

// List returns the entries visible to the actor: their own plus those
// reached through active incoming shares, most recently updated first with
// both kinds interleaved.
func (s *VaultService) List(ctx context.Context, actor domain.Actor, scope Scope) ([]EntryView, error) {
	var owned, shared []EntryView
	now := s.Clock.now()

	g, gctx := errgroup.WithContext(ctx)
	if scope != ScopeShared {
		g.Go(func() error {
			entries, err := s.Store.Entries().ListEntriesByOwner(gctx, actor.UserID)
			if err != nil {
				return fmt.Errorf("list owned entries: %w", err)
			}
			for _, e := range entries {
				v, err := s.view(e, domain.Share{}, now)
				if err != nil {
					return err
				}
				owned = append(owned, v)
			}
			return nil
		})
	}
	if scope != ScopeOwned {
		g.Go(func() error {
			var err error
			shared, err = s.sharedViews(gctx, actor, now)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		slogx.FromContext(ctx).Error("failed to list vault",
			slog.String("user_id", actor.UserID),
			slog.Any("error", err),
		)
		return nil, err
	}

	out := append(owned, shared...)
	slices.SortStableFunc(out, func(a, b EntryView) int {
		return cmp.Or(
			b.Entry.UpdatedAt.Compare(a.Entry.UpdatedAt),
			strings.Compare(b.Entry.ID, a.Entry.ID),
		)
	})
	return out, nil
}

func (s *VaultService) sharedViews(ctx context.Context, actor domain.Actor, now time.Time) ([]EntryView, error) {
	shares, err := s.Store.Shares().ListIncomingShares(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list incoming shares: %w", err)
	}
	if len(shares) == 0 {
		return nil, nil
	}

	byEntry := make(map[string]domain.Share, len(shares))
	ids := make([]string, 0, len(shares))
	for _, sh := range shares {
		byEntry[sh.EntryID] = sh
		ids = append(ids, sh.EntryID)
	}

	entries, err := s.Store.Entries().ListEntriesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list shared entries: %w", err)
	}

	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		sh := byEntry[e.ID]
		if e.OwnerID != sh.FromUserID {
			continue
		}
		v, err := s.view(e, sh, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// requireOwner distinguishes "not yours but shared with you" (forbidden)
// from "not visible at all" (not found).
func (s *VaultService) requireOwner(ctx context.Context, actor domain.Actor, id string) error {
	access, err := s.Shares.ResolveEntryAccess(ctx, id, actor.UserID)
	if err != nil {
		return err
	}
	switch access.Kind {
	case AccessOwned:
		return nil
	case AccessShared:
		return ErrForbidden
	default:
		return ErrEntryNotFound
	}
}

func (s *VaultService) seal(e *domain.Entry, in EntryInput) error {
	password, err := s.Sealer.Seal(in.Password)
	if err != nil {
		return err
	}
	secret, err := s.Sealer.Seal(in.TOTPSecret)
	if err != nil {
		return err
	}

	e.Name = in.Name
	e.Username = in.Username
	e.Password = password
	e.URL = in.URL
	e.Notes = in.Notes
	e.TOTPSecret = secret
	return nil
}

// view opens the sealed fields of e.
func (s *VaultService) view(e domain.Entry, share domain.Share, now time.Time) (EntryView, error) {
	password, err := s.Sealer.Open(e.Password)
	if err != nil {
		return EntryView{}, fmt.Errorf("open entry %s: %w", e.ID, err)
	}
	secret, err := s.Sealer.Open(e.TOTPSecret)
	if err != nil {
		return EntryView{}, fmt.Errorf("open entry %s: %w", e.ID, err)
	}

	v := EntryView{Entry: e, Share: share, Shared: share.ID != ""}
	v.Entry.Password = password
	v.Entry.TOTPSecret = secret
	if secret != "" {
		if code, err := totp.GenerateCode(secret, now); err == nil {
			v.TOTPCode = code
		}
	}
	return v, nil
}

func normalizeEntryInput(in EntryInput) (EntryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.URL = strings.TrimSpace(in.URL)
	in.TOTPSecret = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.TOTPSecret), " ", ""))

	if in.Name == "" {
		return in, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if in.TOTPSecret != "" {
		if _, err := totp.GenerateCode(in.TOTPSecret, time.Now()); err != nil {
			return in, fmt.Errorf("%w: totp secret is not valid base32", ErrInvalidRequest)
		}
	}
	return in, nil
}
