package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/aussiebroadwan/teamvault/pkg/idx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// AccountService is the identity side of the vault: registration, login and
// operator maintenance of user records.
type AccountService struct {
	Store  store.Store
	Hasher cryptox.Hasher
	Clock  Clock
}

// Register creates a user together with their personal workspace, in which
// they are the owner. Everything happens in one transaction.
func (s *AccountService) Register(ctx context.Context, email, password string) (domain.User, domain.Organization, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	email = domain.NormalizeEmail(email)
	if !validEmail(email) {
		return domain.User{}, domain.Organization{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return domain.User{}, domain.Organization{}, ErrInvalidPassword
	}

	// 2. Hash outside the transaction; argon2 is slow on purpose.
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, domain.Organization{}, err
	}

	now := s.Clock.now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 3. User, workspace and ownership land together or not at all.
	var org domain.Organization
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}

		orgs := OrganizationService{Store: tx, Clock: s.Clock}
		org, err = orgs.Create(ctx, domain.WorkspaceName(email), user.ID)
		if err != nil {
			return err
		}

		return tx.Users().SetOrganization(ctx, user.ID, org.ID, domain.RoleOwner, now)
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			log.Warn("registration with taken email", slog.String("email", email))
		} else {
			log.Error("failed to register user", slog.String("email", email), slog.Any("error", err))
		}
		return domain.User{}, domain.Organization{}, err
	}

	user.OrganizationID = org.ID
	user.Role = domain.RoleOwner

	log.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("organization_id", org.ID),
	)
	return user, org, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("login for unknown email", slog.String("email", email))
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, err
	}

	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("stored password hash unreadable",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
		return domain.User{}, ErrInvalidCredentials
	}

	log.Debug("user logged in", slog.String("user_id", user.ID))
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrNotFound
	}
	return u, err
}

// ResolveActor loads the current view of an authenticated user. Roles are
// read fresh on every request rather than trusted from the session token.
func (s *AccountService) ResolveActor(ctx context.Context, userID string) (domain.Actor, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.ActorFromUser(u), nil
}

func (s *AccountService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// ResetPassword replaces a user's password with a generated one and returns
// it. Used by the operator CLI.
func (s *AccountService) ResetPassword(ctx context.Context, email string) (string, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	password, err := cryptox.GeneratePassword()
	if err != nil {
		return "", err
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return "", err
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash, s.Clock.now()); err != nil {
		log.Error("failed to update password", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", err
	}

	log.Info("password reset", slog.String("user_id", user.ID))
	return password, nil
}
