package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, mongo)
// implement this. Sub-repositories are exposed as methods so a Tx can hand
// out transaction-scoped repos with the same shape.
type Store interface {
	Users() Users
	Organizations() Organizations
	Invitations() Invitations
	Shares() Shares
	Entries() Entries

	// ApplyMigrations brings the schema (tables, indexes) up to date.
	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Inside fn only
	// the repos of tx may be used.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the identity store.
type Users interface {
	// CreateUser inserts a user. Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns every user, oldest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// ListUsersByOrganization returns the members of an organization.
	ListUsersByOrganization(ctx context.Context, orgID string) ([]domain.User, error)

	// SetOrganization moves a user into orgID with role, replacing any
	// previous membership.
	SetOrganization(ctx context.Context, userID, orgID string, role domain.Role, now time.Time) error

	// ClearOrganization removes the user's membership.
	ClearOrganization(ctx context.Context, userID string, now time.Time) error

	UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error
}

type Organizations interface {
	CreateOrganization(ctx context.Context, o domain.Organization) error
	GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error)
}

type Invitations interface {
	// CreateInvitation inserts a pending invitation. Returns ErrAlreadyExists
	// when a pending invitation for the same (organization, email) exists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByToken returns the invitation in any status.
	GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error)

	// GetOpenInvitationByToken returns the invitation only if it is pending
	// and expires after now.
	GetOpenInvitationByToken(ctx context.Context, token string, now time.Time) (domain.Invitation, error)

	// ListOpenInvitations returns pending, unexpired invitations of an
	// organization, newest first.
	ListOpenInvitations(ctx context.Context, orgID string, now time.Time) ([]domain.Invitation, error)

	// ListPendingInvitations returns every pending invitation regardless of
	// expiry, newest first.
	ListPendingInvitations(ctx context.Context) ([]domain.Invitation, error)

	// ExtendInvitation sets a new expiry on a pending invitation that has not
	// lapsed at now. Returns ErrNotFound otherwise.
	ExtendInvitation(ctx context.Context, id string, expiresAt, now time.Time) error

	// TransitionInvitation moves an invitation from one status to another
	// only if it is currently in from. Returns ErrNotFound otherwise.
	TransitionInvitation(ctx context.Context, id string, from, to domain.InvitationStatus, now time.Time) error

	DeleteInvitation(ctx context.Context, id string) error

	// ExpireInvitations marks every pending invitation with expires_at
	// before now as expired and returns how many changed.
	ExpireInvitations(ctx context.Context, now time.Time) (int64, error)
}

type Shares interface {
	// UpsertShare creates or reactivates the share for (EntryID, ToUserID)
	// in a single atomic step and returns the stored row.
	UpsertShare(ctx context.Context, s domain.Share) (domain.Share, error)

	GetShareByID(ctx context.Context, id string) (domain.Share, error)

	// GetActiveShare returns the active share of entryID for toUserID.
	GetActiveShare(ctx context.Context, entryID, toUserID string) (domain.Share, error)

	// RevokeShare sets a share owned by fromUserID to revoked. Returns
	// ErrNotFound if no such share exists.
	RevokeShare(ctx context.Context, id, fromUserID string, now time.Time) error

	// RevokeEntryShares revokes every active share of an entry.
	RevokeEntryShares(ctx context.Context, entryID string, now time.Time) error

	// ListOutgoingShares returns active shares granted by fromUserID,
	// optionally restricted to one entry. Newest first.
	ListOutgoingShares(ctx context.Context, fromUserID, entryID string) ([]domain.Share, error)

	// ListIncomingShares returns active shares granted to toUserID. Newest first.
	ListIncomingShares(ctx context.Context, toUserID string) ([]domain.Share, error)
}

type Entries interface {
	CreateEntry(ctx context.Context, e domain.Entry) error
	GetEntryByID(ctx context.Context, id string) (domain.Entry, error)

	// ListEntriesByOwner returns entries owned by ownerID, most recently
	// updated first.
	ListEntriesByOwner(ctx context.Context, ownerID string) ([]domain.Entry, error)

	// ListEntriesByIDs returns the entries that still exist among ids, in
	// no particular order.
	ListEntriesByIDs(ctx context.Context, ids []string) ([]domain.Entry, error)

	// UpdateEntry replaces the mutable fields of an entry owned by e.OwnerID.
	UpdateEntry(ctx context.Context, e domain.Entry) error

	DeleteEntry(ctx context.Context, id, ownerID string) error
}
