package domain

import (
	"time"
)

type SharePermission string

// PermissionRead is the only grant a share can carry.
const PermissionRead SharePermission = "read"

func (p SharePermission) Valid() bool { return p == PermissionRead }

type ShareStatus string

const (
	ShareActive  ShareStatus = "active"
	ShareRevoked ShareStatus = "revoked"
)

func (s ShareStatus) Valid() bool {
	return s == ShareActive || s == ShareRevoked
}

// Share grants one user read access to one entry owned by another user.
// There is at most one share per (EntryID, ToUserID); revoked rows are kept
// and reactivated by a later share of the same pair.
type Share struct {
	ID          string
	EntryID     string
	FromUserID  string
	FromEmail   string
	ToUserID    string
	ToEmail     string
	Permissions []SharePermission
	Status      ShareStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Share) IsActive() bool { return s.Status == ShareActive }
