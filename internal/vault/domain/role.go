package domain

import (
	"errors"
	"strings"
)

// Role is a user's standing inside their organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var ErrInvalidRole = errors.New("domain: invalid role")

// ParseRole accepts a role name case-insensitively. Anything outside the
// closed set is rejected.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// Rank orders roles for member listings: owners first, then admins, then members.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 0
	case RoleAdmin:
		return 1
	case RoleMember:
		return 2
	default:
		return 3
	}
}

func (r Role) String() string { return string(r) }
