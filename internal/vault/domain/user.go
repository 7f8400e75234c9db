package domain

import (
	"strings"
	"time"
)

// User is an account. OrganizationID and Role are both empty when the user
// does not belong to an organization.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	OrganizationID string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u User) HasOrganization() bool { return u.OrganizationID != "" }

// Actor is the authenticated caller of an operation, resolved fresh from the
// identity store for every request.
type Actor struct {
	UserID         string
	Email          string
	OrganizationID string
	Role           Role
}

// ActorFromUser builds the actor view of a stored user.
func ActorFromUser(u User) Actor {
	return Actor{
		UserID:         u.ID,
		Email:          u.Email,
		OrganizationID: u.OrganizationID,
		Role:           u.Role,
	}
}

// NormalizeEmail trims and lowercases an address. All stored and compared
// emails go through here.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
