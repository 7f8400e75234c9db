package domain

import (
	"time"
)

// InvitationTTL is how long an invitation stays open after creation or resend.
const InvitationTTL = 7 * 24 * time.Hour

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined, InvitationExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s InvitationStatus) IsTerminal() bool {
	return s != InvitationPending
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Only pending invitations move, and they never move back to pending.
func (s InvitationStatus) CanTransition(to InvitationStatus) bool {
	if s != InvitationPending {
		return false
	}
	switch to {
	case InvitationAccepted, InvitationDeclined, InvitationExpired:
		return true
	default:
		return false
	}
}

// Invitation is an offer to join an organization, addressed to an email.
// Token is the bearer capability used in invitation links.
type Invitation struct {
	ID             string
	Token          string
	Email          string
	OrganizationID string
	Role           Role
	InvitedByID    string
	InvitedByEmail string
	Status         InvitationStatus
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOpen reports whether the invitation can still be responded to at now.
func (i Invitation) IsOpen(now time.Time) bool {
	return i.Status == InvitationPending && i.ExpiresAt.After(now)
}

// InviterLabel is how the invitation names whoever sent it.
func (i Invitation) InviterLabel() string {
	if i.InvitedByEmail != "" {
		return i.InvitedByEmail
	}
	return "A teammate"
}
