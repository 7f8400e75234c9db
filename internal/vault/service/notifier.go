package service

import (
	"context"
	"time"
)

// InvitationNotice is everything a notifier needs to tell an invitee about
// an invitation.
type InvitationNotice struct {
	ToEmail          string
	InviterLabel     string
	OrganizationID   string
	OrganizationName string
	Role             string
	Token            string
	ExpiresAt        time.Time
}

// Notifier delivers invitation notices. Delivery is best effort: the
// invitation engine logs and drops errors.
type Notifier interface {
	SendInvitation(ctx context.Context, n InvitationNotice) error
}

// NopNotifier drops every notice.
type NopNotifier struct{}

func (NopNotifier) SendInvitation(context.Context, InvitationNotice) error { return nil }
