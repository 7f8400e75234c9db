// Package policy holds the authorization rules for organization management.
// Every function is pure and total over the closed role set; unknown roles
// are denied.
package policy

import (
	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

// Subject identifies one side of a membership decision.
type Subject struct {
	UserID string
	Role   domain.Role
}

// CanManageInvites reports whether role may create, resend or revoke
// invitations.
func CanManageInvites(role domain.Role) bool {
	switch role {
	case domain.RoleOwner, domain.RoleAdmin:
		return true
	default:
		return false
	}
}

// CanAssignRole reports whether actor may grant target through an
// invitation. Owner is never assignable.
func CanAssignRole(actor, target domain.Role) bool {
	switch actor {
	case domain.RoleOwner:
		return target == domain.RoleAdmin || target == domain.RoleMember
	case domain.RoleAdmin:
		return target == domain.RoleMember
	default:
		return false
	}
}

// CanRemoveMember reports whether actor may remove target from their shared
// organization. Nobody may remove themselves.
func CanRemoveMember(actor, target Subject) bool {
	if actor.UserID == "" || actor.UserID == target.UserID {
		return false
	}

	switch actor.Role {
	case domain.RoleOwner:
		return target.Role == domain.RoleAdmin || target.Role == domain.RoleMember
	case domain.RoleAdmin:
		return target.Role == domain.RoleMember
	default:
		return false
	}
}

// CanRevokeOrResendInvite reports whether an actor in actorOrgID may act on
// an invitation issued by invitationOrgID.
func CanRevokeOrResendInvite(actorOrgID, invitationOrgID string) bool {
	return actorOrgID != "" && actorOrgID == invitationOrgID
}

// CanViewOrganization reports whether an actor in actorOrgID may read the
// members and pending invitations of orgID.
func CanViewOrganization(actorOrgID, orgID string) bool {
	return actorOrgID != "" && actorOrgID == orgID
}
