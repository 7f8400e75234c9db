package http

import (
	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

func userInfo(u domain.User) vaultapi.UserInfo {
	return vaultapi.UserInfo{
		ID:             u.ID,
		Email:          u.Email,
		OrganizationID: u.OrganizationID,
		Role:           u.Role.String(),
		CreatedAt:      u.CreatedAt,
	}
}

func organizationInfo(o domain.Organization) *vaultapi.OrganizationInfo {
	return &vaultapi.OrganizationInfo{ID: o.ID, Name: o.Name, OwnerID: o.OwnerID}
}

func invitationInfo(inv domain.Invitation) vaultapi.InvitationInfo {
	return vaultapi.InvitationInfo{
		ID:             inv.ID,
		Token:          inv.Token,
		Email:          inv.Email,
		OrganizationID: inv.OrganizationID,
		Role:           inv.Role.String(),
		Status:         string(inv.Status),
		InvitedByEmail: inv.InvitedByEmail,
		ExpiresAt:      inv.ExpiresAt,
		CreatedAt:      inv.CreatedAt,
	}
}

func shareInfo(s domain.Share) vaultapi.ShareInfo {
	perms := make([]string, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		perms = append(perms, string(p))
	}
	return vaultapi.ShareInfo{
		ID:          s.ID,
		EntryID:     s.EntryID,
		FromUserID:  s.FromUserID,
		FromEmail:   s.FromEmail,
		ToUserID:    s.ToUserID,
		ToEmail:     s.ToEmail,
		Permissions: perms,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func shareList(shares []domain.Share) vaultapi.ListSharesResponse {
	out := vaultapi.ListSharesResponse{Shares: make([]vaultapi.ShareInfo, 0, len(shares))}
	for _, s := range shares {
		out.Shares = append(out.Shares, shareInfo(s))
	}
	return out
}

func entryInfo(v service.EntryView) vaultapi.EntryInfo {
	info := vaultapi.EntryInfo{
		ID:        v.Entry.ID,
		OwnerID:   v.Entry.OwnerID,
		Name:      v.Entry.Name,
		Username:  v.Entry.Username,
		Password:  v.Entry.Password,
		URL:       v.Entry.URL,
		Notes:     v.Entry.Notes,
		TOTPCode:  v.TOTPCode,
		Shared:    v.Shared,
		CreatedAt: v.Entry.CreatedAt,
		UpdatedAt: v.Entry.UpdatedAt,
	}
	if v.Shared {
		info.SharedBy = v.Share.FromEmail
		info.ShareID = v.Share.ID
	}
	return info
}

func entryInput(req vaultapi.EntryRequest) service.EntryInput {
	return service.EntryInput{
		Name:       req.Name,
		Username:   req.Username,
		Password:   req.Password,
		URL:        req.URL,
		Notes:      req.Notes,
		TOTPSecret: req.TOTPSecret,
	}
}
