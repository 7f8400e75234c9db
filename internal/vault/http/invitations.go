package http

import (
	"net/http"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

type InvitationsHandler struct {
	InvitationService *service.InvitationService
}

// HandleCreate godoc
//
//	@Summary		Invite to organization
//	@Description	Invite an email address to the caller's organization as admin or member. Owners may invite admins; admins may invite members.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultapi.CreateInvitationRequest	true	"Invitee and role"
//	@Success		201		{object}	vaultapi.InvitationInfo
//	@Failure		400		{object}	vaultapi.ErrorResponse	"invalid_request, no_organization"
//	@Failure		403		{object}	vaultapi.ErrorResponse	"forbidden"
//	@Failure		409		{object}	vaultapi.ErrorResponse	"already_member, duplicate_pending"
//	@Security		BearerAuth
//	@Router			/v1/invitations [post].
func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req vaultapi.CreateInvitationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Role == "" {
		writeBadRequest(w, "Email and role are required")
		return
	}

	inv, err := h.InvitationService.Create(r.Context(), actor, req.Email, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, invitationInfo(inv))
}

// HandleList godoc
//
//	@Summary		List pending invitations
//	@Description	Open invitations of an organization, newest first. Defaults to the caller's organization.
//	@Tags			Invitations
//	@Produce		json
//	@Param			organization_id	query		string	false	"Organization ID"
//	@Success		200				{object}	vaultapi.ListInvitationsResponse
//	@Failure		403				{object}	vaultapi.ErrorResponse	"forbidden"
//	@Security		BearerAuth
//	@Router			/v1/invitations [get].
func (h *InvitationsHandler) HandleList(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	orgID := r.URL.Query().Get("organization_id")
	if orgID == "" {
		orgID = actor.OrganizationID
	}
	if orgID == "" {
		writeError(w, r, service.ErrNoOrganization)
		return
	}

	invs, err := h.InvitationService.ListPending(r.Context(), actor, orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := vaultapi.ListInvitationsResponse{Invitations: make([]vaultapi.InvitationInfo, 0, len(invs))}
	for _, inv := range invs {
		resp.Invitations = append(resp.Invitations, invitationInfo(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandlePreview godoc
//
//	@Summary		Preview invitation
//	@Description	Shows the holder of an invitation link what they were invited to. No session required.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	path		string	true	"Invitation token"
//	@Success		200		{object}	vaultapi.InvitationPreview
//	@Failure		400		{object}	vaultapi.ErrorResponse	"invalid_or_expired"
//	@Router			/v1/invitations/{token} [get].
func (h *InvitationsHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := h.InvitationService.Preview(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, vaultapi.InvitationPreview{
		Email:            p.Invitation.Email,
		Role:             p.Invitation.Role.String(),
		OrganizationID:   p.Invitation.OrganizationID,
		OrganizationName: p.OrganizationName,
		InviterLabel:     p.Invitation.InviterLabel(),
		ExpiresAt:        p.Invitation.ExpiresAt,
	})
}

// HandleRespond godoc
//
//	@Summary		Accept or decline invitation
//	@Description	Answers an open invitation. Accepting requires an account registered with the invited email and
//	@Description	moves it into the organization, leaving any previous one. No session required.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			token	path		string								true	"Invitation token"
//	@Param			request	body		vaultapi.RespondInvitationRequest	true	"Answer"
//	@Success		200		{object}	vaultapi.RespondInvitationResponse
//	@Failure		400		{object}	vaultapi.ErrorResponse	"invalid_or_expired"
//	@Failure		404		{object}	vaultapi.ErrorResponse	"user_not_found (email set)"
//	@Failure		409		{object}	vaultapi.ErrorResponse	"already_member"
//	@Router			/v1/invitations/{token} [post].
func (h *InvitationsHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	var req vaultapi.RespondInvitationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	res, err := h.InvitationService.Respond(r.Context(), r.PathValue("token"), req.Accept)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := vaultapi.RespondInvitationResponse{
		Status:                 string(res.Invitation.Status),
		OrganizationID:         res.Invitation.OrganizationID,
		Switched:               res.Switched,
		PreviousOrganizationID: res.PreviousOrganizationID,
	}
	if res.Accepted {
		resp.Role = res.User.Role.String()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleResend godoc
//
//	@Summary		Resend invitation
//	@Description	Extends a pending invitation to a full week from now and notifies the invitee again.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	path		string	true	"Invitation token"
//	@Success		200		{object}	vaultapi.InvitationInfo
//	@Failure		403		{object}	vaultapi.ErrorResponse	"forbidden"
//	@Failure		404		{object}	vaultapi.ErrorResponse	"not_found"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{token}/resend [post].
func (h *InvitationsHandler) HandleResend(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	inv, err := h.InvitationService.Resend(r.Context(), actor, r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, invitationInfo(inv))
}

// HandleRevoke godoc
//
//	@Summary		Revoke invitation
//	@Description	Deletes an invitation of the caller's organization.
//	@Tags			Invitations
//	@Param			token	path	string	true	"Invitation token"
//	@Success		204
//	@Failure		403	{object}	vaultapi.ErrorResponse	"forbidden"
//	@Failure		404	{object}	vaultapi.ErrorResponse	"not_found"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{token} [delete].
func (h *InvitationsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if err := h.InvitationService.Revoke(r.Context(), actor, r.PathValue("token")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
