package http

import (
	"net/http"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

type TeamHandler struct {
	OrganizationService *service.OrganizationService
}

// HandleList godoc
//
//	@Summary		List members
//	@Description	Members of an organization the caller belongs to: owners, then admins, then members.
//	@Tags			Team
//	@Produce		json
//	@Param			organization_id	query		string	false	"Organization ID"
//	@Success		200				{object}	vaultapi.ListMembersResponse
//	@Failure		403				{object}	vaultapi.ErrorResponse	"forbidden"
//	@Security		BearerAuth
//	@Router			/v1/team/members [get].
func (h *TeamHandler) HandleList(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	orgID := r.URL.Query().Get("organization_id")
	if orgID == "" {
		orgID = actor.OrganizationID
	}
	if orgID == "" {
		writeError(w, r, service.ErrNoOrganization)
		return
	}

	members, err := h.OrganizationService.ListMembers(r.Context(), actor, orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := vaultapi.ListMembersResponse{Members: make([]vaultapi.MemberInfo, 0, len(members))}
	for _, m := range members {
		resp.Members = append(resp.Members, vaultapi.MemberInfo{
			UserID:    m.ID,
			Email:     m.Email,
			Role:      m.Role.String(),
			CreatedAt: m.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRemove godoc
//
//	@Summary		Remove member
//	@Description	Removes a user from the caller's organization. Nobody may remove themselves or an owner.
//	@Tags			Team
//	@Param			userId	path	string	true	"User ID"
//	@Success		204
//	@Failure		403	{object}	vaultapi.ErrorResponse	"forbidden"
//	@Failure		404	{object}	vaultapi.ErrorResponse	"not_found"
//	@Security		BearerAuth
//	@Router			/v1/team/members/{userId} [delete].
func (h *TeamHandler) HandleRemove(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if err := h.OrganizationService.RemoveMember(r.Context(), actor, r.PathValue("userId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
