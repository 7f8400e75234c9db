package http

import (
	"net/http"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

type SharesHandler struct {
	ShareService *service.ShareService
}

// HandleCreate godoc
//
//	@Summary		Share entry
//	@Description	Grants a registered user read access to one of the caller's entries. Sharing again reactivates the existing share.
//	@Tags			Shares
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultapi.CreateShareRequest	true	"Entry and recipient"
//	@Success		200		{object}	vaultapi.ShareInfo
//	@Failure		400		{object}	vaultapi.ErrorResponse	"invalid_request, self_share"
//	@Failure		404		{object}	vaultapi.ErrorResponse	"entry_not_found, recipient_not_registered"
//	@Security		BearerAuth
//	@Router			/v1/shares [post].
func (h *SharesHandler) HandleCreate(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req vaultapi.CreateShareRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.EntryID == "" || req.ToEmail == "" {
		writeBadRequest(w, "entry_id and to_email are required")
		return
	}

	share, err := h.ShareService.CreateOrUpdate(r.Context(), actor, req.EntryID, req.ToEmail)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shareInfo(share))
}

// HandleListOutgoing godoc
//
//	@Summary		List outgoing shares
//	@Description	Active shares granted by the caller, newest first, optionally for one entry.
//	@Tags			Shares
//	@Produce		json
//	@Param			entry_id	query		string	false	"Entry ID"
//	@Success		200			{object}	vaultapi.ListSharesResponse
//	@Failure		404			{object}	vaultapi.ErrorResponse	"entry_not_found"
//	@Security		BearerAuth
//	@Router			/v1/shares [get].
func (h *SharesHandler) HandleListOutgoing(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	shares, err := h.ShareService.ListOutgoing(r.Context(), actor, r.URL.Query().Get("entry_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shareList(shares))
}

// HandleListIncoming godoc
//
//	@Summary		List incoming shares
//	@Description	Active shares granted to the caller, newest first.
//	@Tags			Shares
//	@Produce		json
//	@Success		200	{object}	vaultapi.ListSharesResponse
//	@Security		BearerAuth
//	@Router			/v1/shares/incoming [get].
func (h *SharesHandler) HandleListIncoming(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	shares, err := h.ShareService.ListIncoming(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shareList(shares))
}

// HandleRevoke godoc
//
//	@Summary		Revoke share
//	@Description	Turns off a share the caller granted. The share record is kept.
//	@Tags			Shares
//	@Param			id	path	string	true	"Share ID"
//	@Success		204
//	@Failure		404	{object}	vaultapi.ErrorResponse	"not_found"
//	@Security		BearerAuth
//	@Router			/v1/shares/{id} [delete].
func (h *SharesHandler) HandleRevoke(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if err := h.ShareService.Revoke(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
