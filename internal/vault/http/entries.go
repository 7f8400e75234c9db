package http

import (
	"net/http"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

type EntriesHandler struct {
	VaultService *service.VaultService
}

// HandleList godoc
//
//	@Summary		List entries
//	@Description	Entries the caller owns plus those shared with them, most recently updated first.
//	@Tags			Entries
//	@Produce		json
//	@Param			scope	query		string	false	"all (default), owned or shared"
//	@Success		200		{object}	vaultapi.ListEntriesResponse
//	@Failure		400		{object}	vaultapi.ErrorResponse	"invalid_request"
//	@Security		BearerAuth
//	@Router			/v1/entries [get].
func (h *EntriesHandler) HandleList(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	scope, err := service.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := h.VaultService.List(r.Context(), actor, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := vaultapi.ListEntriesResponse{Entries: make([]vaultapi.EntryInfo, 0, len(views))}
	for _, v := range views {
		resp.Entries = append(resp.Entries, entryInfo(v))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreate godoc
//
//	@Summary		Create entry
//	@Tags			Entries
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultapi.EntryRequest	true	"Entry"
//	@Success		201		{object}	vaultapi.EntryInfo
//	@Failure		400		{object}	vaultapi.ErrorResponse	"invalid_request"
//	@Security		BearerAuth
//	@Router			/v1/entries [post].
func (h *EntriesHandler) HandleCreate(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req vaultapi.EntryRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	v, err := h.VaultService.Create(r.Context(), actor, entryInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, entryInfo(v))
}

// HandleGet godoc
//
//	@Summary		Get entry
//	@Description	Returns an owned or shared entry with its secrets and current TOTP code.
//	@Tags			Entries
//	@Produce		json
//	@Param			id	path		string	true	"Entry ID"
//	@Success		200	{object}	vaultapi.EntryInfo
//	@Failure		404	{object}	vaultapi.ErrorResponse	"entry_not_found"
//	@Security		BearerAuth
//	@Router			/v1/entries/{id} [get].
func (h *EntriesHandler) HandleGet(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	v, err := h.VaultService.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entryInfo(v))
}

// HandleUpdate godoc
//
//	@Summary		Update entry
//	@Description	Replaces an entry the caller owns. Shared entries are read-only.
//	@Tags			Entries
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Entry ID"
//	@Param			request	body		vaultapi.EntryRequest	true	"Entry"
//	@Success		200		{object}	vaultapi.EntryInfo
//	@Failure		403		{object}	vaultapi.ErrorResponse	"forbidden"
//	@Failure		404		{object}	vaultapi.ErrorResponse	"entry_not_found"
//	@Security		BearerAuth
//	@Router			/v1/entries/{id} [put].
func (h *EntriesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	var req vaultapi.EntryRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	v, err := h.VaultService.Update(r.Context(), actor, r.PathValue("id"), entryInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entryInfo(v))
}

// HandleDelete godoc
//
//	@Summary		Delete entry
//	@Description	Deletes an owned entry and revokes all of its shares.
//	@Tags			Entries
//	@Param			id	path	string	true	"Entry ID"
//	@Success		204
//	@Failure		403	{object}	vaultapi.ErrorResponse	"forbidden"
//	@Failure		404	{object}	vaultapi.ErrorResponse	"entry_not_found"
//	@Security		BearerAuth
//	@Router			/v1/entries/{id} [delete].
func (h *EntriesHandler) HandleDelete(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	if err := h.VaultService.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
