package http

import (
	"net/http"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/jwtx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

type AuthHandler struct {
	AccountService      *service.AccountService
	OrganizationService *service.OrganizationService
	Sessions            *jwtx.SessionKeys
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Create an account together with a personal workspace owned by it, and start a session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultapi.RegisterRequest	true	"Credentials"
//	@Success		201		{object}	vaultapi.SessionResponse
//	@Failure		400		{object}	vaultapi.ErrorResponse	"invalid_request"
//	@Failure		409		{object}	vaultapi.ErrorResponse	"email_taken"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req vaultapi.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "Email and password required")
		return
	}

	user, _, err := h.AccountService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusCreated, user)
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchange email and password for a session token. The token is also set as the pm_token cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		vaultapi.LoginRequest	true	"Credentials"
//	@Success		200		{object}	vaultapi.SessionResponse
//	@Failure		401		{object}	vaultapi.ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	vaultapi.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req vaultapi.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "Email and password required")
		return
	}

	user, err := h.AccountService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user domain.User) {
	token, claims, err := h.Sessions.Issue(user.ID, user.Email)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to issue session", "error", err)
		writeError(w, r, err)
		return
	}

	httpx.SetSessionCookie(w, r, token, int(h.Sessions.TTL().Seconds()))
	httpx.WriteJSON(w, status, vaultapi.SessionResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      userInfo(user),
	})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Returns the caller and the organization they currently belong to, if any.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	vaultapi.MeResponse
//	@Failure		401	{object}	vaultapi.ErrorResponse	"unauthorized"
//	@Security		BearerAuth
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
	ctx := r.Context()

	user, err := h.AccountService.GetUser(ctx, actor.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := vaultapi.MeResponse{User: userInfo(user)}
	if user.HasOrganization() {
		org, err := h.OrganizationService.Get(ctx, user.OrganizationID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Organization = organizationInfo(org)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
