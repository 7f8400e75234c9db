package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

// writeError maps a service error onto a status code and error code.
// Anything unrecognised is logged and reported as a server error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *service.UserNotFoundError

	switch {
	case errors.As(err, &notFound):
		httpx.WriteJSON(w, http.StatusNotFound, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeUserNotFound,
			ErrorDescription: "Register with the invited email before accepting",
			Email:            notFound.Email,
		})
	case errors.Is(err, httpx.ErrBadJSON):
		writeBadRequest(w, "Invalid JSON body")
	case errors.Is(err, service.ErrInvalidRequest):
		writeBadRequest(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteJSON(w, http.StatusUnauthorized, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeInvalidCredentials,
			ErrorDescription: "Invalid email or password",
		})
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteJSON(w, http.StatusConflict, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeEmailTaken,
			ErrorDescription: "Email already in use",
		})
	case errors.Is(err, service.ErrNoOrganization):
		httpx.WriteJSON(w, http.StatusBadRequest, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeNoOrganization,
			ErrorDescription: "You are not a member of an organization",
		})
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteJSON(w, http.StatusForbidden, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeForbidden,
			ErrorDescription: "You do not have permission to do that",
		})
	case errors.Is(err, service.ErrAlreadyMember):
		httpx.WriteJSON(w, http.StatusConflict, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeAlreadyMember,
			ErrorDescription: "User is already a member of this organization",
		})
	case errors.Is(err, service.ErrDuplicatePending):
		httpx.WriteJSON(w, http.StatusConflict, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeDuplicatePending,
			ErrorDescription: "An invitation is already pending for this email",
		})
	case errors.Is(err, service.ErrSelfShare):
		httpx.WriteJSON(w, http.StatusBadRequest, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeSelfShare,
			ErrorDescription: "You cannot share an entry with yourself",
		})
	case errors.Is(err, service.ErrInvalidOrExpired):
		httpx.WriteJSON(w, http.StatusBadRequest, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeInvalidOrExpired,
			ErrorDescription: "Invitation is invalid or has expired",
		})
	case errors.Is(err, service.ErrRecipientNotRegistered):
		httpx.WriteJSON(w, http.StatusNotFound, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeRecipientNotRegistered,
			ErrorDescription: "Recipient must be a registered user",
		})
	case errors.Is(err, service.ErrEntryNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeEntryNotFound,
			ErrorDescription: "Entry not found",
		})
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeNotFound,
			ErrorDescription: "Not found",
		})
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		httpx.WriteJSON(w, http.StatusInternalServerError, vaultapi.ErrorResponse{
			Error:            vaultapi.ErrorCodeServerError,
			ErrorDescription: "Internal server error",
		})
	}
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteJSON(w, http.StatusBadRequest, vaultapi.ErrorResponse{
		Error:            vaultapi.ErrorCodeInvalidRequest,
		ErrorDescription: desc,
	})
}
