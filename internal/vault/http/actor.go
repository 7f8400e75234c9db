package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

type actorHandlerFunc func(w http.ResponseWriter, r *http.Request, actor domain.Actor)

// withActor loads the authenticated user's current organization and role.
// A session for an account that no longer exists is treated as unauthenticated.
func withActor(accounts *service.AccountService, next actorHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := httpx.UserIDFromContext(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		actor, err := accounts.ResolveActor(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				writeUnauthorized(w)
				return
			}
			writeError(w, r, err)
			return
		}

		next(w, r, actor)
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusUnauthorized, vaultapi.ErrorResponse{
		Error:            vaultapi.ErrorCodeUnauthorized,
		ErrorDescription: "Authentication required",
	})
}
