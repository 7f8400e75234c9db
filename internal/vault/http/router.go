package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/internal/vault/telemetry"
	"github.com/aussiebroadwan/teamvault/pkg/httpx"
	"github.com/aussiebroadwan/teamvault/pkg/jwtx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"

	_ "github.com/aussiebroadwan/teamvault/api/vault" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.6 init -g router.go -d .,../../../pkg/vaultapi -o ../../../api/vault --outputTypes go

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *jwtx.SessionKeys
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *telemetry.Metrics

	store               store.Store
	AccountService      *service.AccountService
	OrganizationService *service.OrganizationService
	InvitationService   *service.InvitationService
	ShareService        *service.ShareService
	VaultService        *service.VaultService
}

func NewRouter(
	sessions *jwtx.SessionKeys,
	buildVersion string,
	st store.Store,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     sessions,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      metrics,
		logger:       logger,
	}

	// Metrics must stay last: it reads the pattern the mux matched.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.HTTPMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvitations()
	r.registerTeam()
	r.registerShares()
	r.registerEntries()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Team Vault API
//	@version		0.1.0
//	@description	Team password manager: vault entries, per-entry sharing and organization invitations.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/teamvault
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}". The pm_token cookie is accepted too.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured authenticates the session, rate limits per user and resolves the
// caller's current account before running h.
func (r *Router) secured(h actorHandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(withActor(r.AccountService, h),
		httpx.AuthnMiddleware(r.sessions),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AccountService:      r.AccountService,
		OrganizationService: r.OrganizationService,
		Sessions:            r.sessions,
	}

	// POST /register - strict rate limit by IP (account creation)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP + email to slow credential stuffing
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("GET /v1/auth/me", r.secured(h.HandleMe, httpx.LenientLimit))
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{InvitationService: r.InvitationService}

	r.Mux.Handle("POST /v1/invitations", r.secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/invitations", r.secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/invitations/{token}/resend", r.secured(h.HandleResend, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/invitations/{token}", r.secured(h.HandleRevoke, httpx.ModerateLimit))

	// The token is the credential for these two; limit by IP.
	r.Mux.Handle("GET /v1/invitations/{token}",
		httpx.Chain(http.HandlerFunc(h.HandlePreview),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/invitations/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleRespond),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTeam() {
	h := &TeamHandler{OrganizationService: r.OrganizationService}

	r.Mux.Handle("GET /v1/team/members", r.secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("DELETE /v1/team/members/{userId}", r.secured(h.HandleRemove, httpx.ModerateLimit))
}

func (r *Router) registerShares() {
	h := &SharesHandler{ShareService: r.ShareService}

	r.Mux.Handle("POST /v1/shares", r.secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/shares", r.secured(h.HandleListOutgoing, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/shares/incoming", r.secured(h.HandleListIncoming, httpx.LenientLimit))
	r.Mux.Handle("DELETE /v1/shares/{id}", r.secured(h.HandleRevoke, httpx.ModerateLimit))
}

func (r *Router) registerEntries() {
	h := &EntriesHandler{VaultService: r.VaultService}

	r.Mux.Handle("GET /v1/entries", r.secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/entries", r.secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/entries/{id}", r.secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/entries/{id}", r.secured(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/entries/{id}", r.secured(h.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.metrics != nil {
		r.Mux.Handle("GET /metrics",
			httpx.Chain(r.metrics.Handler(),
				httpx.RateLimitByIP(httpx.PublicLimit),
			),
		)
	}
}
