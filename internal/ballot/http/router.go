package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/pkg/httpx"
	"github.com/openballot/ballotd/pkg/jwtx"
	"github.com/openballot/ballotd/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.Signer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	AuthService         *service.AuthService
	OrganizationService *service.OrganizationService
	SessionService      *service.SessionService
	RosterService       *service.RosterService
	IssuanceService     *service.IssuanceService
	CastingService      *service.CastingService
	AuditService        *service.AuditService
}

func NewRouter(
	signer *jwtx.Signer,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOrganizations()
	r.registerSessions()
	r.registerRoster()
	r.registerVoting()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	orgLogin := &OrgLoginHandler{AuthService: r.AuthService, Signer: r.signer}
	voterLogin := &VoterLoginHandler{AuthService: r.AuthService, Signer: r.signer}

	// Login endpoints are brute-forceable, so both get the strict limit.
	r.Mux.Handle("POST /v1/auth/organization/login",
		httpx.Chain(orgLogin,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/voter/login",
		httpx.Chain(voterLogin,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerOrganizations() {
	h := &OrganizationsHandler{OrganizationService: r.OrganizationService}

	// Public signup endpoint.
	r.Mux.Handle("POST /v1/organizations",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	secured := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.signer),
			httpx.RequireRole(jwtx.RoleOrganization),
			httpx.RateLimitByCaller(limit),
		)
	}

	r.Mux.Handle("GET /v1/organizations", secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/organizations/me", secured(h.HandleGetMe, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/organizations/me", secured(h.HandleUpdateMe, httpx.ModerateLimit))
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{SessionService: r.SessionService}

	secured := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.signer),
			httpx.RequireRole(jwtx.RoleOrganization),
			httpx.RateLimitByCaller(limit),
		)
	}

	r.Mux.Handle("POST /v1/sessions", secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/sessions", secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/sessions/active", secured(h.HandleListActive, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/sessions/{id}", secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/sessions/{id}", secured(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/candidates/{id}", secured(h.HandleUpdateCandidate, httpx.ModerateLimit))

	// Candidate listing is shared: voters browse their own ballot with it.
	r.Mux.Handle("GET /v1/sessions/{id}/candidates",
		httpx.Chain(http.HandlerFunc(h.HandleListCandidates),
			httpx.AuthnMiddleware(r.signer),
			httpx.RequireRole(jwtx.RoleOrganization, jwtx.RoleVoter),
			httpx.RateLimitByCaller(httpx.LenientLimit),
		),
	)

	auditHandler := &AuditHandler{AuditService: r.AuditService}
	r.Mux.Handle("GET /v1/sessions/{id}/audit", secured(auditHandler.ServeHTTP, httpx.ModerateLimit))
}

func (r *Router) registerRoster() {
	h := &RosterHandler{RosterService: r.RosterService}

	secured := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.signer),
			httpx.RequireRole(jwtx.RoleOrganization),
			httpx.RateLimitByCaller(limit),
		)
	}

	r.Mux.Handle("POST /v1/sessions/{id}/voters", secured(h.HandleUpload, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/sessions/{id}/voters", secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/sessions/{id}/invites", secured(h.HandleSendInvites, httpx.ModerateLimit))
}

func (r *Router) registerVoting() {
	tokens := &TokensHandler{IssuanceService: r.IssuanceService}
	votes := &VotesHandler{CastingService: r.CastingService}

	voterOnly := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.signer),
			httpx.RequireRole(jwtx.RoleVoter),
			httpx.RateLimitByCaller(limit),
		)
	}

	// Issuance and casting flip irreversible flags; strict limits on both.
	r.Mux.Handle("POST /v1/tokens", voterOnly(tokens.HandleIssue, httpx.StrictLimit))
	r.Mux.Handle("POST /v1/tokens/verify", voterOnly(tokens.HandleVerify, httpx.StrictLimit))
	r.Mux.Handle("POST /v1/votes", voterOnly(votes.HandleCast, httpx.StrictLimit))

	// Tallies are organization reads.
	r.Mux.Handle("GET /v1/candidates/{id}/tally",
		httpx.Chain(http.HandlerFunc(votes.HandleTally),
			httpx.AuthnMiddleware(r.signer),
			httpx.RequireRole(jwtx.RoleOrganization),
			httpx.RateLimitByCaller(httpx.LenientLimit),
		),
	)
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
}
