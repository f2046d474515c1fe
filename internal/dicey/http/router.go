package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/httpx"
	"github.com/diceydecisions/dicey/pkg/jwtx"
	"github.com/diceydecisions/dicey/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AccountService *service.AccountService
	RoomService    *service.RoomService
	OptionService  *service.OptionService
	VoteService    *service.VoteService

	RefreshTTL    time.Duration
	CronSecret    string
	SecureCookies bool
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
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
	r.registerRooms()
	r.registerOptions()
	r.registerVotes()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Account:    r.AccountService,
		RefreshTTL: r.RefreshTTL,
		Secure:     r.SecureCookies,
	}

	// Credential-bearing endpoints get the strict limit to slow down brute
	// force and enumeration.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/resend-verification",
		httpx.Chain(http.HandlerFunc(h.HandleResendVerification),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerRooms() {
	h := &RoomsHandler{
		Rooms:      r.RoomService,
		Votes:      r.VoteService,
		CronSecret: r.CronSecret,
	}

	authed := func(hf http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(hf,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /v1/rooms", authed(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/rooms", authed(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/rooms/past", authed(h.HandleListPast, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/rooms/join", authed(h.HandleJoin, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/rooms/{id}", authed(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/rooms/{id}", authed(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/rooms/{id}", authed(h.HandleDelete, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/rooms/{id}/finalize", authed(h.HandleFinalize, httpx.ModerateLimit))

	// The sweep authenticates with the cron secret instead of a user token.
	r.Mux.Handle("POST /v1/rooms/sweep",
		httpx.Chain(http.HandlerFunc(h.HandleSweep),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOptions() {
	h := &OptionsHandler{Options: r.OptionService}

	authed := func(hf http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(hf,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /v1/options", authed(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/rooms/{id}/options", authed(h.HandleListByRoom, httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/options/{id}", authed(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/options/{id}", authed(h.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerVotes() {
	h := &VotesHandler{Votes: r.VoteService}

	authed := func(hf http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(hf,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /v1/votes", authed(h.HandleCast, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/votes/count/{roomId}", authed(h.HandleCounts, httpx.LenientLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
