// Package http wires the REST and websocket surface. Handlers are thin:
// they decode, call a service, and map sentinel errors to JSON responses.
package http

import (
	"log/slog"
	"net/http"

	"github.com/classdesk/classboard/internal/board/realtime"
	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/httpx"
	"github.com/classdesk/classboard/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	logger *slog.Logger
	store  store.Store

	// Hub is nil when the real-time transport is not provisioned; the
	// gatekeeper then rejects connections with a service-unavailable code.
	Hub *realtime.Hub

	Sessions    *service.SessionService
	Auth        *service.AuthService
	TwoFactor   *service.TwoFactorService
	Board       *service.BoardService
	Feed        *service.FeedService
	Invitations *service.InvitationService
	Users       *service.UserService

	// CookieSecure marks the session cookie Secure; off for local dev.
	CookieSecure bool

	// AllowedOrigin restricts websocket upgrades; empty allows any origin.
	AllowedOrigin string
}

func NewRouter(st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:    http.NewServeMux(),
		logger: logger,
		store:  st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTwoFactor()
	r.registerBoard()
	r.registerFeed()
	r.registerInvitations()
	r.registerUsers()
	r.registerRealtime()
	r.registerSystem()
}

// ServeHTTP applies the global middleware chain around the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Sessions: r.Sessions, Auth: r.Auth, CookieSecure: r.CookieSecure}

	// Strict limit on login: this is the brute-force surface.
	r.Mux.Handle("POST /api/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.session(),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.session(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/user",
		httpx.Chain(http.HandlerFunc(h.HandleCurrentUser),
			r.session(),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{TwoFactor: r.TwoFactor}

	r.Mux.Handle("GET /api/2fa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	// POSTs carry codes: strict, keyed by user rather than IP so a shared
	// classroom network is not collectively locked out.
	r.Mux.Handle("POST /api/2fa/setup",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			r.session(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerBoard() {
	h := &BoardHandler{Board: r.Board}

	read := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.session(), httpx.RateLimitByUser(httpx.LenientLimit))
	}
	write := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.session(), httpx.RateLimitByUser(httpx.ModerateLimit))
	}

	r.Mux.Handle("GET /api/board", read(h.HandleBoard))

	r.Mux.Handle("POST /api/lists", write(h.HandleCreateList))
	r.Mux.Handle("PATCH /api/lists/{id}/color", write(h.HandleChangeListColor))
	r.Mux.Handle("DELETE /api/lists/{id}", write(h.HandleDeleteList))

	r.Mux.Handle("POST /api/tasks", write(h.HandleCreateTask))
	r.Mux.Handle("PATCH /api/tasks/{id}", write(h.HandleUpdateTask))
	r.Mux.Handle("POST /api/tasks/{id}/move", write(h.HandleMoveTask))
	r.Mux.Handle("DELETE /api/tasks/{id}", write(h.HandleDeleteTask))

	r.Mux.Handle("POST /api/tasks/{id}/subtasks", write(h.HandleCreateSubtask))
	r.Mux.Handle("PATCH /api/subtasks/{id}", write(h.HandleUpdateSubtask))
	r.Mux.Handle("POST /api/subtasks/{id}/toggle", write(h.HandleToggleSubtask))
	r.Mux.Handle("DELETE /api/subtasks/{id}", write(h.HandleDeleteSubtask))

	r.Mux.Handle("POST /api/attachments", write(h.HandleAddAttachment))
	r.Mux.Handle("DELETE /api/attachments/{id}", write(h.HandleDeleteAttachment))
}

func (r *Router) registerFeed() {
	h := &FeedHandler{Feed: r.Feed}

	r.Mux.Handle("GET /api/activities",
		httpx.Chain(http.HandlerFunc(h.HandleRecent),
			r.session(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/activities/{id}/comments",
		httpx.Chain(http.HandlerFunc(h.HandleComment),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{Invitations: r.Invitations}

	r.Mux.Handle("GET /api/invitations",
		httpx.Chain(http.HandlerFunc(h.HandlePending),
			r.session(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/invitations",
		httpx.Chain(http.HandlerFunc(h.HandleInvite),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/invitations/{id}/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/invitations/{id}/reject",
		httpx.Chain(http.HandlerFunc(h.HandleReject),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserHandler{Users: r.Users}

	r.Mux.Handle("POST /api/users",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/students",
		httpx.Chain(http.HandlerFunc(h.HandleStudents),
			r.session(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerRealtime() {
	h := &SocketHandler{Hub: r.Hub, AllowedOrigin: r.AllowedOrigin, Logger: r.logger}

	r.Mux.Handle("GET /ws/activities",
		httpx.Chain(http.HandlerFunc(h.HandleConnect),
			r.session(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	h := &SystemHandler{Store: r.store}

	r.Mux.Handle("GET /livez", http.HandlerFunc(h.HandleLivez))
	r.Mux.Handle("GET /readyz", http.HandlerFunc(h.HandleReadyz))
}
