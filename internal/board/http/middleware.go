package http

import (
	"context"
	"net/http"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/pkg/httpx"
)

// SessionCookieName is the browser cookie holding the opaque session token.
const SessionCookieName = "classboard_session"

type ctxKey string

const (
	ctxKeySession ctxKey = "session"
	ctxKeyUser    ctxKey = "user"
)

// session returns the middleware that attaches a server-side session to
// every request, creating one (and setting the cookie) on first contact.
// When the session is authenticated the user is loaded into context too.
func (r *Router) session() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			session, ok := r.resolveSession(req)
			if !ok {
				fresh, token, err := r.Sessions.Begin(ctx)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "could not start session")
					return
				}
				setSessionCookie(w, token, r.CookieSecure)
				session = fresh
			}

			ctx = context.WithValue(ctx, ctxKeySession, session)

			if session.Authenticated() {
				if user, err := r.Sessions.User(ctx, session); err == nil {
					ctx = context.WithValue(ctx, ctxKeyUser, user)
					ctx = context.WithValue(ctx, httpx.CtxKeyUserID, user.ID)
				}
			}

			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func (r *Router) resolveSession(req *http.Request) (domain.Session, bool) {
	cookie, err := req.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return domain.Session{}, false
	}

	session, err := r.Sessions.Resolve(req.Context(), cookie.Value)
	if err != nil {
		return domain.Session{}, false
	}
	return session, true
}

func setSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(domain.Session)
	return s, ok
}

func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(domain.User)
	return u, ok
}

// requireUser fetches the authenticated user or writes a 401.
func requireUser(w http.ResponseWriter, req *http.Request) (domain.User, bool) {
	user, ok := userFromContext(req.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return domain.User{}, false
	}
	return user, true
}
