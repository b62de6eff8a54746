package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/pkg/httpx"
	"github.com/classdesk/classboard/pkg/slogx"
)

// AuthHandler implements the two-step login flow plus logout and identity.
type AuthHandler struct {
	Sessions     *service.SessionService
	Auth         *service.AuthService
	CookieSecure bool
}

type loginRequest struct {
	Step     string `json:"step"` // "password" or "totp"
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Requires2FA bool         `json:"requires_2fa,omitempty"`
	Username    string       `json:"username,omitempty"`
	User        *userPayload `json:"user,omitempty"`
}

type userPayload struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Privileged bool   `json:"privileged"`
}

func newUserPayload(u domain.User) *userPayload {
	return &userPayload{ID: u.ID, Username: u.Username, Email: u.Email, Privileged: u.Privileged}
}

// HandleLogin handles POST /api/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	session, ok := sessionFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "no session")
		return
	}

	// A logged-in session gets a no-op response: credentials and codes on
	// the request are never evaluated again.
	if session.Authenticated() {
		user, err := h.Sessions.User(ctx, session)
		if err != nil {
			log.Error("failed to load session user", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "login failed")
			return
		}
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			Success: true,
			Message: "already authenticated",
			User:    newUserPayload(user),
		})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		result service.LoginResult
		err    error
	)
	switch req.Step {
	case "", "password":
		result, err = h.Auth.SubmitCredentials(ctx, session, req.Username, req.Password)
	case "totp":
		result, err = h.Auth.SubmitCode(ctx, session, req.Username, req.Code)
	case "cancel":
		if err := h.Auth.CancelChallenge(ctx, session.ID); err != nil {
			log.Error("failed to cancel challenge", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "login failed")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, loginResponse{Success: true})
		return
	default:
		httpx.WriteError(w, http.StatusBadRequest, "unknown login step")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidCode):
			httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrChallengeExpired):
			httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	httpx.NoCache(w)
	if result.RequiresCode {
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			Success:     true,
			Requires2FA: true,
			Username:    result.Username,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		User:    newUserPayload(*result.User),
	})
}

// HandleLogout handles POST /api/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if session, ok := sessionFromContext(ctx); ok {
		if err := h.Sessions.Destroy(ctx, session.ID); err != nil {
			slogx.FromContext(ctx).Error("logout failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}

	clearSessionCookie(w, h.CookieSecure)
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleCurrentUser handles GET /api/user.
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    newUserPayload(user),
	})
}
