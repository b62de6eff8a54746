package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/pkg/httpx"
	"github.com/classdesk/classboard/pkg/slogx"
)

// UserHandler provisions accounts and lists students for the invite picker.
type UserHandler struct {
	Users *service.UserService
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"` // admin | student
}

// HandleCreate handles POST /api/users.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Users.CreateUser(r.Context(), actor, req.Username, req.Password, req.Email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			httpx.WriteError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidRole):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, err.Error())
		default:
			slogx.FromContext(r.Context()).Error("failed to create user", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "could not create user")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    newUserPayload(user),
	})
}

// HandleStudents handles GET /api/students.
func (h *UserHandler) HandleStudents(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}

	students, err := h.Users.Students(r.Context(), actor)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			httpx.WriteError(w, http.StatusForbidden, err.Error())
			return
		}
		slogx.FromContext(r.Context()).Error("failed to list students", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not list students")
		return
	}

	payload := make([]*userPayload, 0, len(students))
	for _, s := range students {
		payload = append(payload, newUserPayload(s))
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "students": payload})
}
