package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/pkg/httpx"
	"github.com/classdesk/classboard/pkg/slogx"
)

// InvitationHandler serves the shared board invitation flow.
type InvitationHandler struct {
	Invitations *service.InvitationService
}

func writeInvitationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvitationNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyInvited):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		slogx.FromContext(r.Context()).Error("invitation operation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "operation failed")
	}
}

type inviteRequest struct {
	Username string `json:"username"`
}

// HandleInvite handles POST /api/invitations.
func (h *InvitationHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		httpx.WriteError(w, http.StatusBadRequest, "username is required")
		return
	}

	inv, err := h.Invitations.Invite(r.Context(), user, req.Username)
	if err != nil {
		writeInvitationError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "invitation": inv})
}

// HandleAccept handles POST /api/invitations/{id}/accept.
func (h *InvitationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	inv, err := h.Invitations.Accept(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeInvitationError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "invitation": inv})
}

// HandleReject handles POST /api/invitations/{id}/reject.
func (h *InvitationHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.Invitations.Reject(r.Context(), user, r.PathValue("id")); err != nil {
		writeInvitationError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandlePending handles GET /api/invitations.
func (h *InvitationHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	invs, err := h.Invitations.Pending(r.Context(), user)
	if err != nil {
		writeInvitationError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "invitations": invs})
}
