package http

import (
	"net/http"

	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/httpx"
)

// SystemHandler serves liveness and readiness probes.
type SystemHandler struct {
	Store store.Store
}

// HandleLivez handles GET /livez.
func (h *SystemHandler) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadyz handles GET /readyz. Ready means the database answers.
func (h *SystemHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
