package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/pkg/httpx"
	"github.com/classdesk/classboard/pkg/slogx"
)

// TwoFactorHandler serves the TOTP setup page data and its actions.
type TwoFactorHandler struct {
	TwoFactor *service.TwoFactorService
}

type twoFactorResponse struct {
	Success bool   `json:"success"`
	Enabled bool   `json:"enabled"`
	Secret  string `json:"secret"`
	URI     string `json:"uri"`
	QRCode  string `json:"qr_code"` // base64 PNG data URI
}

func writeSetup(w http.ResponseWriter, info service.SetupInfo) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, twoFactorResponse{
		Success: true,
		Enabled: info.Enabled,
		Secret:  info.Secret,
		URI:     info.URI,
		QRCode:  info.QRDataURI,
	})
}

// HandleGet handles GET /api/2fa/setup: first visit enrolls a disabled
// credential, later visits return the same secret.
func (h *TwoFactorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	info, err := h.TwoFactor.Setup(ctx, user)
	if err != nil {
		slogx.FromContext(ctx).Error("2fa setup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "setup failed")
		return
	}

	writeSetup(w, info)
}

type twoFactorAction struct {
	Action string `json:"action"` // enable | disable | regenerate
	Code   string `json:"code"`
}

// HandlePost handles POST /api/2fa/setup.
func (h *TwoFactorHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req twoFactorAction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		info service.SetupInfo
		err  error
	)
	switch req.Action {
	case "enable":
		info, err = h.TwoFactor.Enable(ctx, user, req.Code)
	case "disable":
		info, err = h.TwoFactor.Disable(ctx, user)
	case "regenerate":
		info, err = h.TwoFactor.Regenerate(ctx, user)
	default:
		httpx.WriteError(w, http.StatusBadRequest, "unknown action")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrChallengeExpired):
			httpx.WriteError(w, http.StatusConflict, "no enrolment to act on")
		default:
			log.Error("2fa action failed", "action", req.Action, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "action failed")
		}
		return
	}

	writeSetup(w, info)
}
