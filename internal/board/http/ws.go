package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/classdesk/classboard/internal/board/realtime"
)

// Close codes for rejected feed connections. Distinct so clients can branch
// on re-login versus retry-later.
const (
	CloseUnauthenticated = 4001
	CloseUnavailable     = 4003
)

// SocketHandler is the gatekeeper for the live activity feed. A connection
// is admitted only when the session carries an authenticated user, joins
// the activities group for its lifetime, and always leaves on termination.
type SocketHandler struct {
	Hub           *realtime.Hub
	AllowedOrigin string
	Logger        *slog.Logger
}

// HandleConnect handles GET /ws/activities.
func (h *SocketHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	user, ok := userFromContext(r.Context())
	if !ok {
		h.reject(conn, CloseUnauthenticated, "authentication required")
		return
	}

	if h.Hub == nil {
		h.reject(conn, CloseUnavailable, "live feed unavailable")
		return
	}

	client := realtime.NewClient(conn)
	h.Hub.Join(realtime.GroupActivities, client)
	h.Logger.Info("feed connection opened", slog.String("user", user.Username))

	// Leave runs no matter how the connection dies.
	defer func() {
		h.Hub.Leave(realtime.GroupActivities, client)
		h.Logger.Info("feed connection closed", slog.String("user", user.Username))
	}()

	client.Run()
}

func (h *SocketHandler) reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

func (h *SocketHandler) checkOrigin(r *http.Request) bool {
	if h.AllowedOrigin == "" {
		return true
	}
	return r.Header.Get("Origin") == h.AllowedOrigin
}
