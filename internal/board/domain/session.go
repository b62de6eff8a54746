package domain

import "time"

// PendingAuthChallenge marks that a session passed the password step and is
// awaiting a TOTP code. It lives inside the session row only; consuming it
// (success, cancel, or session expiry) removes it.
type PendingAuthChallenge struct {
	UserID   string `json:"user_id"`
	Backend  string `json:"backend"` // authentication backend that approved the password step
	Username string `json:"username"`
}

// Session is a server-side browser session. The cookie holds an opaque
// token; only its fingerprint is stored. UserID is nil until the session is
// promoted to authenticated. At most one pending challenge exists per
// session by construction.
type Session struct {
	ID        string
	TokenHash string
	UserID    *string
	Pending   *PendingAuthChallenge
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Authenticated reports whether the session carries a logged-in user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != nil && *s.UserID != ""
}
