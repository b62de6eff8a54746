package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/cryptox"
	"github.com/classdesk/classboard/pkg/totp"
)

const (
	// backendLocal identifies the password backend that approved the first
	// factor. Recorded in the pending challenge so the second step can
	// complete the login without re-running password checks.
	backendLocal = "local"

	// totpSkewWindows accepts the adjacent time steps either side of now,
	// tolerating modest clock drift on the authenticator device.
	totpSkewWindows = 1
)

var (
	// ErrInvalidCredentials is deliberately generic: callers must not be
	// able to distinguish a wrong username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidCode covers wrong, malformed, and replay-stale TOTP codes.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrChallengeExpired means the pending second-factor state is gone and
	// the user must start over from the password step.
	ErrChallengeExpired = errors.New("verification session expired, please log in again")
)

// AuthService implements the two-step login state machine. Step one checks
// the password; if the account has an enabled TOTP credential the session
// gains a pending challenge and step two must present a valid code.
type AuthService struct {
	Store store.Store
}

// LoginResult reports where the state machine landed after a step.
type LoginResult struct {
	// User is set once the session is fully authenticated.
	User *domain.User

	// RequiresCode is true when the password was accepted but a TOTP code
	// is still owed. Username is echoed back for the code form.
	RequiresCode bool
	Username     string
}

// SubmitCredentials runs the password step for the given session. On
// success it either promotes the session (no enabled TOTP credential) or
// parks a pending challenge on it.
func (s *AuthService) SubmitCredentials(ctx context.Context, session domain.Session, username, password string) (LoginResult, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to look up user: %w", err)
	}

	// System accounts carry no password hash and can never log in.
	if user.PasswordHash == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	enabled, err := s.totpEnabled(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if !enabled {
		return s.promote(ctx, session.ID, user)
	}

	pending := &domain.PendingAuthChallenge{
		UserID:   user.ID,
		Backend:  backendLocal,
		Username: user.Username,
	}
	if err := s.Store.Sessions().UpdateSessionPending(ctx, session.ID, pending); err != nil {
		return LoginResult{}, fmt.Errorf("failed to store pending challenge: %w", err)
	}

	return LoginResult{RequiresCode: true, Username: user.Username}, nil
}

// SubmitCode runs the TOTP step. The pending challenge normally lives on
// the session; if it vanished but the caller re-supplied the username of an
// account that is mid-login eligible, the challenge is restored rather than
// forcing a full restart.
func (s *AuthService) SubmitCode(ctx context.Context, session domain.Session, username, code string) (LoginResult, error) {
	pending := session.Pending
	if pending == nil {
		// An authenticated session has no login in flight: a replayed
		// code must not restore a challenge and re-verify.
		if session.Authenticated() {
			return LoginResult{}, ErrChallengeExpired
		}
		restored, err := s.restoreChallenge(ctx, session.ID, username)
		if err != nil {
			return LoginResult{}, err
		}
		pending = restored
	}

	user, err := s.Store.Users().GetUserByID(ctx, pending.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrChallengeExpired
		}
		return LoginResult{}, fmt.Errorf("failed to load challenged user: %w", err)
	}

	cred, err := s.Store.TwoFactor().GetCredential(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Credential deleted between steps: the password already
			// passed, so finish the login.
			return s.promote(ctx, session.ID, user)
		}
		return LoginResult{}, fmt.Errorf("failed to load TOTP credential: %w", err)
	}
	if !cred.Enabled {
		// Disabled between steps, same reasoning.
		return s.promote(ctx, session.ID, user)
	}

	if !totp.Verify(cred.Secret, code, time.Now(), totpSkewWindows) {
		return LoginResult{}, ErrInvalidCode
	}

	return s.promote(ctx, session.ID, user)
}

// CancelChallenge clears any pending challenge, returning the session to
// anonymous. Used when the user abandons the code form.
func (s *AuthService) CancelChallenge(ctx context.Context, sessionID string) error {
	if err := s.Store.Sessions().UpdateSessionPending(ctx, sessionID, nil); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to clear pending challenge: %w", err)
	}
	return nil
}

// promote binds the user to the session and clears the pending challenge in
// the same write, so the challenge is consumed exactly once.
func (s *AuthService) promote(ctx context.Context, sessionID string, user domain.User) (LoginResult, error) {
	if err := s.Store.Sessions().UpdateSessionUser(ctx, sessionID, user.ID); err != nil {
		return LoginResult{}, fmt.Errorf("failed to promote session: %w", err)
	}
	return LoginResult{User: &user}, nil
}

// restoreChallenge rebuilds a lost pending challenge from a re-submitted
// username. Only accounts that would have been challenged in the first
// place qualify; anything else reads as an expired challenge.
func (s *AuthService) restoreChallenge(ctx context.Context, sessionID, username string) (*domain.PendingAuthChallenge, error) {
	if username == "" {
		return nil, ErrChallengeExpired
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChallengeExpired
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	enabled, err := s.totpEnabled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrChallengeExpired
	}

	pending := &domain.PendingAuthChallenge{
		UserID:   user.ID,
		Backend:  backendLocal,
		Username: user.Username,
	}
	if err := s.Store.Sessions().UpdateSessionPending(ctx, sessionID, pending); err != nil {
		return nil, fmt.Errorf("failed to restore pending challenge: %w", err)
	}
	return pending, nil
}

func (s *AuthService) totpEnabled(ctx context.Context, userID string) (bool, error) {
	cred, err := s.Store.TwoFactor().GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load TOTP credential: %w", err)
	}
	return cred.Enabled, nil
}
