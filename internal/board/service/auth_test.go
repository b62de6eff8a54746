package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classboard/pkg/totp"
)

func TestSubmitCredentialsUnknownUser(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	session, _ := beginSession(t, st)

	_, err := svc.SubmitCredentials(context.Background(), session, "ghost", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSubmitCredentialsWrongPassword(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	createUser(t, st, "alice", false)
	session, _ := beginSession(t, st)

	_, err := svc.SubmitCredentials(context.Background(), session, "alice", "not the password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSharedAccountCannotLogIn(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	session, _ := beginSession(t, st)

	// The seeded shared board owner has no password hash.
	_, err := svc.SubmitCredentials(context.Background(), session, "admin_shared", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSubmitCredentialsWithoutTOTPPromotes(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	session, token := beginSession(t, st)

	result, err := svc.SubmitCredentials(context.Background(), session, "alice", testPassword)
	require.NoError(t, err)
	require.False(t, result.RequiresCode)
	require.NotNil(t, result.User)
	require.Equal(t, user.ID, result.User.ID)

	got := reload(t, st, token)
	require.True(t, got.Authenticated())
	require.Equal(t, user.ID, *got.UserID)
	require.Nil(t, got.Pending)
}

func TestSubmitCredentialsWithTOTPParksChallenge(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	enrollTOTP(t, st, user.ID, true)
	session, token := beginSession(t, st)

	result, err := svc.SubmitCredentials(context.Background(), session, "alice", testPassword)
	require.NoError(t, err)
	require.True(t, result.RequiresCode)
	require.Equal(t, "alice", result.Username)
	require.Nil(t, result.User)

	got := reload(t, st, token)
	require.False(t, got.Authenticated())
	require.NotNil(t, got.Pending)
	require.Equal(t, user.ID, got.Pending.UserID)
	require.Equal(t, "alice", got.Pending.Username)
}

func TestSubmitCodeCompletesLogin(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	secret := enrollTOTP(t, st, user.ID, true)
	session, token := beginSession(t, st)

	_, err := svc.SubmitCredentials(context.Background(), session, "alice", testPassword)
	require.NoError(t, err)

	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)

	result, err := svc.SubmitCode(context.Background(), reload(t, st, token), "alice", code)
	require.NoError(t, err)
	require.NotNil(t, result.User)
	require.Equal(t, user.ID, result.User.ID)

	got := reload(t, st, token)
	require.True(t, got.Authenticated())
	require.Nil(t, got.Pending)
}

func TestSubmitCodeRejectsWrongCode(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	secret := enrollTOTP(t, st, user.ID, true)
	session, token := beginSession(t, st)

	_, err := svc.SubmitCredentials(context.Background(), session, "alice", testPassword)
	require.NoError(t, err)

	// A code guaranteed to not match any accepted step.
	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = svc.SubmitCode(context.Background(), reload(t, st, token), "alice", wrong)
	require.ErrorIs(t, err, ErrInvalidCode)

	// The challenge survives a failed attempt.
	got := reload(t, st, token)
	require.False(t, got.Authenticated())
	require.NotNil(t, got.Pending)
}

func TestSubmitCodeWithoutChallengeExpires(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	session, _ := beginSession(t, st)

	_, err := svc.SubmitCode(context.Background(), session, "", "123456")
	require.ErrorIs(t, err, ErrChallengeExpired)
}

func TestSubmitCodeRestoresChallengeFromUsername(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	secret := enrollTOTP(t, st, user.ID, true)
	session, token := beginSession(t, st)

	// No pending challenge on the session, but the form still carries the
	// username of a TOTP-enabled account.
	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)

	result, err := svc.SubmitCode(context.Background(), session, "alice", code)
	require.NoError(t, err)
	require.NotNil(t, result.User)
	require.Equal(t, user.ID, result.User.ID)

	promoted := reload(t, st, token)
	require.True(t, promoted.Authenticated())
}

func TestSubmitCodeRestoreRejectsIneligibleUsername(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	createUser(t, st, "bob", false) // no TOTP credential
	session, _ := beginSession(t, st)

	_, err := svc.SubmitCode(context.Background(), session, "bob", "123456")
	require.ErrorIs(t, err, ErrChallengeExpired)
}

func TestSubmitCodePromotesWhenCredentialDisabledBetweenSteps(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	enrollTOTP(t, st, user.ID, true)
	session, token := beginSession(t, st)

	_, err := svc.SubmitCredentials(context.Background(), session, "alice", testPassword)
	require.NoError(t, err)

	// User disables TOTP from another device mid-login.
	require.NoError(t, st.TwoFactor().SetEnabled(context.Background(), user.ID, false))

	result, err := svc.SubmitCode(context.Background(), reload(t, st, token), "alice", "")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	promoted := reload(t, st, token)
	require.True(t, promoted.Authenticated())
}

func TestSubmitCodeReplayAfterLoginRejected(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	secret := enrollTOTP(t, st, user.ID, true)
	session, token := beginSession(t, st)

	_, err := svc.SubmitCredentials(context.Background(), session, "alice", testPassword)
	require.NoError(t, err)

	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)

	_, err = svc.SubmitCode(context.Background(), reload(t, st, token), "alice", code)
	require.NoError(t, err)

	// The same still-in-window code with the re-supplied username must not
	// restore a challenge on the now-authenticated session.
	_, err = svc.SubmitCode(context.Background(), reload(t, st, token), "alice", code)
	require.ErrorIs(t, err, ErrChallengeExpired)

	got := reload(t, st, token)
	require.True(t, got.Authenticated())
	require.Equal(t, user.ID, *got.UserID)
	require.Nil(t, got.Pending)
}

func TestCancelChallenge(t *testing.T) {
	st := newTestStore(t)
	svc := &AuthService{Store: st}
	user := createUser(t, st, "alice", false)
	enrollTOTP(t, st, user.ID, true)
	session, token := beginSession(t, st)

	_, err := svc.SubmitCredentials(context.Background(), session, "alice", testPassword)
	require.NoError(t, err)
	require.NotNil(t, reload(t, st, token).Pending)

	require.NoError(t, svc.CancelChallenge(context.Background(), session.ID))

	got := reload(t, st, token)
	require.Nil(t, got.Pending)
	require.False(t, got.Authenticated())
}

func TestSessionLifecycle(t *testing.T) {
	st := newTestStore(t)
	svc := &SessionService{Store: st, TTL: time.Hour}
	ctx := context.Background()

	session, token, err := svc.Begin(ctx)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, session.ID, resolved.ID)

	_, err = svc.Resolve(ctx, "not-a-real-token")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.User(ctx, resolved)
	require.ErrorIs(t, err, ErrSessionNotFound) // anonymous

	user := createUser(t, st, "alice", false)
	require.NoError(t, st.Sessions().UpdateSessionUser(ctx, session.ID, user.ID))

	got, err := svc.User(ctx, reload(t, st, token))
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	require.NoError(t, svc.Destroy(ctx, session.ID))
	_, err = svc.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Destroying again is fine.
	require.NoError(t, svc.Destroy(ctx, session.ID))
}

func TestExpiredSessionDoesNotResolve(t *testing.T) {
	st := newTestStore(t)
	svc := &SessionService{Store: st, TTL: -time.Minute} // expires in the past
	ctx := context.Background()

	_, token, err := svc.Begin(ctx)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
