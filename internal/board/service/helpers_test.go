package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/realtime"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/internal/board/store/drivers/sqlite"
	"github.com/classdesk/classboard/pkg/cryptox"
	"github.com/classdesk/classboard/pkg/idx"
)

const testPassword = "correct horse battery staple"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-test-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper.key"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func createUser(t *testing.T, st store.Store, username string, privileged bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.edu",
		PasswordHash: hash,
		Privileged:   privileged,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	return user
}

func beginSession(t *testing.T, st store.Store) (domain.Session, string) {
	t.Helper()

	svc := &SessionService{Store: st, TTL: time.Hour}
	session, token, err := svc.Begin(context.Background())
	require.NoError(t, err)
	return session, token
}

// reload fetches the session's current row through its token.
func reload(t *testing.T, st store.Store, token string) domain.Session {
	t.Helper()

	session, err := st.Sessions().GetSessionByTokenHash(context.Background(), cryptox.FingerprintToken(token))
	require.NoError(t, err)
	return session
}

func enrollTOTP(t *testing.T, st store.Store, userID string, enabled bool) string {
	t.Helper()

	svc := &TwoFactorService{Store: st, Issuer: "ClassBoard"}
	info, err := svc.Setup(context.Background(), domain.User{ID: userID, Username: "enrollee"})
	require.NoError(t, err)
	if enabled {
		require.NoError(t, st.TwoFactor().SetEnabled(context.Background(), userID, true))
	}
	return info.Secret
}

func invite(t *testing.T, st store.Store, admin, student domain.User, accept bool) domain.Invitation {
	t.Helper()

	svc := &InvitationService{Store: st}
	inv, err := svc.Invite(context.Background(), admin, student.Username)
	require.NoError(t, err)
	if accept {
		inv, err = svc.Accept(context.Background(), student, inv.ID)
		require.NoError(t, err)
	}
	return inv
}

// fakeHub records published events for assertions.
type fakeHub struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (f *fakeHub) Publish(_ string, e realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeHub) published() []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]realtime.Event(nil), f.events...)
}
