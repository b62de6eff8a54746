package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/idx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := NewStore(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func testUser(username, email string) domain.User {
	now := time.Now().UTC()
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestWithTxCommits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, testUser("alice", "alice@example.edu"))
	})
	require.NoError(t, err)

	got, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.edu", got.Email)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, testUser("alice", "alice@example.edu")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByUsername(ctx, "alice")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxReadsOwnWrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, testUser("alice", "alice@example.edu")); err != nil {
			return err
		}
		_, err := tx.Users().GetUserByUsername(ctx, "alice")
		return err
	})
	require.NoError(t, err)
}

func TestEmailMustBeUnique(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Users().CreateUser(ctx, testUser("alice", "shared@example.edu")))

	err := st.Users().CreateUser(ctx, testUser("alicia", "shared@example.edu"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEmptyEmailNotUnique(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// System accounts carry empty emails; the seeded shared owner already
	// holds one, so two more must still be insertable.
	require.NoError(t, st.Users().CreateUser(ctx, testUser("svc-one", "")))
	require.NoError(t, st.Users().CreateUser(ctx, testUser("svc-two", "")))
}
