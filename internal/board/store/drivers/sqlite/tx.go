package sqlite

import (
	"database/sql"

	"github.com/classdesk/classboard/internal/board/store"
)

// txStore exposes the repositories bound to a single transaction.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error { return t.tx.Commit() }

func (t *txStore) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

func (t *txStore) Users() store.Users             { return &usersRepo{db: t.tx} }
func (t *txStore) Sessions() store.Sessions       { return &sessionsRepo{db: t.tx} }
func (t *txStore) TwoFactor() store.TwoFactor     { return &twoFactorRepo{db: t.tx} }
func (t *txStore) Invitations() store.Invitations { return &invitationsRepo{db: t.tx} }
func (t *txStore) Lists() store.Lists             { return &listsRepo{db: t.tx} }
func (t *txStore) Tasks() store.Tasks             { return &tasksRepo{db: t.tx} }
func (t *txStore) Subtasks() store.Subtasks       { return &subtasksRepo{db: t.tx} }
func (t *txStore) Attachments() store.Attachments { return &attachmentsRepo{db: t.tx} }
func (t *txStore) Activities() store.Activities   { return &activitiesRepo{db: t.tx} }
