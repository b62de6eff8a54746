package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/store"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	pending, err := marshalPending(s.Pending)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token_hash, user_id, pending, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenHash, mapOptionalString(s.UserID), pending, s.CreatedAt, s.UpdatedAt, s.ExpiresAt)
	return mapConflict(err)
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	var (
		s       domain.Session
		userID  sql.NullString
		pending sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token_hash, user_id, pending, created_at, updated_at, expires_at
		 FROM sessions
		 WHERE token_hash = ? AND expires_at > ?`, hash, now()).
		Scan(&s.ID, &s.TokenHash, &userID, &pending, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.UserID = mapNullStringPtr(userID)
	s.Pending, err = unmarshalPending(pending)
	if err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func (r *sessionsRepo) UpdateSessionUser(ctx context.Context, sessionID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = ?, pending = NULL, updated_at = ? WHERE id = ?`,
		userID, now(), sessionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) UpdateSessionPending(ctx context.Context, sessionID string, pending *domain.PendingAuthChallenge) error {
	raw, err := marshalPending(pending)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET pending = ?, updated_at = ? WHERE id = ?`,
		raw, now(), sessionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, now())
	return err
}

func marshalPending(p *domain.PendingAuthChallenge) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal pending challenge: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalPending(raw sql.NullString) (*domain.PendingAuthChallenge, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var p domain.PendingAuthChallenge
	if err := json.Unmarshal([]byte(raw.String), &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending challenge: %w", err)
	}
	return &p, nil
}

// requireRow converts a zero-rows-affected update/delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
