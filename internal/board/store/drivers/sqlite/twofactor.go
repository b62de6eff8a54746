package sqlite

import (
	"context"

	"github.com/classdesk/classboard/internal/board/domain"
)

type twoFactorRepo struct {
	db dbtx
}

func (r *twoFactorRepo) GetCredential(ctx context.Context, userID string) (domain.TwoFactorCredential, error) {
	var c domain.TwoFactorCredential
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, secret, enabled, created_at, updated_at
		 FROM two_factor_credentials WHERE user_id = ?`, userID).
		Scan(&c.UserID, &c.Secret, &c.Enabled, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.TwoFactorCredential{}, mapNotFound(err)
	}
	return c, nil
}

func (r *twoFactorRepo) CreateCredential(ctx context.Context, c domain.TwoFactorCredential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO two_factor_credentials (user_id, secret, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.UserID, c.Secret, c.Enabled, c.CreatedAt, c.UpdatedAt)
	return mapConflict(err)
}

func (r *twoFactorRepo) ReplaceSecret(ctx context.Context, userID, secret string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE two_factor_credentials SET secret = ?, enabled = 0, updated_at = ? WHERE user_id = ?`,
		secret, now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *twoFactorRepo) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE two_factor_credentials SET enabled = ?, updated_at = ? WHERE user_id = ?`,
		enabled, now(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
