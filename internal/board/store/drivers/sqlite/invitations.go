package sqlite

import (
	"context"

	"github.com/classdesk/classboard/internal/board/domain"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, admin_id, student_id, accepted, created_at, updated_at`

func scanInvitation(row interface{ Scan(dest ...any) error }) (domain.Invitation, error) {
	var inv domain.Invitation
	err := row.Scan(&inv.ID, &inv.AdminID, &inv.StudentID, &inv.Accepted, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (id, admin_id, student_id, accepted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.AdminID, inv.StudentID, inv.Accepted, inv.CreatedAt, inv.UpdatedAt)
	return mapConflict(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	inv, err := scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) HasAcceptedInvitation(ctx context.Context, studentID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM invitations WHERE student_id = ? AND accepted = 1`, studentID).
		Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invitationsRepo) SetInvitationAccepted(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET accepted = 1, updated_at = ? WHERE id = ?`, now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *invitationsRepo) ListInvitationsByStudent(ctx context.Context, studentID string) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE student_id = ? ORDER BY created_at DESC`,
		studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}
