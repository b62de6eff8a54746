package sqlite

import (
	"context"
	"database/sql"

	"github.com/classdesk/classboard/internal/board/domain"
)

type attachmentsRepo struct {
	db dbtx
}

const attachmentColumns = `id, task_id, subtask_id, filename, size_bytes, uploaded_by, uploaded_at`

func scanAttachment(row interface{ Scan(dest ...any) error }) (domain.Attachment, error) {
	var (
		a          domain.Attachment
		taskID     sql.NullString
		subtaskID  sql.NullString
		uploadedBy sql.NullString
	)
	err := row.Scan(&a.ID, &taskID, &subtaskID, &a.Filename, &a.SizeBytes, &uploadedBy, &a.UploadedAt)
	a.TaskID = mapNullStringPtr(taskID)
	a.SubtaskID = mapNullStringPtr(subtaskID)
	a.UploadedBy = mapNullStringPtr(uploadedBy)
	return a, err
}

func (r *attachmentsRepo) CreateAttachment(ctx context.Context, a domain.Attachment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attachments (id, task_id, subtask_id, filename, size_bytes, uploaded_by, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, mapOptionalString(a.TaskID), mapOptionalString(a.SubtaskID),
		a.Filename, a.SizeBytes, mapOptionalString(a.UploadedBy), a.UploadedAt)
	return mapConflict(err)
}

func (r *attachmentsRepo) GetAttachmentByID(ctx context.Context, id string) (domain.Attachment, error) {
	a, err := scanAttachment(r.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id))
	if err != nil {
		return domain.Attachment{}, mapNotFound(err)
	}
	return a, nil
}

func (r *attachmentsRepo) ListAttachmentsByTask(ctx context.Context, taskID string) ([]domain.Attachment, error) {
	return r.list(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE task_id = ? ORDER BY uploaded_at`, taskID)
}

func (r *attachmentsRepo) ListAttachmentsBySubtask(ctx context.Context, subtaskID string) ([]domain.Attachment, error) {
	return r.list(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE subtask_id = ? ORDER BY uploaded_at`, subtaskID)
}

func (r *attachmentsRepo) list(ctx context.Context, query string, arg any) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *attachmentsRepo) DeleteAttachment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
