package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
)

type subtasksRepo struct {
	db dbtx
}

const subtaskColumns = `id, title, task_id, completed, position, due_date, created_by, created_at, updated_at`

func scanSubtask(row interface{ Scan(dest ...any) error }) (domain.Subtask, error) {
	var (
		s         domain.Subtask
		createdBy sql.NullString
	)
	err := row.Scan(&s.ID, &s.Title, &s.TaskID, &s.Completed, &s.Order, &s.DueDate, &createdBy, &s.CreatedAt, &s.UpdatedAt)
	s.CreatedBy = mapNullStringPtr(createdBy)
	return s, err
}

func (r *subtasksRepo) CreateSubtask(ctx context.Context, s domain.Subtask) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subtasks (id, title, task_id, completed, position, due_date, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, s.TaskID, s.Completed, s.Order, s.DueDate, mapOptionalString(s.CreatedBy), s.CreatedAt, s.UpdatedAt)
	return mapConflict(err)
}

func (r *subtasksRepo) GetSubtaskByID(ctx context.Context, id string) (domain.Subtask, error) {
	s, err := scanSubtask(r.db.QueryRowContext(ctx,
		`SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`, id))
	if err != nil {
		return domain.Subtask{}, mapNotFound(err)
	}
	return s, nil
}

func (r *subtasksRepo) ListSubtasksByTask(ctx context.Context, taskID string) ([]domain.Subtask, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subtaskColumns+` FROM subtasks WHERE task_id = ? ORDER BY position, created_at`,
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtasks []domain.Subtask
	for rows.Next() {
		s, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, s)
	}
	return subtasks, rows.Err()
}

func (r *subtasksRepo) UpdateSubtask(ctx context.Context, id, title string, dueDate time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subtasks SET title = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		title, dueDate, now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *subtasksRepo) ToggleSubtask(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subtasks SET completed = NOT completed, updated_at = ? WHERE id = ?`,
		now(), id)
	if err != nil {
		return false, err
	}
	if err := requireRow(res); err != nil {
		return false, err
	}

	var completed bool
	err = r.db.QueryRowContext(ctx,
		`SELECT completed FROM subtasks WHERE id = ?`, id).Scan(&completed)
	if err != nil {
		return false, mapNotFound(err)
	}
	return completed, nil
}

func (r *subtasksRepo) DeleteSubtask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
