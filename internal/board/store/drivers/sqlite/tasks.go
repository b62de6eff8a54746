package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
)

type tasksRepo struct {
	db dbtx
}

const taskColumns = `id, title, list_id, position, due_date, reminder_sent, created_by, created_at, updated_at`

func scanTask(row interface{ Scan(dest ...any) error }) (domain.Task, error) {
	var (
		t         domain.Task
		createdBy sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.ListID, &t.Order, &t.DueDate, &t.ReminderSent, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	t.CreatedBy = mapNullStringPtr(createdBy)
	return t, err
}

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, list_id, position, due_date, reminder_sent, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.ListID, t.Order, t.DueDate, t.ReminderSent, mapOptionalString(t.CreatedBy), t.CreatedAt, t.UpdatedAt)
	return mapConflict(err)
}

func (r *tasksRepo) GetTaskByID(ctx context.Context, id string) (domain.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tasksRepo) ListTasksByList(ctx context.Context, listID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE list_id = ? ORDER BY position, created_at`,
		listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) UpdateTask(ctx context.Context, id, title string, dueDate time.Time) error {
	// Editing resets the reminder flag so a pushed-out due date reminds again.
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, due_date = ?, reminder_sent = 0, updated_at = ? WHERE id = ?`,
		title, dueDate, now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *tasksRepo) MoveTask(ctx context.Context, id, listID string, order int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET list_id = ?, position = ?, updated_at = ? WHERE id = ?`,
		listID, order, now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *tasksRepo) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *tasksRepo) ListDueTasks(ctx context.Context, dueBefore time.Time) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE due_date <= ? AND reminder_sent = 0
		 ORDER BY due_date`, dueBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) MarkReminderSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET reminder_sent = 1, updated_at = ? WHERE id = ?`, now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
