package sqlite

import (
	"context"
	"database/sql"

	"github.com/classdesk/classboard/internal/board/domain"
)

type activitiesRepo struct {
	db dbtx
}

// activityColumns joins users for the denormalised username shown in the
// feed. A deleted author takes the activity with it (ON DELETE CASCADE),
// so the join is inner.
const activityColumns = `a.id, a.user_id, u.username, a.kind, a.description,
	a.task_id, a.list_id, a.subtask_id, a.created_at`

func scanActivity(row interface{ Scan(dest ...any) error }) (domain.Activity, error) {
	var (
		act       domain.Activity
		taskID    sql.NullString
		listID    sql.NullString
		subtaskID sql.NullString
	)
	err := row.Scan(&act.ID, &act.UserID, &act.Username, &act.Kind, &act.Description,
		&taskID, &listID, &subtaskID, &act.CreatedAt)
	act.TaskID = mapNullStringPtr(taskID)
	act.ListID = mapNullStringPtr(listID)
	act.SubtaskID = mapNullStringPtr(subtaskID)
	return act, err
}

func (r *activitiesRepo) CreateActivity(ctx context.Context, a domain.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, kind, description, task_id, list_id, subtask_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, string(a.Kind), a.Description,
		mapOptionalString(a.TaskID), mapOptionalString(a.ListID), mapOptionalString(a.SubtaskID),
		a.CreatedAt)
	return mapConflict(err)
}

func (r *activitiesRepo) GetActivityByID(ctx context.Context, id string) (domain.Activity, error) {
	act, err := scanActivity(r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+`
		 FROM activities a JOIN users u ON u.id = a.user_id
		 WHERE a.id = ?`, id))
	if err != nil {
		return domain.Activity{}, mapNotFound(err)
	}
	return act, nil
}

func (r *activitiesRepo) ListRecentActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+`
		 FROM activities a JOIN users u ON u.id = a.user_id
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, act)
	}
	return activities, rows.Err()
}

func (r *activitiesRepo) CountActivities(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM activities`).Scan(&count)
	return count, err
}

func (r *activitiesRepo) CreateActivityComment(ctx context.Context, c domain.ActivityComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_comments (id, activity_id, author_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ActivityID, c.AuthorID, c.Body, c.CreatedAt)
	return mapConflict(err)
}

func (r *activitiesRepo) ListActivityComments(ctx context.Context, activityID string) ([]domain.ActivityComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.activity_id, c.author_id, u.username, c.body, c.created_at
		 FROM activity_comments c JOIN users u ON u.id = c.author_id
		 WHERE c.activity_id = ?
		 ORDER BY c.created_at, c.id`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.ActivityComment
	for rows.Next() {
		var c domain.ActivityComment
		if err := rows.Scan(&c.ID, &c.ActivityID, &c.AuthorID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
