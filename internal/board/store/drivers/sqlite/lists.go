package sqlite

import (
	"context"
	"database/sql"

	"github.com/classdesk/classboard/internal/board/domain"
)

type listsRepo struct {
	db dbtx
}

const listColumns = `id, name, position, color, owner_id, created_by, created_at, updated_at`

func scanList(row interface{ Scan(dest ...any) error }) (domain.List, error) {
	var (
		l         domain.List
		createdBy sql.NullString
	)
	err := row.Scan(&l.ID, &l.Name, &l.Order, &l.Color, &l.OwnerID, &createdBy, &l.CreatedAt, &l.UpdatedAt)
	l.CreatedBy = mapNullStringPtr(createdBy)
	return l, err
}

func (r *listsRepo) CreateList(ctx context.Context, l domain.List) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lists (id, name, position, color, owner_id, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Order, l.Color, l.OwnerID, mapOptionalString(l.CreatedBy), l.CreatedAt, l.UpdatedAt)
	return mapConflict(err)
}

func (r *listsRepo) GetListByID(ctx context.Context, id string) (domain.List, error) {
	l, err := scanList(r.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE id = ?`, id))
	if err != nil {
		return domain.List{}, mapNotFound(err)
	}
	return l, nil
}

func (r *listsRepo) ListListsByOwner(ctx context.Context, ownerID string) ([]domain.List, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE owner_id = ? ORDER BY position, created_at`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []domain.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (r *listsRepo) UpdateListColor(ctx context.Context, id, color string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lists SET color = ?, updated_at = ? WHERE id = ?`, color, now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *listsRepo) DeleteList(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
