package repo

import (
	"context"

	dom "taskboard/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskFilter narrows List/Count. Owner nil = all tasks (anonymous scope);
// Completed nil = no completion filter.
type TaskFilter struct {
	Owner     *int64
	Completed *bool
	Limit     int
	Offset    int
}

type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	List(ctx context.Context, f TaskFilter) ([]dom.Task, error)
	Count(ctx context.Context, f TaskFilter) (int64, error)
	// GetOwned, Update and Delete match both id and owner, so a foreign
	// or missing id is uniformly pgx.ErrNoRows.
	GetOwned(ctx context.Context, ownerID, id int64) (dom.Task, error)
	Update(ctx context.Context, ownerID, id int64, patch dom.Task) (dom.Task, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (title, description, completed, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, description, completed, user_id,
			(SELECT username FROM users WHERE users.id = tasks.user_id),
			created_at, updated_at`
	var out dom.Task
	err := r.db.QueryRow(ctx, query, t.Title, t.Description, t.Completed, t.UserID).Scan(
		&out.ID, &out.Title, &out.Description, &out.Completed,
		&out.UserID, &out.Username, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

func (r *PGTaskRepo) List(ctx context.Context, f TaskFilter) ([]dom.Task, error) {
	query := `
		SELECT t.id, t.title, t.description, t.completed, t.user_id, u.username,
			t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE ($1::bigint IS NULL OR t.user_id = $1)
		  AND ($2::boolean IS NULL OR t.completed = $2)
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, f.Owner, f.Completed, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		var t dom.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed,
			&t.UserID, &t.Username, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) Count(ctx context.Context, f TaskFilter) (int64, error) {
	query := `
		SELECT COUNT(*) FROM tasks t
		WHERE ($1::bigint IS NULL OR t.user_id = $1)
		  AND ($2::boolean IS NULL OR t.completed = $2)`
	var n int64
	err := r.db.QueryRow(ctx, query, f.Owner, f.Completed).Scan(&n)
	return n, err
}

func (r *PGTaskRepo) GetOwned(ctx context.Context, ownerID, id int64) (dom.Task, error) {
	query := `
		SELECT t.id, t.title, t.description, t.completed, t.user_id, u.username,
			t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.id = $1 AND t.user_id = $2`
	var t dom.Task
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&t.ID, &t.Title, &t.Description, &t.Completed,
		&t.UserID, &t.Username, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTaskRepo) Update(ctx context.Context, ownerID, id int64, patch dom.Task) (dom.Task, error) {
	query := `
		UPDATE tasks SET title = $3, description = $4, completed = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, description, completed, user_id,
			(SELECT username FROM users WHERE users.id = tasks.user_id),
			created_at, updated_at`
	var t dom.Task
	err := r.db.QueryRow(ctx, query, id, ownerID, patch.Title, patch.Description, patch.Completed).Scan(
		&t.ID, &t.Title, &t.Description, &t.Completed,
		&t.UserID, &t.Username, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTaskRepo) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
