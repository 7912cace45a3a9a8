package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"todoapp/internal/models"
)

// ListQuery selects one window of the filtered, sorted to-do set.
type ListQuery struct {
	Search string
	Sort   models.SortOrder
	Limit  int
	Offset int
}

type ToDoRepository interface {
	List(ctx context.Context, q ListQuery) ([]models.ToDo, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ToDo, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, todo *models.ToDo) error
	CreateBatch(ctx context.Context, todos []models.ToDo) error
	Update(ctx context.Context, todo *models.ToDo) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SQLToDoRepo struct {
	db *sql.DB
}

func NewToDoRepo(db *sql.DB) *SQLToDoRepo {
	return &SQLToDoRepo{db: db}
}

const todoColumns = "id, title, is_completed, created_date, updated_date"

func (r *SQLToDoRepo) List(ctx context.Context, q ListQuery) ([]models.ToDo, int, error) {
	where := ""
	args := []any{}
	if q.Search != "" {
		where = ` WHERE title LIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}

	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count todos: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM todos%s ORDER BY %s LIMIT $%d OFFSET $%d",
		todoColumns, where, orderBy(q.Sort), len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]models.ToDo, 0, q.Limit)
	for rows.Next() {
		var t models.ToDo
		if err := rows.Scan(&t.ID, &t.Title, &t.IsCompleted, &t.CreatedDate, &t.UpdatedDate); err != nil {
			return nil, 0, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list todos: %w", err)
	}
	return todos, total, nil
}

// orderBy renders the ORDER BY clause; id breaks ties so page windows are
// stable.
func orderBy(s models.SortOrder) string {
	var column string
	switch s {
	case models.SortCompleted, models.SortCompletedDesc:
		column = "is_completed"
	case models.SortCreated, models.SortCreatedDesc:
		column = "created_date"
	case models.SortUpdated, models.SortUpdatedDesc:
		column = "updated_date"
	default:
		column = "title"
	}
	if s.Descending() {
		return column + " DESC, id"
	}
	return column + " ASC, id"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *SQLToDoRepo) Get(ctx context.Context, id uuid.UUID) (*models.ToDo, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+todoColumns+" FROM todos WHERE id = $1", id)

	t := models.ToDo{}
	err := row.Scan(&t.ID, &t.Title, &t.IsCompleted, &t.CreatedDate, &t.UpdatedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get todo %s: %w", id, err)
	}
	return &t, nil
}

func (r *SQLToDoRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos WHERE id = $1", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check todo %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *SQLToDoRepo) Create(ctx context.Context, todo *models.ToDo) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO todos ("+todoColumns+") VALUES ($1, $2, $3, $4, $5)",
		todo.ID, todo.Title, todo.IsCompleted, todo.CreatedDate.UTC(), todo.UpdatedDate.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

// CreateBatch inserts all todos in one transaction; on any failure nothing
// is committed.
func (r *SQLToDoRepo) CreateBatch(ctx context.Context, todos []models.ToDo) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO todos ("+todoColumns+") VALUES ($1, $2, $3, $4, $5)")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for i := range todos {
		t := &todos[i]
		if _, err = stmt.ExecContext(ctx, t.ID, t.Title, t.IsCompleted, t.CreatedDate.UTC(), t.UpdatedDate.UTC()); err != nil {
			return fmt.Errorf("insert batch row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Update replaces every field of the record. It returns ErrStale when no
// row matched.
func (r *SQLToDoRepo) Update(ctx context.Context, todo *models.ToDo) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE todos
			SET title = $1, is_completed = $2, created_date = $3, updated_date = $4
			WHERE id = $5`,
		todo.Title, todo.IsCompleted, todo.CreatedDate.UTC(), todo.UpdatedDate.UTC(), todo.ID)
	if err != nil {
		return fmt.Errorf("update todo %s: %w", todo.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update todo %s: %w", todo.ID, err)
	}
	if rowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r *SQLToDoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
