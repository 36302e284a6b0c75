// AngelaMos | 2026
// repository.go

package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Repository interface {
	Create(ctx context.Context, course *Course) error
	GetByID(ctx context.Context, id string) (*Course, error)
	GetByIDs(ctx context.Context, ids []string) ([]Course, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, course *Course) error {
	query := `
		INSERT INTO courses (id, code, name, faculty)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		course.ID,
		course.Code,
		course.Name,
		course.Faculty,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create course: %w: %w", core.ErrConflict, core.ErrDuplicateKey)
		}
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Course, error) {
	query := `SELECT id, code, name, faculty FROM courses WHERE id = $1`

	var c Course
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get course: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", core.TranslateStoreError(err))
	}

	return &c, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Course, error) {
	if len(ids) == 0 {
		return []Course{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, code, name, faculty FROM courses WHERE id IN (?) ORDER BY code`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}

	courses := []Course{}
	if err := r.db.SelectContext(ctx, &courses, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}

	return courses, nil
}
