// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	LockByID(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	AverageFor(ctx context.Context, revieweeID string, direction Direction) (float64, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]Review, error)
	ListByReviewee(
		ctx context.Context,
		revieweeID string,
		direction Direction,
		limit, offset int,
	) ([]Review, int, error)
}

type RepositoryFactory func(db core.DBTX) Repository

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const reviewColumns = `
	id, transaction_id, direction, reviewer_id, reviewee_id, rating, comment,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, rv *Review) error {
	query := `
		INSERT INTO reviews (
			id, transaction_id, direction, reviewer_id, reviewee_id, rating, comment
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		rv.ID,
		rv.TransactionID,
		rv.Direction,
		rv.ReviewerID,
		rv.RevieweeID,
		rv.Rating,
		rv.Comment,
	).Scan(&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf(
				"create review: %s review already exists: %w",
				rv.Direction, core.ErrConflict,
			)
		}
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Review, error) {
	query := `SELECT` + reviewColumns + `
		FROM reviews
		WHERE id = $1`

	return r.get(ctx, "get review", query, id)
}

func (r *repository) LockByID(ctx context.Context, id string) (*Review, error) {
	query := `SELECT` + reviewColumns + `
		FROM reviews
		WHERE id = $1
		FOR UPDATE`

	return r.get(ctx, "lock review", query, id)
}

func (r *repository) get(ctx context.Context, op, query, id string) (*Review, error) {
	var rv Review
	err := r.db.GetContext(ctx, &rv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.TranslateStoreError(err))
	}

	return &rv, nil
}

func (r *repository) Update(ctx context.Context, rv *Review) error {
	query := `
		UPDATE reviews
		SET rating = $2, comment = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, rv.ID, rv.Rating, rv.Comment).
		Scan(&rv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update review: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update review: %w", core.TranslateStoreError(err))
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete review: %w", core.ErrNotFound)
	}

	return nil
}

// AverageFor aggregates every review the reviewee received in direction.
// No reviews averages to 0.
func (r *repository) AverageFor(
	ctx context.Context,
	revieweeID string,
	direction Direction,
) (float64, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8
		FROM reviews
		WHERE reviewee_id = $1 AND direction = $2`

	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, revieweeID, direction); err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}

	return avg, nil
}

func (r *repository) ListByTransaction(
	ctx context.Context,
	transactionID string,
) ([]Review, error) {
	query := `SELECT` + reviewColumns + `
		FROM reviews
		WHERE transaction_id = $1
		ORDER BY created_at ASC`

	var reviews []Review
	if err := r.db.SelectContext(ctx, &reviews, query, transactionID); err != nil {
		return nil, fmt.Errorf("list transaction reviews: %w", err)
	}

	return reviews, nil
}

func (r *repository) ListByReviewee(
	ctx context.Context,
	revieweeID string,
	direction Direction,
	limit, offset int,
) ([]Review, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM reviews WHERE reviewee_id = $1 AND direction = $2`
	if err := r.db.GetContext(ctx, &total, countQuery, revieweeID, direction); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := `SELECT` + reviewColumns + `
		FROM reviews
		WHERE reviewee_id = $1 AND direction = $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	var reviews []Review
	err := r.db.SelectContext(ctx, &reviews, query, revieweeID, direction, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}
