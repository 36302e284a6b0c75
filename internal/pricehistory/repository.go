// AngelaMos | 2026
// repository.go

package pricehistory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Repository interface {
	// LockOpen returns the open interval of a listing, locked for update.
	LockOpen(ctx context.Context, listingID string) (*Record, error)
	Insert(ctx context.Context, record *Record) error
	Close(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, listingID string, limit, offset int) ([]Record, int, error)
	StatsByCategory(ctx context.Context, category string) (*CategoryStats, error)
}

type RepositoryFactory func(db core.DBTX) Repository

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) LockOpen(ctx context.Context, listingID string) (*Record, error) {
	query := `
		SELECT id, listing_id, price, start_date, final_date
		FROM price_history
		WHERE listing_id = $1 AND final_date IS NULL
		FOR UPDATE`

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock open interval: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock open interval: %w", core.TranslateStoreError(err))
	}

	return &rec, nil
}

func (r *repository) Insert(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO price_history (id, listing_id, price, start_date, final_date)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.ListingID,
		record.Price,
		record.StartDate,
		record.FinalDate,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("insert price interval: %w", core.ErrConflict)
		}
		return fmt.Errorf("insert price interval: %w", err)
	}

	return nil
}

func (r *repository) Close(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE price_history
		SET final_date = $2
		WHERE id = $1 AND final_date IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("close price interval: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close price interval: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("close price interval: %w", core.ErrConflict)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	listingID string,
	limit, offset int,
) ([]Record, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM price_history WHERE listing_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, listingID); err != nil {
		return nil, 0, fmt.Errorf("count price history: %w", err)
	}

	query := `
		SELECT id, listing_id, price, start_date, final_date
		FROM price_history
		WHERE listing_id = $1
		ORDER BY start_date ASC, final_date ASC NULLS LAST
		LIMIT $2 OFFSET $3`

	records := []Record{}
	if err := r.db.SelectContext(ctx, &records, query, listingID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list price history: %w", err)
	}

	return records, total, nil
}

func (r *repository) StatsByCategory(ctx context.Context, category string) (*CategoryStats, error) {
	query := `
		SELECT COUNT(ph.id) AS count,
			COALESCE(AVG(ph.price), 0) AS avg_price,
			COALESCE(MIN(ph.price), 0) AS min_price,
			COALESCE(MAX(ph.price), 0) AS max_price
		FROM price_history ph
		JOIN listings l ON l.id = ph.listing_id
		WHERE l.category = $1`

	var stats CategoryStats
	if err := r.db.GetContext(ctx, &stats, query, category); err != nil {
		return nil, fmt.Errorf("price stats by category: %w", err)
	}
	stats.Category = category

	return &stats, nil
}
