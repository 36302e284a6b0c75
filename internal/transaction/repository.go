// AngelaMos | 2026
// repository.go

package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
	LockByID(ctx context.Context, id string) (*Transaction, error)
	UpdateStatus(ctx context.Context, id string, status Status, completedAt *time.Time) error
	UpdateMeeting(ctx context.Context, id, location string, at *time.Time) error
	ListByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]Transaction, int, error)
	ListBySeller(ctx context.Context, sellerID string, limit, offset int) ([]Transaction, int, error)
	ListBySellerInStatus(
		ctx context.Context,
		sellerID string,
		status Status,
		limit, offset int,
	) ([]Transaction, int, error)
	ListByListing(ctx context.Context, listingID string, limit, offset int) ([]Transaction, int, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type RepositoryFactory func(db core.DBTX) Repository

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const transactionColumns = `
	id, listing_id, buyer_id, seller_id, agreed_price, status,
	meeting_location, meeting_at, completed_at, created_at, updated_at`

// Create inserts a pending transaction. A second active transaction on the
// same listing violates the store's partial unique index and is reported
// as ErrConflict.
func (r *repository) Create(ctx context.Context, t *Transaction) error {
	query := `
		INSERT INTO transactions (id, listing_id, buyer_id, seller_id, agreed_price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.ListingID,
		t.BuyerID,
		t.SellerID,
		t.AgreedPrice,
		t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf(
				"create transaction: listing %s already has an active transaction: %w",
				t.ListingID, core.ErrConflict,
			)
		}
		return fmt.Errorf("create transaction: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE id = $1`

	return r.get(ctx, "get transaction", query, id)
}

func (r *repository) LockByID(ctx context.Context, id string) (*Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE id = $1
		FOR UPDATE`

	return r.get(ctx, "lock transaction", query, id)
}

func (r *repository) get(ctx context.Context, op, query, id string) (*Transaction, error) {
	var t Transaction
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.TranslateStoreError(err))
	}

	return &t, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	status Status,
	completedAt *time.Time,
) error {
	query := `
		UPDATE transactions
		SET status = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update transaction status", query, id, status, completedAt)
}

func (r *repository) UpdateMeeting(
	ctx context.Context,
	id, location string,
	at *time.Time,
) error {
	query := `
		UPDATE transactions
		SET meeting_location = $2, meeting_at = $3, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update transaction meeting", query, id, location, at)
}

func (r *repository) ListByBuyer(
	ctx context.Context,
	buyerID string,
	limit, offset int,
) ([]Transaction, int, error) {
	return r.listBy(ctx, "buyer_id", buyerID, "", limit, offset)
}

func (r *repository) ListBySeller(
	ctx context.Context,
	sellerID string,
	limit, offset int,
) ([]Transaction, int, error) {
	return r.listBy(ctx, "seller_id", sellerID, "", limit, offset)
}

func (r *repository) ListBySellerInStatus(
	ctx context.Context,
	sellerID string,
	status Status,
	limit, offset int,
) ([]Transaction, int, error) {
	return r.listBy(ctx, "seller_id", sellerID, status, limit, offset)
}

func (r *repository) ListByListing(
	ctx context.Context,
	listingID string,
	limit, offset int,
) ([]Transaction, int, error) {
	return r.listBy(ctx, "listing_id", listingID, "", limit, offset)
}

// listBy only receives column names from this file. An empty status matches
// every status.
func (r *repository) listBy(
	ctx context.Context,
	column, value string,
	status Status,
	limit, offset int,
) ([]Transaction, int, error) {
	where := column + ` = $1 AND ($2 = '' OR status = $2)`

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, value, string(status)); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", core.TranslateStoreError(err))
	}

	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE ` + where + `
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	txs := []Transaction{}
	if err := r.db.SelectContext(ctx, &txs, query, value, string(status), limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	return txs, total, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) AS n FROM transactions GROUP BY status`

	var rows []struct {
		Status Status `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count transactions by status: %w", err)
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}

	return counts, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
