// AngelaMos | 2026
// repository.go

package wishlist

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Repository interface {
	Add(ctx context.Context, userID, listingID string) error
	Remove(ctx context.Context, userID, listingID string) error
	ListingIDs(ctx context.Context, userID string) ([]string, error)
	Contains(ctx context.Context, userID, listingID string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Add(ctx context.Context, userID, listingID string) error {
	query := `
		INSERT INTO wishlist (user_id, listing_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, listing_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, listingID); err != nil {
		return fmt.Errorf("add wishlist entry: %w", core.TranslateStoreError(err))
	}

	return nil
}

func (r *repository) Remove(ctx context.Context, userID, listingID string) error {
	query := `DELETE FROM wishlist WHERE user_id = $1 AND listing_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, listingID); err != nil {
		return fmt.Errorf("remove wishlist entry: %w", err)
	}

	return nil
}

func (r *repository) ListingIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT listing_id
		FROM wishlist
		WHERE user_id = $1
		ORDER BY created_at DESC, listing_id`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}

	return ids, nil
}

func (r *repository) Contains(ctx context.Context, userID, listingID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM wishlist WHERE user_id = $1 AND listing_id = $2)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, userID, listingID); err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}

	return ok, nil
}
