// AngelaMos | 2026
// reviews.go

package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/review"
)

type reviewRepo struct {
	s    *Store
	inTx bool
}

func (s *Store) ReviewRepos() review.RepositoryFactory {
	return func(db core.DBTX) review.Repository {
		return &reviewRepo{s: s, inTx: inTx(db)}
	}
}

// Create enforces one review per (transaction, direction).
func (r *reviewRepo) Create(ctx context.Context, rv *review.Review) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.transactions[rv.TransactionID]; !ok {
			return fmt.Errorf("create review: transaction %s missing", rv.TransactionID)
		}
		for _, existing := range d.reviews {
			if existing.TransactionID == rv.TransactionID && existing.Direction == rv.Direction {
				return fmt.Errorf("create review: %w", core.ErrConflict)
			}
		}
		now := d.now()
		rv.CreatedAt, rv.UpdatedAt = now, now
		d.reviews[rv.ID] = *rv
		return nil
	})
}

func (r *reviewRepo) GetByID(_ context.Context, id string) (*review.Review, error) {
	return r.get("get review", id)
}

func (r *reviewRepo) LockByID(_ context.Context, id string) (*review.Review, error) {
	return r.get("lock review", id)
}

func (r *reviewRepo) get(op, id string) (*review.Review, error) {
	var out *review.Review
	err := r.s.read(r.inTx, func(d *data) error {
		rv, ok := d.reviews[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, core.ErrNotFound)
		}
		out = &rv
		return nil
	})
	return out, err
}

func (r *reviewRepo) Update(ctx context.Context, rv *review.Review) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		stored, ok := d.reviews[rv.ID]
		if !ok {
			return fmt.Errorf("update review: %w", core.ErrNotFound)
		}
		stored.Rating = rv.Rating
		stored.Comment = rv.Comment
		stored.UpdatedAt = d.now()
		rv.UpdatedAt = stored.UpdatedAt
		d.reviews[rv.ID] = stored
		return nil
	})
}

func (r *reviewRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.reviews[id]; !ok {
			return fmt.Errorf("delete review: %w", core.ErrNotFound)
		}
		delete(d.reviews, id)
		return nil
	})
}

func (r *reviewRepo) AverageFor(
	_ context.Context,
	revieweeID string,
	direction review.Direction,
) (float64, error) {
	sum, n := 0, 0
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, rv := range d.reviews {
			if rv.RevieweeID == revieweeID && rv.Direction == direction {
				sum += rv.Rating
				n++
			}
		}
		return nil
	})
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (r *reviewRepo) ListByTransaction(
	_ context.Context,
	transactionID string,
) ([]review.Review, error) {
	out := []review.Review{}
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, rv := range d.reviews {
			if rv.TransactionID == transactionID {
				out = append(out, rv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *reviewRepo) ListByReviewee(
	_ context.Context,
	revieweeID string,
	direction review.Direction,
	limit, offset int,
) ([]review.Review, int, error) {
	var out []review.Review
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, rv := range d.reviews {
			if rv.RevieweeID == revieweeID && rv.Direction == direction {
				out = append(out, rv)
			}
		}
		return nil
	})
	sortByCreatedDesc(out, func(rv review.Review) time.Time { return rv.CreatedAt })
	return page(out, limit, offset), len(out), nil
}
