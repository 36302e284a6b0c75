// AngelaMos | 2026
// transactions.go

package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
)

type transactionRepo struct {
	s    *Store
	inTx bool
}

func (s *Store) TransactionRepos() transaction.RepositoryFactory {
	return func(db core.DBTX) transaction.Repository {
		return &transactionRepo{s: s, inTx: inTx(db)}
	}
}

// Create enforces one active transaction per listing like the partial
// unique index.
func (r *transactionRepo) Create(ctx context.Context, t *transaction.Transaction) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.listings[t.ListingID]; !ok {
			return fmt.Errorf("create transaction: listing %s missing", t.ListingID)
		}
		if t.Status.IsActive() {
			for _, existing := range d.transactions {
				if existing.ListingID == t.ListingID && existing.Status.IsActive() {
					return fmt.Errorf("create transaction: %w", core.ErrConflict)
				}
			}
		}
		now := d.now()
		t.CreatedAt, t.UpdatedAt = now, now
		d.transactions[t.ID] = *t
		return nil
	})
}

func (r *transactionRepo) GetByID(_ context.Context, id string) (*transaction.Transaction, error) {
	return r.get("get transaction", id)
}

func (r *transactionRepo) LockByID(_ context.Context, id string) (*transaction.Transaction, error) {
	return r.get("lock transaction", id)
}

func (r *transactionRepo) get(op, id string) (*transaction.Transaction, error) {
	var out *transaction.Transaction
	err := r.s.read(r.inTx, func(d *data) error {
		t, ok := d.transactions[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, core.ErrNotFound)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *transactionRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status transaction.Status,
	completedAt *time.Time,
) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		t, ok := d.transactions[id]
		if !ok {
			return fmt.Errorf("update transaction status: %w", core.ErrNotFound)
		}
		if status.IsActive() {
			for _, other := range d.transactions {
				if other.ID != id && other.ListingID == t.ListingID && other.Status.IsActive() {
					return fmt.Errorf("update transaction status: %w", core.ErrConflict)
				}
			}
		}
		t.Status = status
		t.CompletedAt = completedAt
		t.UpdatedAt = d.now()
		d.transactions[id] = t
		return nil
	})
}

func (r *transactionRepo) UpdateMeeting(
	ctx context.Context,
	id, location string,
	at *time.Time,
) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		t, ok := d.transactions[id]
		if !ok {
			return fmt.Errorf("update transaction meeting: %w", core.ErrNotFound)
		}
		t.MeetingLocation = &location
		t.MeetingAt = at
		t.UpdatedAt = d.now()
		d.transactions[id] = t
		return nil
	})
}

func (r *transactionRepo) ListByBuyer(
	_ context.Context,
	buyerID string,
	limit, offset int,
) ([]transaction.Transaction, int, error) {
	return r.listBy(func(t transaction.Transaction) bool { return t.BuyerID == buyerID }, limit, offset)
}

func (r *transactionRepo) ListBySeller(
	_ context.Context,
	sellerID string,
	limit, offset int,
) ([]transaction.Transaction, int, error) {
	return r.listBy(func(t transaction.Transaction) bool { return t.SellerID == sellerID }, limit, offset)
}

func (r *transactionRepo) ListBySellerInStatus(
	_ context.Context,
	sellerID string,
	status transaction.Status,
	limit, offset int,
) ([]transaction.Transaction, int, error) {
	return r.listBy(func(t transaction.Transaction) bool {
		return t.SellerID == sellerID && t.Status == status
	}, limit, offset)
}

func (r *transactionRepo) ListByListing(
	_ context.Context,
	listingID string,
	limit, offset int,
) ([]transaction.Transaction, int, error) {
	return r.listBy(func(t transaction.Transaction) bool { return t.ListingID == listingID }, limit, offset)
}

func (r *transactionRepo) listBy(
	match func(transaction.Transaction) bool,
	limit, offset int,
) ([]transaction.Transaction, int, error) {
	var out []transaction.Transaction
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, t := range d.transactions {
			if match(t) {
				out = append(out, t)
			}
		}
		return nil
	})

	sortByCreatedDesc(out, func(t transaction.Transaction) time.Time { return t.CreatedAt })
	return page(out, limit, offset), len(out), nil
}

func (r *transactionRepo) CountByStatus(context.Context) (map[transaction.Status]int, error) {
	counts := map[transaction.Status]int{}
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, t := range d.transactions {
			counts[t.Status]++
		}
		return nil
	})
	return counts, nil
}
