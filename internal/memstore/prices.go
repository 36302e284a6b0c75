// AngelaMos | 2026
// prices.go

package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/pricehistory"
)

type priceRepo struct {
	s    *Store
	inTx bool
}

func (s *Store) PriceRepos() pricehistory.RepositoryFactory {
	return func(db core.DBTX) pricehistory.Repository {
		return &priceRepo{s: s, inTx: inTx(db)}
	}
}

func (r *priceRepo) LockOpen(_ context.Context, listingID string) (*pricehistory.Record, error) {
	var out *pricehistory.Record
	err := r.s.read(r.inTx, func(d *data) error {
		for _, rec := range d.prices[listingID] {
			if rec.IsOpen() {
				rec := rec
				out = &rec
				return nil
			}
		}
		return fmt.Errorf("lock open price interval: %w", core.ErrNotFound)
	})
	return out, err
}

// Insert rejects a second open interval like the partial unique index.
func (r *priceRepo) Insert(ctx context.Context, rec *pricehistory.Record) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.listings[rec.ListingID]; !ok {
			return fmt.Errorf("insert price interval: listing %s missing", rec.ListingID)
		}
		if rec.IsOpen() {
			for _, existing := range d.prices[rec.ListingID] {
				if existing.IsOpen() {
					return fmt.Errorf("insert price interval: %w", core.ErrConflict)
				}
			}
		}
		d.prices[rec.ListingID] = append(d.prices[rec.ListingID], *rec)
		return nil
	})
}

func (r *priceRepo) Close(ctx context.Context, id string, at time.Time) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		for listingID, recs := range d.prices {
			for i, rec := range recs {
				if rec.ID != id {
					continue
				}
				if !rec.IsOpen() {
					return fmt.Errorf("close price interval: already closed: %w", core.ErrConflict)
				}
				final := at
				recs[i].FinalDate = &final
				d.prices[listingID] = recs
				return nil
			}
		}
		return fmt.Errorf("close price interval: already closed: %w", core.ErrConflict)
	})
}

func (r *priceRepo) List(
	_ context.Context,
	listingID string,
	limit, offset int,
) ([]pricehistory.Record, int, error) {
	var recs []pricehistory.Record
	_ = r.s.read(r.inTx, func(d *data) error {
		recs = append(recs, d.prices[listingID]...)
		return nil
	})

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartDate.Before(recs[j].StartDate)
	})

	return page(recs, limit, offset), len(recs), nil
}

func (r *priceRepo) StatsByCategory(_ context.Context, category string) (*pricehistory.CategoryStats, error) {
	stats := &pricehistory.CategoryStats{Category: category}
	sum := decimal.Zero

	_ = r.s.read(r.inTx, func(d *data) error {
		for listingID, recs := range d.prices {
			l, ok := d.listings[listingID]
			if !ok || l.Category != category {
				continue
			}
			for _, rec := range recs {
				if stats.Count == 0 || rec.Price.LessThan(stats.Min) {
					stats.Min = rec.Price
				}
				if stats.Count == 0 || rec.Price.GreaterThan(stats.Max) {
					stats.Max = rec.Price
				}
				sum = sum.Add(rec.Price)
				stats.Count++
			}
		}
		return nil
	})

	if stats.Count > 0 {
		stats.Average = sum.Div(decimal.NewFromInt(int64(stats.Count)))
	}

	return stats, nil
}
