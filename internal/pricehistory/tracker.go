// AngelaMos | 2026
// tracker.go

package pricehistory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

// Tracker keeps a listing's price intervals contiguous with at most one
// open interval. Mutations take the caller's unit of work so they commit
// together with the listing write that caused them.
type Tracker struct {
	repo  Repository
	repos RepositoryFactory
}

func NewTracker(db core.DBTX, repos RepositoryFactory) *Tracker {
	if repos == nil {
		repos = NewRepository
	}
	return &Tracker{repo: repos(db), repos: repos}
}

// OpenInterval starts a new interval at `at`. An already open interval is a
// programming error and reported as ErrConflict.
func (t *Tracker) OpenInterval(
	ctx context.Context,
	tx core.DBTX,
	listingID string,
	price decimal.Decimal,
	at time.Time,
) (*Record, error) {
	repo := t.repos(tx)

	open, err := repo.LockOpen(ctx, listingID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, fmt.Errorf(
			"open price interval: listing %s already has open interval %s: %w",
			listingID, open.ID, core.ErrConflict,
		)
	}

	rec := &Record{
		ID:        uuid.New().String(),
		ListingID: listingID,
		Price:     price,
		StartDate: at,
	}
	if err := repo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// CloseOpenInterval ends the open interval at `at`. Nothing open is fine.
func (t *Tracker) CloseOpenInterval(
	ctx context.Context,
	tx core.DBTX,
	listingID string,
	at time.Time,
) error {
	_, err := closeOpen(ctx, t.repos(tx), listingID, at)
	return err
}

// Reprice closes the current interval and opens the next one at the same
// instant, so the history never has a gap or two open intervals.
func (t *Tracker) Reprice(
	ctx context.Context,
	tx core.DBTX,
	listingID string,
	price decimal.Decimal,
	at time.Time,
) (*Record, error) {
	closedAt, err := closeOpen(ctx, t.repos(tx), listingID, at)
	if err != nil {
		return nil, err
	}
	return t.OpenInterval(ctx, tx, listingID, price, closedAt)
}

// closeOpen closes the open interval and reports the instant it was closed
// at, which never precedes the interval's start.
func closeOpen(
	ctx context.Context,
	repo Repository,
	listingID string,
	at time.Time,
) (time.Time, error) {
	open, err := repo.LockOpen(ctx, listingID)
	if errors.Is(err, core.ErrNotFound) {
		return at, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	if at.Before(open.StartDate) {
		at = open.StartDate
	}

	if err := repo.Close(ctx, open.ID, at); err != nil {
		return time.Time{}, err
	}

	return at, nil
}

func (t *Tracker) History(
	ctx context.Context,
	listingID string,
	params HistoryParams,
) ([]Record, int, error) {
	params.Normalize()
	return t.repo.List(ctx, listingID, params.PageSize, params.Offset())
}

// CategoryStats aggregates interval prices across a category. The average is
// rounded to cents.
func (t *Tracker) CategoryStats(ctx context.Context, category string) (*CategoryStats, error) {
	stats, err := t.repo.StatsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	stats.Average = stats.Average.Round(2)
	return stats, nil
}
