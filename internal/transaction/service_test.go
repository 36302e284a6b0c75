// AngelaMos | 2026
// service_test.go

package transaction_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/memstore"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

var userSeq atomic.Int64

func mustUser(t *testing.T, m *memstore.Market, role string) *user.User {
	t.Helper()

	n := userSeq.Add(1)
	u, err := m.Users.Create(context.Background(), user.CreateInput{
		Email:    fmt.Sprintf("tx%d@campus.test", n),
		Password: "correct-horse-battery",
		Name:     fmt.Sprintf("Trader %d", n),
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func mustListing(t *testing.T, m *memstore.Market, sellerID, price string) *listing.Listing {
	t.Helper()

	l, err := m.Listings.Create(context.Background(), sellerID, listing.Draft{
		Title:         "Graphing calculator",
		Category:      listing.CategoryElectronics,
		Condition:     listing.ConditionLikeNew,
		OriginalPrice: decimal.RequireFromString("150"),
		SellingPrice:  decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return l
}

// barrier holds the first InTx of `parties` callers until all of them
// arrive, so each has already read its snapshot.
type barrier struct {
	inner core.Transactor
	armed atomic.Bool
	wg    sync.WaitGroup
}

func (b *barrier) arm(parties int) {
	b.wg.Add(parties)
	b.armed.Store(true)
}

func (b *barrier) InTx(ctx context.Context, fn func(tx core.DBTX) error) error {
	if b.armed.Load() {
		b.wg.Done()
		b.wg.Wait()
	}
	return b.inner.InTx(ctx, fn)
}

func TestOpen_ReservesListing(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "45.50")

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusPending, tx.Status)
	assert.Equal(t, seller.ID, tx.SellerID)
	assert.Equal(t, buyer.ID, tx.BuyerID)
	assert.True(t, tx.AgreedPrice.Equal(decimal.RequireFromString("45.50")))

	got, err := m.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusReserved, got.Status)
}

func TestOpen_ConcurrentBuyersOneWins(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	l := mustListing(t, m, seller.ID, "20")

	const buyers = 8
	ids := make([]string, buyers)
	for i := range ids {
		ids[i] = mustUser(t, m, user.RoleBuyer).ID
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
		start     = make(chan struct{})
	)

	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := m.Transactions.Open(ctx, id, l.ID)
			switch {
			case err == nil:
				successes.Add(1)
			case core.Kind(err) == "conflict":
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(buyers-1), conflicts.Load())

	got, err := m.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusReserved, got.Status)
	assert.Equal(t, map[transaction.Status]int{transaction.StatusPending: 1}, m.Store.TransactionsFor(l.ID))
}

func TestOpen_OwnListingIsBadRequest(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleBoth)
	l := mustListing(t, m, seller.ID, "20")

	_, err := m.Transactions.Open(ctx, seller.ID, l.ID)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	got, err := m.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusAvailable, got.Status)
	assert.Empty(t, m.Store.TransactionsFor(l.ID))
}

func TestOpen_Rejections(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	suspended := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "20")

	_, err := m.Users.UpdateStatus(ctx, suspended.ID, user.UpdateStatusInput{Status: user.StatusSuspended})
	require.NoError(t, err)

	_, err = m.Transactions.Open(ctx, "ghost", l.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = m.Transactions.Open(ctx, buyer.ID, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = m.Transactions.Open(ctx, suspended.ID, l.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	assert.Empty(t, m.Store.TransactionsFor(l.ID))
}

func TestOpen_SellerGainsBuyerProfile(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	sellerTurnedBuyer := mustUser(t, m, user.RoleSeller)
	l := mustListing(t, m, seller.ID, "20")

	_, err := m.Users.GetBuyerProfile(ctx, sellerTurnedBuyer.ID)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = m.Transactions.Open(ctx, sellerTurnedBuyer.ID, l.ID)
	require.NoError(t, err)

	_, err = m.Users.GetBuyerProfile(ctx, sellerTurnedBuyer.ID)
	require.NoError(t, err)

	u, err := m.Users.Get(ctx, sellerTurnedBuyer.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleBoth, u.Role)
}

func TestAdvance_CompletionMarksSold(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "75")

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)

	tx, err = m.Transactions.Advance(ctx, tx.ID, seller.ID, transaction.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusConfirmed, tx.Status)

	tx, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, tx.Status)
	require.NotNil(t, tx.CompletedAt)

	got, err := m.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusSold, got.Status)
	require.NotNil(t, got.BuyerID)
	assert.Equal(t, buyer.ID, *got.BuyerID)
	assert.Equal(t, 0, m.Store.OpenPriceIntervals(l.ID))

	sp, err := m.Users.GetSellerProfile(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sp.TotalSales)

	bp, err := m.Users.GetBuyerProfile(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bp.TotalPurchases)
}

func TestAdvance_IllegalTransitions(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	stranger := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "75")

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)

	_, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusCompleted)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusDisputed)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = m.Transactions.Advance(ctx, tx.ID, stranger.ID, transaction.StatusConfirmed)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = m.Transactions.Advance(ctx, "missing", buyer.ID, transaction.StatusConfirmed)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusCancelled)
	require.NoError(t, err)

	_, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusConfirmed)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	got, err := m.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusAvailable, got.Status)
}

func TestAdvance_CancelReleasesForNextBuyer(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	first := mustUser(t, m, user.RoleBuyer)
	second := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "75")

	tx, err := m.Transactions.Open(ctx, first.ID, l.ID)
	require.NoError(t, err)
	_, err = m.Transactions.Advance(ctx, tx.ID, seller.ID, transaction.StatusConfirmed)
	require.NoError(t, err)
	_, err = m.Transactions.Advance(ctx, tx.ID, seller.ID, transaction.StatusCancelled)
	require.NoError(t, err)

	next, err := m.Transactions.Open(ctx, second.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, next.Status)

	assert.Equal(t, map[transaction.Status]int{
		transaction.StatusCancelled: 1,
		transaction.StatusPending:   1,
	}, m.Store.TransactionsFor(l.ID))

	items, total, err := m.Transactions.ListByListing(ctx, l.ID, transaction.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, next.ID, items[0].ID)
}

func TestAdvance_DisputeKeepsSale(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "75")

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)
	_, err = m.Transactions.Advance(ctx, tx.ID, seller.ID, transaction.StatusConfirmed)
	require.NoError(t, err)
	completed, err := m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusCompleted)
	require.NoError(t, err)

	disputed, err := m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusDisputed)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusDisputed, disputed.Status)
	require.NotNil(t, disputed.CompletedAt)
	assert.Equal(t, *completed.CompletedAt, *disputed.CompletedAt)

	got, err := m.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusSold, got.Status)

	sp, err := m.Users.GetSellerProfile(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sp.TotalSales)
}

func TestAdvance_ConcurrentChangeIsConflict(t *testing.T) {
	ctx := context.Background()
	b := &barrier{}
	m := memstore.NewMarket(memstore.MarketOptions{
		WrapTx: func(inner core.Transactor) core.Transactor {
			b.inner = inner
			return b
		},
	})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "75")

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)
	_, err = m.Transactions.Advance(ctx, tx.ID, seller.ID, transaction.StatusConfirmed)
	require.NoError(t, err)

	b.arm(2)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	moves := []struct {
		actor string
		to    transaction.Status
	}{
		{buyer.ID, transaction.StatusCompleted},
		{seller.ID, transaction.StatusCancelled},
	}
	for i, mv := range moves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = m.Transactions.Advance(ctx, tx.ID, mv.actor, mv.to)
		}()
	}
	wg.Wait()
	b.armed.Store(false)

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, core.ErrConflict)
		lost++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	final, err := m.Transactions.Get(ctx, tx.ID, buyer.ID)
	require.NoError(t, err)

	got, err := m.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	switch final.Status {
	case transaction.StatusCompleted:
		assert.Equal(t, listing.StatusSold, got.Status)
	case transaction.StatusCancelled:
		assert.Equal(t, listing.StatusAvailable, got.Status)
	default:
		t.Fatalf("unexpected final status %s", final.Status)
	}
}

func TestScheduleMeeting(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	stranger := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "75")

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)

	at := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)
	scheduled, err := m.Transactions.ScheduleMeeting(ctx, tx.ID, seller.ID, transaction.MeetingInput{
		Location: "Student union, north entrance",
		At:       &at,
	})
	require.NoError(t, err)
	require.NotNil(t, scheduled.MeetingLocation)
	assert.Equal(t, "Student union, north entrance", *scheduled.MeetingLocation)

	got, err := m.Transactions.Get(ctx, tx.ID, buyer.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MeetingAt)
	assert.True(t, at.Equal(*got.MeetingAt))

	_, err = m.Transactions.ScheduleMeeting(ctx, tx.ID, stranger.ID, transaction.MeetingInput{Location: "Gym"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = m.Transactions.ScheduleMeeting(ctx, tx.ID, buyer.ID, transaction.MeetingInput{Location: ""})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusCancelled)
	require.NoError(t, err)

	_, err = m.Transactions.ScheduleMeeting(ctx, tx.ID, buyer.ID, transaction.MeetingInput{Location: "Library"})
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestGet_PartiesOnly(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	stranger := mustUser(t, m, user.RoleBuyer)
	l := mustListing(t, m, seller.ID, "75")

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)

	_, err = m.Transactions.Get(ctx, tx.ID, seller.ID)
	assert.NoError(t, err)

	_, err = m.Transactions.Get(ctx, tx.ID, stranger.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	bought, total, err := m.Transactions.ListByBuyer(ctx, buyer.ID, transaction.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, tx.ID, bought[0].ID)

	_, total, err = m.Transactions.ListBySeller(ctx, seller.ID, transaction.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	stats, err := m.Transactions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[transaction.StatusPending])
}

func TestListCompletedSales(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)

	var sold []string
	for range 2 {
		l := mustListing(t, m, seller.ID, "30")
		tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
		require.NoError(t, err)
		_, err = m.Transactions.Advance(ctx, tx.ID, seller.ID, transaction.StatusConfirmed)
		require.NoError(t, err)
		_, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusCompleted)
		require.NoError(t, err)
		sold = append(sold, tx.ID)
	}

	pending := mustListing(t, m, seller.ID, "30")
	_, err := m.Transactions.Open(ctx, buyer.ID, pending.ID)
	require.NoError(t, err)

	items, total, err := m.Transactions.ListCompletedSales(ctx, seller.ID, transaction.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, sold[1], items[0].ID)
	assert.Equal(t, sold[0], items[1].ID)
	for _, it := range items {
		assert.Equal(t, transaction.StatusCompleted, it.Status)
	}

	page, total, err := m.Transactions.ListCompletedSales(ctx, seller.ID, transaction.ListParams{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, sold[0], page[0].ID)

	_, total, err = m.Transactions.ListCompletedSales(ctx, buyer.ID, transaction.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = m.Transactions.ListBySeller(ctx, seller.ID, transaction.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
