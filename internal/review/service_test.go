// AngelaMos | 2026
// service_test.go

package review_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/memstore"
	"github.com/carterperez-dev/templates/campus-market/internal/review"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

var userSeq atomic.Int64

type sale struct {
	m      *memstore.Market
	seller *user.User
	buyer  *user.User
	tx     *transaction.Transaction
}

func mustUser(t *testing.T, m *memstore.Market, role string) *user.User {
	t.Helper()

	n := userSeq.Add(1)
	u, err := m.Users.Create(context.Background(), user.CreateInput{
		Email:    fmt.Sprintf("rv%d@campus.test", n),
		Password: "correct-horse-battery",
		Name:     fmt.Sprintf("Reviewer %d", n),
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

// mustSale runs a listing through to a transaction in status `until`.
func mustSale(
	t *testing.T,
	m *memstore.Market,
	seller, buyer *user.User,
	until transaction.Status,
) *transaction.Transaction {
	t.Helper()
	ctx := context.Background()

	l, err := m.Listings.Create(ctx, seller.ID, listing.Draft{
		Title:         "Lab coat, size M",
		Category:      listing.CategoryClothing,
		Condition:     listing.ConditionGood,
		OriginalPrice: decimal.RequireFromString("40"),
		SellingPrice:  decimal.RequireFromString("15"),
	})
	require.NoError(t, err)

	tx, err := m.Transactions.Open(ctx, buyer.ID, l.ID)
	require.NoError(t, err)
	if until == transaction.StatusPending {
		return tx
	}

	tx, err = m.Transactions.Advance(ctx, tx.ID, seller.ID, transaction.StatusConfirmed)
	require.NoError(t, err)
	if until == transaction.StatusConfirmed {
		return tx
	}

	tx, err = m.Transactions.Advance(ctx, tx.ID, buyer.ID, transaction.StatusCompleted)
	require.NoError(t, err)
	return tx
}

func newSale(t *testing.T) sale {
	t.Helper()

	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)

	return sale{
		m:      m,
		seller: seller,
		buyer:  buyer,
		tx:     mustSale(t, m, seller, buyer, transaction.StatusCompleted),
	}
}

func sellerRating(t *testing.T, m *memstore.Market, sellerID string) float64 {
	t.Helper()
	p, err := m.Users.GetSellerProfile(context.Background(), sellerID)
	require.NoError(t, err)
	return p.AverageRating
}

func buyerRating(t *testing.T, m *memstore.Market, buyerID string) float64 {
	t.Helper()
	p, err := m.Users.GetBuyerProfile(context.Background(), buyerID)
	require.NoError(t, err)
	return p.AverageRating
}

func TestSubmit_SetsSellerAverage(t *testing.T) {
	ctx := context.Background()
	s := newSale(t)

	assert.Zero(t, sellerRating(t, s.m, s.seller.ID))

	rv, err := s.m.Reviews.Submit(ctx, s.buyer.ID, review.SubmitInput{
		TransactionID: s.tx.ID,
		Direction:     review.BuyerToSeller,
		Rating:        4,
	})
	require.NoError(t, err)
	assert.Equal(t, s.seller.ID, rv.RevieweeID)
	assert.Equal(t, s.buyer.ID, rv.ReviewerID)
	assert.InDelta(t, 4.0, sellerRating(t, s.m, s.seller.ID), 1e-9)

	_, err = s.m.Reviews.Submit(ctx, s.buyer.ID, review.SubmitInput{
		TransactionID: s.tx.ID,
		Direction:     review.BuyerToSeller,
		Rating:        1,
	})
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.InDelta(t, 4.0, sellerRating(t, s.m, s.seller.ID), 1e-9)
}

func TestSubmit_AverageIsMeanAcrossSales(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)

	for _, rating := range []int{5, 4, 2} {
		buyer := mustUser(t, m, user.RoleBuyer)
		tx := mustSale(t, m, seller, buyer, transaction.StatusCompleted)

		_, err := m.Reviews.Submit(ctx, buyer.ID, review.SubmitInput{
			TransactionID: tx.ID,
			Direction:     review.BuyerToSeller,
			Rating:        rating,
		})
		require.NoError(t, err)
	}

	assert.InDelta(t, 11.0/3.0, sellerRating(t, m, seller.ID), 1e-9)

	reviews, total, err := m.Reviews.ListForSeller(ctx, seller.ID, review.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, reviews, 3)
}

func TestSubmit_BothDirectionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := newSale(t)

	_, err := s.m.Reviews.Submit(ctx, s.buyer.ID, review.SubmitInput{
		TransactionID: s.tx.ID,
		Direction:     review.BuyerToSeller,
		Rating:        5,
	})
	require.NoError(t, err)

	_, err = s.m.Reviews.Submit(ctx, s.seller.ID, review.SubmitInput{
		TransactionID: s.tx.ID,
		Direction:     review.SellerToBuyer,
		Rating:        3,
		Comment:       new(string),
	})
	require.NoError(t, err)

	assert.InDelta(t, 5.0, sellerRating(t, s.m, s.seller.ID), 1e-9)
	assert.InDelta(t, 3.0, buyerRating(t, s.m, s.buyer.ID), 1e-9)

	reviews, err := s.m.Reviews.ListByTransaction(ctx, s.tx.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestSubmit_Rejections(t *testing.T) {
	ctx := context.Background()
	m := memstore.NewMarket(memstore.MarketOptions{})
	seller := mustUser(t, m, user.RoleSeller)
	buyer := mustUser(t, m, user.RoleBuyer)
	stranger := mustUser(t, m, user.RoleBuyer)

	completed := mustSale(t, m, seller, buyer, transaction.StatusCompleted)
	confirmed := mustSale(t, m, seller, buyer, transaction.StatusConfirmed)

	tests := []struct {
		name  string
		actor string
		in    review.SubmitInput
		want  error
	}{
		{
			name:  "not completed",
			actor: buyer.ID,
			in:    review.SubmitInput{TransactionID: confirmed.ID, Direction: review.BuyerToSeller, Rating: 4},
			want:  core.ErrInvalidInput,
		},
		{
			name:  "stranger",
			actor: stranger.ID,
			in:    review.SubmitInput{TransactionID: completed.ID, Direction: review.BuyerToSeller, Rating: 4},
			want:  core.ErrForbidden,
		},
		{
			name:  "wrong direction for actor",
			actor: buyer.ID,
			in:    review.SubmitInput{TransactionID: completed.ID, Direction: review.SellerToBuyer, Rating: 4},
			want:  core.ErrForbidden,
		},
		{
			name:  "rating out of range",
			actor: buyer.ID,
			in:    review.SubmitInput{TransactionID: completed.ID, Direction: review.BuyerToSeller, Rating: 6},
			want:  core.ErrInvalidInput,
		},
		{
			name:  "unknown direction",
			actor: buyer.ID,
			in:    review.SubmitInput{TransactionID: completed.ID, Direction: "sideways", Rating: 3},
			want:  core.ErrInvalidInput,
		},
		{
			name:  "missing transaction",
			actor: buyer.ID,
			in:    review.SubmitInput{TransactionID: "missing", Direction: review.BuyerToSeller, Rating: 3},
			want:  core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Reviews.Submit(ctx, tt.actor, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, sellerRating(t, m, seller.ID))
}

func TestUpdate_RecomputesAverage(t *testing.T) {
	ctx := context.Background()
	s := newSale(t)

	rv, err := s.m.Reviews.Submit(ctx, s.buyer.ID, review.SubmitInput{
		TransactionID: s.tx.ID,
		Direction:     review.BuyerToSeller,
		Rating:        2,
	})
	require.NoError(t, err)

	five := 5
	comment := "Replied quickly, item as described"
	updated, err := s.m.Reviews.Update(ctx, s.buyer.ID, rv.ID, review.UpdateInput{Rating: &five, Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	require.NotNil(t, updated.Comment)
	assert.Equal(t, comment, *updated.Comment)
	assert.InDelta(t, 5.0, sellerRating(t, s.m, s.seller.ID), 1e-9)

	_, err = s.m.Reviews.Update(ctx, s.seller.ID, rv.ID, review.UpdateInput{Rating: &five})
	assert.ErrorIs(t, err, core.ErrForbidden)

	zero := 0
	_, err = s.m.Reviews.Update(ctx, s.buyer.ID, rv.ID, review.UpdateInput{Rating: &zero})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestDelete_ResetsAverage(t *testing.T) {
	ctx := context.Background()
	s := newSale(t)

	rv, err := s.m.Reviews.Submit(ctx, s.buyer.ID, review.SubmitInput{
		TransactionID: s.tx.ID,
		Direction:     review.BuyerToSeller,
		Rating:        3,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.m.Reviews.Delete(ctx, s.seller.ID, rv.ID), core.ErrForbidden)

	require.NoError(t, s.m.Reviews.Delete(ctx, s.buyer.ID, rv.ID))
	assert.Zero(t, sellerRating(t, s.m, s.seller.ID))

	_, err = s.m.Reviews.Get(ctx, rv.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.m.Reviews.Submit(ctx, s.buyer.ID, review.SubmitInput{
		TransactionID: s.tx.ID,
		Direction:     review.BuyerToSeller,
		Rating:        4,
	})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, sellerRating(t, s.m, s.seller.ID), 1e-9)
}
