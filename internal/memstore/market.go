// AngelaMos | 2026
// market.go

package memstore

import (
	"time"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/course"
	"github.com/carterperez-dev/templates/campus-market/internal/events"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/pricehistory"
	"github.com/carterperez-dev/templates/campus-market/internal/review"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
	"github.com/carterperez-dev/templates/campus-market/internal/wishlist"
)

type MarketOptions struct {
	Cache  listing.Cache
	Events events.Publisher
	Now    func() time.Time
	// WrapTx decorates the transactor handed to the transaction service.
	WrapTx func(core.Transactor) core.Transactor
}

// Market is the whole engine wired over one in-memory ledger.
type Market struct {
	Store        *Store
	Users        *user.Service
	Courses      *course.Service
	Listings     *listing.Service
	Transactions *transaction.Service
	Reviews      *review.Service
	Wishlist     *wishlist.Service
}

func NewMarket(opts MarketOptions) *Market {
	s := New()

	var txTx core.Transactor = s
	if opts.WrapTx != nil {
		txTx = opts.WrapTx(s)
	}

	users := user.NewService(user.ServiceConfig{
		Tx:    s,
		DB:    s.DB(),
		Repos: s.UserRepos(),
	})
	courses := course.NewService(s.Courses())

	listings := listing.NewService(listing.ServiceConfig{
		Tx:      s,
		DB:      s.DB(),
		Repos:   s.ListingRepos(),
		Prices:  pricehistory.NewTracker(s.DB(), s.PriceRepos()),
		Sellers: users,
		Courses: courses,
		Cache:   opts.Cache,
		Events:  opts.Events,
		Now:     opts.Now,
	})

	transactions := transaction.NewService(transaction.ServiceConfig{
		Tx:        txTx,
		DB:        s.DB(),
		Repos:     s.TransactionRepos(),
		UserRepos: s.UserRepos(),
		Listings:  listings,
		Events:    opts.Events,
		Now:       opts.Now,
	})

	reviews := review.NewService(review.ServiceConfig{
		Tx:           s,
		DB:           s.DB(),
		Repos:        s.ReviewRepos(),
		Transactions: s.TransactionRepos(),
		UserRepos:    s.UserRepos(),
		Events:       opts.Events,
	})

	return &Market{
		Store:        s,
		Users:        users,
		Courses:      courses,
		Listings:     listings,
		Transactions: transactions,
		Reviews:      reviews,
		Wishlist:     wishlist.NewService(s.Wishlist(), listings, users),
	}
}
