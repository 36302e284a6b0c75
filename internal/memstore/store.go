// AngelaMos | 2026
// store.go

// Package memstore is an in-memory ledger implementing every repository of
// the engine. Units of work run one at a time against a staged copy that is
// swapped in on commit, so readers outside a unit of work never observe a
// partial write. That gives the same observable guarantees as row locks in
// PostgreSQL. It backs the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/course"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/pricehistory"
	"github.com/carterperez-dev/templates/campus-market/internal/review"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

// handle is the core.DBTX given to repository factories. Its SQL methods
// must not be called; memstore repositories only read inTx.
type handle struct {
	*sqlx.DB
	inTx bool
}

func inTx(db core.DBTX) bool {
	h, ok := db.(*handle)
	return ok && h.inTx
}

type wishKey struct {
	userID    string
	listingID string
}

type data struct {
	users          map[string]user.User
	sellers        map[string]user.SellerProfile
	buyers         map[string]user.BuyerProfile
	courses        map[string]course.Course
	listings       map[string]listing.Listing
	listingCourses map[string][]string
	images         map[string]listing.Image
	prices         map[string][]pricehistory.Record
	transactions   map[string]transaction.Transaction
	reviews        map[string]review.Review
	wishlist       map[wishKey]time.Time

	last time.Time
}

func newData() *data {
	return &data{
		users:          map[string]user.User{},
		sellers:        map[string]user.SellerProfile{},
		buyers:         map[string]user.BuyerProfile{},
		courses:        map[string]course.Course{},
		listings:       map[string]listing.Listing{},
		listingCourses: map[string][]string{},
		images:         map[string]listing.Image{},
		prices:         map[string][]pricehistory.Record{},
		transactions:   map[string]transaction.Transaction{},
		reviews:        map[string]review.Review{},
		wishlist:       map[wishKey]time.Time{},
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.sellers {
		c.sellers[k] = v
	}
	for k, v := range d.buyers {
		c.buyers[k] = v
	}
	for k, v := range d.courses {
		c.courses[k] = v
	}
	for k, v := range d.listings {
		c.listings[k] = v
	}
	for k, v := range d.listingCourses {
		c.listingCourses[k] = append([]string(nil), v...)
	}
	for k, v := range d.images {
		c.images[k] = v
	}
	for k, v := range d.prices {
		c.prices[k] = append([]pricehistory.Record(nil), v...)
	}
	for k, v := range d.transactions {
		c.transactions[k] = v
	}
	for k, v := range d.reviews {
		c.reviews[k] = v
	}
	for k, v := range d.wishlist {
		c.wishlist[k] = v
	}
	c.last = d.last
	return c
}

// now returns a strictly increasing timestamp so created_at orderings are
// deterministic.
func (d *data) now() time.Time {
	t := time.Now().UTC()
	if !t.After(d.last) {
		t = d.last.Add(time.Microsecond)
	}
	d.last = t
	return t
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	d    *data
	// staged is the in-flight unit of work's copy, nil between units.
	staged *data

	outside *handle
	inside  *handle
}

func New() *Store {
	return &Store{
		d:       newData(),
		outside: &handle{},
		inside:  &handle{inTx: true},
	}
}

// DB is the handle services use outside a unit of work.
func (s *Store) DB() core.DBTX {
	return s.outside
}

// InTx runs fn exclusively on a staged copy of the ledger and publishes it
// only when fn succeeds. A failing or panicking fn leaves the ledger as it
// was.
func (s *Store) InTx(ctx context.Context, fn func(tx core.DBTX) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	work := s.d.clone()
	s.staged = work
	s.mu.Unlock()

	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			s.staged = nil
			s.mu.Unlock()
		}
	}()

	if err := fn(s.inside); err != nil {
		return err
	}

	s.mu.Lock()
	s.d = work
	s.staged = nil
	s.mu.Unlock()
	committed = true

	return nil
}

// read runs fn against the staged copy for repositories bound to a unit of
// work, and against the committed ledger otherwise.
func (s *Store) read(tx bool, fn func(d *data) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.view(tx))
}

func (s *Store) view(tx bool) *data {
	if tx && s.staged != nil {
		return s.staged
	}
	return s.d
}

// write applies fn to the staged copy inside a unit of work, or as its own
// unit of work otherwise.
func (s *Store) write(ctx context.Context, tx bool, fn func(d *data) error) error {
	if !tx {
		return s.InTx(ctx, func(core.DBTX) error { return s.write(ctx, true, fn) })
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.view(true))
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func sortByCreatedDesc[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}

// OpenPriceIntervals counts the listing's price records without a final date.
func (s *Store) OpenPriceIntervals(listingID string) int {
	n := 0
	_ = s.read(false, func(d *data) error {
		for _, rec := range d.prices[listingID] {
			if rec.IsOpen() {
				n++
			}
		}
		return nil
	})
	return n
}

// TransactionsFor counts the listing's transactions per status.
func (s *Store) TransactionsFor(listingID string) map[transaction.Status]int {
	counts := map[transaction.Status]int{}
	_ = s.read(false, func(d *data) error {
		for _, t := range d.transactions {
			if t.ListingID == listingID {
				counts[t.Status]++
			}
		}
		return nil
	})
	return counts
}
