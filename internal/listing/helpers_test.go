// AngelaMos | 2026
// helpers_test.go

package listing_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/memstore"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

var userSeq atomic.Int64

type recordedEvent struct {
	Type string
	Data any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func mustUser(t *testing.T, m *memstore.Market, role string) *user.User {
	t.Helper()

	n := userSeq.Add(1)
	u, err := m.Users.Create(context.Background(), user.CreateInput{
		Email:    fmt.Sprintf("student%d@campus.test", n),
		Password: "correct-horse-battery",
		Name:     fmt.Sprintf("Student %d", n),
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func mustListing(t *testing.T, m *memstore.Market, sellerID, price string) *listing.Listing {
	t.Helper()

	l, err := m.Listings.Create(context.Background(), sellerID, draft(price))
	require.NoError(t, err)
	return l
}

func draft(price string) listing.Draft {
	return listing.Draft{
		Title:         "Linear Algebra, 5th edition",
		Description:   "Lightly highlighted",
		Category:      listing.CategoryTextbooks,
		Condition:     listing.ConditionGood,
		OriginalPrice: decimal.RequireFromString("120"),
		SellingPrice:  decimal.RequireFromString(price),
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptr[T any](v T) *T {
	return &v
}

// racingCache is an in-process cache whose next Set first runs beforeSet,
// standing in for a writer that commits between the store read and the fill.
type racingCache struct {
	mu        sync.Mutex
	entries   map[string]listing.Listing
	beforeSet func()
}

func newRacingCache() *racingCache {
	return &racingCache{entries: map[string]listing.Listing{}}
}

func (c *racingCache) Get(_ context.Context, id string) (*listing.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (c *racingCache) Set(_ context.Context, l *listing.Listing) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()

	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[l.ID] = *l
	return nil
}

func (c *racingCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}
