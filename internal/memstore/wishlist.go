// AngelaMos | 2026
// wishlist.go

package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/wishlist"
)

type wishlistRepo struct {
	s *Store
}

func (s *Store) Wishlist() wishlist.Repository {
	return &wishlistRepo{s: s}
}

func (r *wishlistRepo) Add(ctx context.Context, userID, listingID string) error {
	return r.s.write(ctx, false, func(d *data) error {
		if _, ok := d.users[userID]; !ok {
			return fmt.Errorf("add wishlist entry: user %s: %w", userID, core.ErrNotFound)
		}
		if _, ok := d.listings[listingID]; !ok {
			return fmt.Errorf("add wishlist entry: listing %s: %w", listingID, core.ErrNotFound)
		}
		key := wishKey{userID: userID, listingID: listingID}
		if _, ok := d.wishlist[key]; !ok {
			d.wishlist[key] = d.now()
		}
		return nil
	})
}

func (r *wishlistRepo) Remove(ctx context.Context, userID, listingID string) error {
	return r.s.write(ctx, false, func(d *data) error {
		delete(d.wishlist, wishKey{userID: userID, listingID: listingID})
		return nil
	})
}

func (r *wishlistRepo) ListingIDs(_ context.Context, userID string) ([]string, error) {
	type entry struct {
		id string
		at int64
	}
	var entries []entry
	_ = r.s.read(false, func(d *data) error {
		for key, at := range d.wishlist {
			if key.userID == userID {
				entries = append(entries, entry{id: key.listingID, at: at.UnixNano()})
			}
		}
		return nil
	})

	sort.Slice(entries, func(i, j int) bool { return entries[i].at > entries[j].at })

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids, nil
}

func (r *wishlistRepo) Contains(_ context.Context, userID, listingID string) (bool, error) {
	var ok bool
	_ = r.s.read(false, func(d *data) error {
		_, ok = d.wishlist[wishKey{userID: userID, listingID: listingID}]
		return nil
	})
	return ok, nil
}
