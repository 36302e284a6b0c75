// AngelaMos | 2026
// listings.go

package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
)

type listingRepo struct {
	s    *Store
	inTx bool
}

func (s *Store) ListingRepos() listing.RepositoryFactory {
	return func(db core.DBTX) listing.Repository {
		return &listingRepo{s: s, inTx: inTx(db)}
	}
}

func (r *listingRepo) Create(ctx context.Context, l *listing.Listing) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.sellers[l.SellerID]; !ok {
			return fmt.Errorf("create listing: seller profile %s missing", l.SellerID)
		}
		now := d.now()
		l.CreatedAt, l.UpdatedAt = now, now
		stored := *l
		stored.CourseIDs = nil
		d.listings[l.ID] = stored
		return nil
	})
}

func (r *listingRepo) GetByID(_ context.Context, id string) (*listing.Listing, error) {
	return r.get("get listing", id)
}

func (r *listingRepo) LockByID(_ context.Context, id string) (*listing.Listing, error) {
	return r.get("lock listing", id)
}

func (r *listingRepo) get(op, id string) (*listing.Listing, error) {
	var out *listing.Listing
	err := r.s.read(r.inTx, func(d *data) error {
		l, ok := d.listings[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, core.ErrNotFound)
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *listingRepo) Update(ctx context.Context, l *listing.Listing) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		stored, ok := d.listings[l.ID]
		if !ok {
			return fmt.Errorf("update listing: %w", core.ErrNotFound)
		}
		stored.Title = l.Title
		stored.Description = l.Description
		stored.Category = l.Category
		stored.Condition = l.Condition
		stored.OriginalPrice = l.OriginalPrice
		stored.SellingPrice = l.SellingPrice
		stored.UpdatedAt = d.now()
		l.UpdatedAt = stored.UpdatedAt
		d.listings[l.ID] = stored
		return nil
	})
}

func (r *listingRepo) SetStatus(
	ctx context.Context,
	id string,
	status listing.Status,
	buyerID *string,
) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if (status == listing.StatusSold) != (buyerID != nil) {
			return fmt.Errorf("set listing status: buyer must be set exactly when sold")
		}
		l, ok := d.listings[id]
		if !ok {
			return fmt.Errorf("set listing status: %w", core.ErrNotFound)
		}
		l.Status = status
		l.BuyerID = nil
		if buyerID != nil {
			b := *buyerID
			l.BuyerID = &b
		}
		l.UpdatedAt = d.now()
		d.listings[id] = l
		return nil
	})
}

// Delete cascades the way the schema's foreign keys do.
func (r *listingRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.listings[id]; !ok {
			return fmt.Errorf("delete listing: %w", core.ErrNotFound)
		}
		delete(d.listings, id)
		delete(d.listingCourses, id)
		delete(d.prices, id)
		for imgID, img := range d.images {
			if img.ListingID == id {
				delete(d.images, imgID)
			}
		}
		for key := range d.wishlist {
			if key.listingID == id {
				delete(d.wishlist, key)
			}
		}
		for txID, t := range d.transactions {
			if t.ListingID != id {
				continue
			}
			delete(d.transactions, txID)
			for rvID, rv := range d.reviews {
				if rv.TransactionID == txID {
					delete(d.reviews, rvID)
				}
			}
		}
		return nil
	})
}

func (r *listingRepo) List(
	_ context.Context,
	params listing.ListParams,
) ([]listing.Listing, int, error) {
	params.Normalize()
	search := strings.ToLower(params.Search)

	var matched []listing.Listing
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, l := range d.listings {
			switch {
			case params.Category != "" && l.Category != params.Category,
				params.Condition != "" && l.Condition != params.Condition,
				params.Status != "" && l.Status != params.Status,
				params.SellerID != "" && l.SellerID != params.SellerID:
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(l.Title), search) &&
				!strings.Contains(strings.ToLower(l.Description), search) {
				continue
			}
			matched = append(matched, l)
		}
		return nil
	})

	sortListings(matched)
	return page(matched, params.PageSize, params.Offset()), len(matched), nil
}

func (r *listingRepo) ListByIDs(_ context.Context, ids []string) ([]listing.Listing, error) {
	out := []listing.Listing{}
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, id := range ids {
			if l, ok := d.listings[id]; ok {
				out = append(out, l)
			}
		}
		return nil
	})
	sortListings(out)
	return out, nil
}

func sortListings(items []listing.Listing) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func (r *listingRepo) CountByStatus(context.Context) (map[listing.Status]int, error) {
	counts := map[listing.Status]int{}
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, l := range d.listings {
			counts[l.Status]++
		}
		return nil
	})
	return counts, nil
}

func (r *listingRepo) CountActiveTransactions(
	_ context.Context,
	listingID, excludeTxID string,
) (int, error) {
	n := 0
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, t := range d.transactions {
			if t.ListingID == listingID && t.ID != excludeTxID && t.Status.IsActive() {
				n++
			}
		}
		return nil
	})
	return n, nil
}

func (r *listingRepo) CountDisputedTransactions(_ context.Context, listingID string) (int, error) {
	n := 0
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, t := range d.transactions {
			if t.ListingID == listingID && t.Status == transaction.StatusDisputed {
				n++
			}
		}
		return nil
	})
	return n, nil
}

func (r *listingRepo) SetCourses(ctx context.Context, listingID string, courseIDs []string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		seen := map[string]struct{}{}
		ids := []string{}
		for _, id := range courseIDs {
			if _, ok := d.courses[id]; !ok {
				return fmt.Errorf("attach listing course: unknown course %s", id)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		sort.Strings(ids)
		if len(ids) == 0 {
			delete(d.listingCourses, listingID)
			return nil
		}
		d.listingCourses[listingID] = ids
		return nil
	})
}

func (r *listingRepo) CourseIDs(_ context.Context, listingID string) ([]string, error) {
	var ids []string
	_ = r.s.read(r.inTx, func(d *data) error {
		ids = append(ids, d.listingCourses[listingID]...)
		return nil
	})
	return ids, nil
}

func (r *listingRepo) AddImage(ctx context.Context, img *listing.Image) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.listings[img.ListingID]; !ok {
			return fmt.Errorf("add listing image: listing %s missing", img.ListingID)
		}
		img.UploadedAt = d.now()
		d.images[img.ID] = *img
		return nil
	})
}

func (r *listingRepo) ClearPrimaryImage(ctx context.Context, listingID string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		for id, img := range d.images {
			if img.ListingID == listingID && img.IsPrimary {
				img.IsPrimary = false
				d.images[id] = img
			}
		}
		return nil
	})
}

func (r *listingRepo) DeleteImage(ctx context.Context, listingID, imageID string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		img, ok := d.images[imageID]
		if !ok || img.ListingID != listingID {
			return fmt.Errorf("delete listing image: %w", core.ErrNotFound)
		}
		delete(d.images, imageID)
		return nil
	})
}

func (r *listingRepo) Images(_ context.Context, listingID string) ([]listing.Image, error) {
	out := []listing.Image{}
	_ = r.s.read(r.inTx, func(d *data) error {
		for _, img := range d.images {
			if img.ListingID == listingID {
				out = append(out, img)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}
