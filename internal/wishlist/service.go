// AngelaMos | 2026
// service.go

package wishlist

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
)

type Listings interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
	ListByIDs(ctx context.Context, ids []string) ([]listing.Listing, error)
}

type Users interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// Service keeps the (user, listing) bookmark set. Add and Remove are
// idempotent.
type Service struct {
	repo     Repository
	listings Listings
	users    Users
}

func NewService(repo Repository, listings Listings, users Users) *Service {
	return &Service{repo: repo, listings: listings, users: users}
}

func (s *Service) Add(ctx context.Context, userID, listingID string) error {
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	if !ok {
		return fmt.Errorf("add to wishlist: user %s: %w", userID, core.ErrNotFound)
	}

	if _, err := s.listings.Get(ctx, listingID); err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return s.repo.Add(ctx, userID, listingID)
}

func (s *Service) Remove(ctx context.Context, userID, listingID string) error {
	return s.repo.Remove(ctx, userID, listingID)
}

// List returns the bookmarked listings, most recently added first.
func (s *Service) List(ctx context.Context, userID string) ([]listing.Listing, error) {
	ids, err := s.repo.ListingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	found, err := s.listings.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]listing.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}

	out := make([]listing.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}

	return out, nil
}

func (s *Service) Contains(ctx context.Context, userID, listingID string) (bool, error) {
	return s.repo.Contains(ctx, userID, listingID)
}
