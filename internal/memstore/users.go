// AngelaMos | 2026
// users.go

package memstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

type userRepo struct {
	s    *Store
	inTx bool
}

func (s *Store) UserRepos() user.RepositoryFactory {
	return func(db core.DBTX) user.Repository {
		return &userRepo{s: s, inTx: inTx(db)}
	}
}

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return fmt.Errorf("create user: %w: %w", core.ErrConflict, core.ErrDuplicateKey)
			}
		}
		now := d.now()
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	var out *user.User
	err := r.s.read(r.inTx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return fmt.Errorf("get user: %w", core.ErrNotFound)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) Exists(_ context.Context, id string) (bool, error) {
	var ok bool
	_ = r.s.read(r.inTx, func(d *data) error {
		_, ok = d.users[id]
		return nil
	})
	return ok, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id, role string) error {
	return r.updateUser(ctx, "update role", id, func(u *user.User) { u.Role = role })
}

func (r *userRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.updateUser(ctx, "update status", id, func(u *user.User) { u.Status = status })
}

func (r *userRepo) updateUser(
	ctx context.Context,
	op, id string,
	mutate func(u *user.User),
) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, core.ErrNotFound)
		}
		mutate(&u)
		u.UpdatedAt = d.now()
		d.users[id] = u
		return nil
	})
}

func (r *userRepo) GetSellerProfile(_ context.Context, userID string) (*user.SellerProfile, error) {
	var out *user.SellerProfile
	err := r.s.read(r.inTx, func(d *data) error {
		p, ok := d.sellers[userID]
		if !ok {
			return fmt.Errorf("get seller profile: %w", core.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *userRepo) LockSellerProfile(ctx context.Context, userID string) (*user.SellerProfile, error) {
	return r.GetSellerProfile(ctx, userID)
}

func (r *userRepo) CreateSellerProfile(ctx context.Context, userID string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.sellers[userID]; ok {
			return nil
		}
		if _, ok := d.users[userID]; !ok {
			return fmt.Errorf("create seller profile: unknown user %s", userID)
		}
		now := d.now()
		d.sellers[userID] = user.SellerProfile{UserID: userID, CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

func (r *userRepo) IncrementTotalSales(ctx context.Context, userID string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		p, ok := d.sellers[userID]
		if !ok {
			return fmt.Errorf("increment total sales: %w", core.ErrNotFound)
		}
		p.TotalSales++
		p.UpdatedAt = d.now()
		d.sellers[userID] = p
		return nil
	})
}

func (r *userRepo) SetSellerRating(ctx context.Context, userID string, avg float64) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		p, ok := d.sellers[userID]
		if !ok {
			return fmt.Errorf("set seller rating: %w", core.ErrNotFound)
		}
		p.AverageRating = avg
		p.UpdatedAt = d.now()
		d.sellers[userID] = p
		return nil
	})
}

func (r *userRepo) GetBuyerProfile(_ context.Context, userID string) (*user.BuyerProfile, error) {
	var out *user.BuyerProfile
	err := r.s.read(r.inTx, func(d *data) error {
		p, ok := d.buyers[userID]
		if !ok {
			return fmt.Errorf("get buyer profile: %w", core.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *userRepo) LockBuyerProfile(ctx context.Context, userID string) (*user.BuyerProfile, error) {
	return r.GetBuyerProfile(ctx, userID)
}

func (r *userRepo) CreateBuyerProfile(ctx context.Context, userID string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		if _, ok := d.buyers[userID]; ok {
			return nil
		}
		if _, ok := d.users[userID]; !ok {
			return fmt.Errorf("create buyer profile: unknown user %s", userID)
		}
		now := d.now()
		d.buyers[userID] = user.BuyerProfile{UserID: userID, CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

func (r *userRepo) IncrementTotalPurchases(ctx context.Context, userID string) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		p, ok := d.buyers[userID]
		if !ok {
			return fmt.Errorf("increment total purchases: %w", core.ErrNotFound)
		}
		p.TotalPurchases++
		p.UpdatedAt = d.now()
		d.buyers[userID] = p
		return nil
	})
}

func (r *userRepo) SetBuyerRating(ctx context.Context, userID string, avg float64) error {
	return r.s.write(ctx, r.inTx, func(d *data) error {
		p, ok := d.buyers[userID]
		if !ok {
			return fmt.Errorf("set buyer rating: %w", core.ErrNotFound)
		}
		p.AverageRating = avg
		p.UpdatedAt = d.now()
		d.buyers[userID] = p
		return nil
	})
}
