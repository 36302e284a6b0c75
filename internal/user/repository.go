// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateRole(ctx context.Context, id, role string) error
	UpdateStatus(ctx context.Context, id, status string) error

	GetSellerProfile(ctx context.Context, userID string) (*SellerProfile, error)
	LockSellerProfile(ctx context.Context, userID string) (*SellerProfile, error)
	CreateSellerProfile(ctx context.Context, userID string) error
	IncrementTotalSales(ctx context.Context, userID string) error
	SetSellerRating(ctx context.Context, userID string, avg float64) error

	GetBuyerProfile(ctx context.Context, userID string) (*BuyerProfile, error)
	LockBuyerProfile(ctx context.Context, userID string) (*BuyerProfile, error)
	CreateBuyerProfile(ctx context.Context, userID string) error
	IncrementTotalPurchases(ctx context.Context, userID string) error
	SetBuyerRating(ctx context.Context, userID string, avg float64) error
}

// RepositoryFactory binds a Repository to a connection or an open unit of
// work.
type RepositoryFactory func(db core.DBTX) Repository

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.Status,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w: %w", core.ErrConflict, core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, password_hash, name, role, status, created_at, updated_at
		FROM users
		WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", core.TranslateStoreError(err))
	}

	return &user, nil
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		err = core.TranslateStoreError(err)
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update role", query, id, role)
}

func (r *repository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "update status", query, id, status)
}

func (r *repository) GetSellerProfile(
	ctx context.Context,
	userID string,
) (*SellerProfile, error) {
	return r.getSeller(ctx, "get seller profile", `
		SELECT user_id, total_sales, average_rating, created_at, updated_at
		FROM seller_profiles
		WHERE user_id = $1`, userID)
}

func (r *repository) LockSellerProfile(
	ctx context.Context,
	userID string,
) (*SellerProfile, error) {
	return r.getSeller(ctx, "lock seller profile", `
		SELECT user_id, total_sales, average_rating, created_at, updated_at
		FROM seller_profiles
		WHERE user_id = $1
		FOR UPDATE`, userID)
}

func (r *repository) getSeller(
	ctx context.Context,
	op, query, userID string,
) (*SellerProfile, error) {
	var profile SellerProfile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.TranslateStoreError(err))
	}

	return &profile, nil
}

func (r *repository) CreateSellerProfile(ctx context.Context, userID string) error {
	query := `
		INSERT INTO seller_profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("create seller profile: %w", err)
	}

	return nil
}

func (r *repository) IncrementTotalSales(ctx context.Context, userID string) error {
	query := `
		UPDATE seller_profiles
		SET total_sales = total_sales + 1, updated_at = NOW()
		WHERE user_id = $1`

	return r.execOne(ctx, "increment total sales", query, userID)
}

func (r *repository) SetSellerRating(
	ctx context.Context,
	userID string,
	avg float64,
) error {
	query := `
		UPDATE seller_profiles
		SET average_rating = $2, updated_at = NOW()
		WHERE user_id = $1`

	return r.execOne(ctx, "set seller rating", query, userID, avg)
}

func (r *repository) GetBuyerProfile(
	ctx context.Context,
	userID string,
) (*BuyerProfile, error) {
	return r.getBuyer(ctx, "get buyer profile", `
		SELECT user_id, total_purchases, average_rating, created_at, updated_at
		FROM buyer_profiles
		WHERE user_id = $1`, userID)
}

func (r *repository) LockBuyerProfile(
	ctx context.Context,
	userID string,
) (*BuyerProfile, error) {
	return r.getBuyer(ctx, "lock buyer profile", `
		SELECT user_id, total_purchases, average_rating, created_at, updated_at
		FROM buyer_profiles
		WHERE user_id = $1
		FOR UPDATE`, userID)
}

func (r *repository) getBuyer(
	ctx context.Context,
	op, query, userID string,
) (*BuyerProfile, error) {
	var profile BuyerProfile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.TranslateStoreError(err))
	}

	return &profile, nil
}

func (r *repository) CreateBuyerProfile(ctx context.Context, userID string) error {
	query := `
		INSERT INTO buyer_profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("create buyer profile: %w", err)
	}

	return nil
}

func (r *repository) IncrementTotalPurchases(ctx context.Context, userID string) error {
	query := `
		UPDATE buyer_profiles
		SET total_purchases = total_purchases + 1, updated_at = NOW()
		WHERE user_id = $1`

	return r.execOne(ctx, "increment total purchases", query, userID)
}

func (r *repository) SetBuyerRating(
	ctx context.Context,
	userID string,
	avg float64,
) error {
	query := `
		UPDATE buyer_profiles
		SET average_rating = $2, updated_at = NOW()
		WHERE user_id = $1`

	return r.execOne(ctx, "set buyer rating", query, userID, avg)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
