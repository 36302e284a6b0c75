// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type ServiceConfig struct {
	Tx    core.Transactor
	DB    core.DBTX
	Repos RepositoryFactory
}

// Service is the user directory: identity records plus the per-role
// profiles created the first time a user acts in that role.
type Service struct {
	tx        core.Transactor
	repo      Repository
	repos     RepositoryFactory
	validator *validator.Validate
}

func NewService(cfg ServiceConfig) *Service {
	repos := cfg.Repos
	if repos == nil {
		repos = NewRepository
	}

	return &Service{
		tx:        cfg.Tx,
		repo:      repos(cfg.DB),
		repos:     repos,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if err := core.Validate(s.validator, "create user", in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Name:         in.Name,
		Role:         in.Role,
		Status:       StatusActive,
	}

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		if user.CanSell() {
			if err := repo.CreateSellerProfile(ctx, user.ID); err != nil {
				return err
			}
		}
		if user.CanBuy() {
			if err := repo.CreateBuyerProfile(ctx, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// CheckPassword confirms password for an active user. Any mismatch, including
// an inactive account, is reported as unauthorized.
func (s *Service) CheckPassword(ctx context.Context, id, password string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("check password: %w", err)
	}
	if !ok || !u.IsActive() {
		return fmt.Errorf("check password: %w", core.ErrUnauthorized)
	}

	return nil
}

func (s *Service) UserExists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) GetSellerProfile(
	ctx context.Context,
	userID string,
) (*SellerProfile, error) {
	return s.repo.GetSellerProfile(ctx, userID)
}

func (s *Service) GetBuyerProfile(
	ctx context.Context,
	userID string,
) (*BuyerProfile, error) {
	return s.repo.GetBuyerProfile(ctx, userID)
}

// EnsureSellerProfile creates the seller profile if missing and widens the
// user's role. Calling it again is a no-op.
func (s *Service) EnsureSellerProfile(
	ctx context.Context,
	userID string,
) (*SellerProfile, error) {
	var profile *SellerProfile

	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)
		if err := EnsureRole(ctx, repo, userID, RoleSeller); err != nil {
			return err
		}

		p, err := repo.GetSellerProfile(ctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *Service) EnsureBuyerProfile(
	ctx context.Context,
	userID string,
) (*BuyerProfile, error) {
	var profile *BuyerProfile

	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)
		if err := EnsureRole(ctx, repo, userID, RoleBuyer); err != nil {
			return err
		}

		p, err := repo.GetBuyerProfile(ctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *Service) UpdateStatus(
	ctx context.Context,
	id string,
	in UpdateStatusInput,
) (*User, error) {
	if err := core.Validate(s.validator, "update status", in); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, in.Status); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// EnsureRole creates the profile backing role (seller or buyer) inside an
// open unit of work and promotes the stored role when needed.
func EnsureRole(ctx context.Context, repo Repository, userID, role string) error {
	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	switch role {
	case RoleSeller:
		err = repo.CreateSellerProfile(ctx, userID)
	case RoleBuyer:
		err = repo.CreateBuyerProfile(ctx, userID)
	default:
		return fmt.Errorf("ensure role: unknown role %q: %w", role, core.ErrInvalidInput)
	}
	if err != nil {
		return err
	}

	if next := promotedRole(u.Role, role); next != u.Role {
		return repo.UpdateRole(ctx, userID, next)
	}

	return nil
}
