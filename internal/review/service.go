// AngelaMos | 2026
// service.go

package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/events"
	"github.com/carterperez-dev/templates/campus-market/internal/metrics"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

var tracer = otel.Tracer("campus-market/review")

type ServiceConfig struct {
	Tx           core.Transactor
	DB           core.DBTX
	Repos        RepositoryFactory
	Transactions transaction.RepositoryFactory
	UserRepos    user.RepositoryFactory
	Events       events.Publisher
	Metrics      *metrics.Engine
	Logger       *slog.Logger
}

// Service records reviews and keeps each profile's average rating equal to
// the mean of the reviews it received. The average is rewritten in the
// same unit of work as the review change, under the profile's row lock.
type Service struct {
	tx           core.Transactor
	repo         Repository
	repos        RepositoryFactory
	transactions transaction.RepositoryFactory
	userRepos    user.RepositoryFactory
	events       events.Publisher
	metrics      *metrics.Engine
	logger       *slog.Logger
	validator    *validator.Validate
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		tx:           cfg.Tx,
		repos:        cfg.Repos,
		transactions: cfg.Transactions,
		userRepos:    cfg.UserRepos,
		events:       cfg.Events,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		validator:    validator.New(validator.WithRequiredStructEnabled()),
	}

	if s.repos == nil {
		s.repos = NewRepository
	}
	if s.transactions == nil {
		s.transactions = transaction.NewRepository
	}
	if s.userRepos == nil {
		s.userRepos = user.NewRepository
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.repo = s.repos(cfg.DB)

	return s
}

// Submit records actingUserID's review of the other party on a completed
// transaction and refreshes the reviewee's average.
func (s *Service) Submit(
	ctx context.Context,
	actingUserID string,
	in SubmitInput,
) (_ *Review, err error) {
	ctx, span := tracer.Start(ctx, "review.Submit")
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("review.submit", time.Now(), &err)

	if err := core.Validate(s.validator, "submit review", in); err != nil {
		return nil, err
	}

	var (
		created *Review
		average float64
	)

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		t, err := s.transactions(tx).GetByID(ctx, in.TransactionID)
		if err != nil {
			return err
		}
		if t.Status != transaction.StatusCompleted {
			return fmt.Errorf(
				"submit review: transaction is %s, not completed: %w",
				t.Status, core.ErrInvalidInput,
			)
		}

		reviewerID, revieweeID := parties(t, in.Direction)
		if actingUserID != reviewerID {
			return fmt.Errorf("submit review: not the %s party: %w", in.Direction, core.ErrForbidden)
		}

		users := s.userRepos(tx)
		if err := lockReviewee(ctx, users, revieweeID, in.Direction); err != nil {
			return err
		}

		rv := &Review{
			ID:            uuid.New().String(),
			TransactionID: t.ID,
			Direction:     in.Direction,
			ReviewerID:    reviewerID,
			RevieweeID:    revieweeID,
			Rating:        in.Rating,
			Comment:       in.Comment,
		}
		if err := s.repos(tx).Create(ctx, rv); err != nil {
			return err
		}

		avg, err := s.recompute(ctx, tx, revieweeID, in.Direction)
		if err != nil {
			return err
		}

		created, average = rv, avg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.ReviewSubmitted, created, average)

	return created, nil
}

// Update lets the original reviewer change the rating or comment.
func (s *Service) Update(
	ctx context.Context,
	actingUserID, reviewID string,
	in UpdateInput,
) (_ *Review, err error) {
	ctx, span := tracer.Start(ctx, "review.Update")
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("review.update", time.Now(), &err)

	if err := core.Validate(s.validator, "update review", in); err != nil {
		return nil, err
	}

	snapshot, err := s.authorize(ctx, "update review", actingUserID, reviewID)
	if err != nil {
		return nil, err
	}

	var (
		updated *Review
		average float64
	)

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		err := lockReviewee(ctx, s.userRepos(tx), snapshot.RevieweeID, snapshot.Direction)
		if err != nil {
			return err
		}

		repo := s.repos(tx)
		rv, err := repo.LockByID(ctx, reviewID)
		if err != nil {
			return err
		}

		if in.Rating != nil {
			rv.Rating = *in.Rating
		}
		if in.Comment != nil {
			rv.Comment = in.Comment
		}
		if err := repo.Update(ctx, rv); err != nil {
			return err
		}

		avg, err := s.recompute(ctx, tx, rv.RevieweeID, rv.Direction)
		if err != nil {
			return err
		}

		updated, average = rv, avg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.ReviewUpdated, updated, average)

	return updated, nil
}

// Delete lets the original reviewer withdraw the review.
func (s *Service) Delete(ctx context.Context, actingUserID, reviewID string) (err error) {
	ctx, span := tracer.Start(ctx, "review.Delete")
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("review.delete", time.Now(), &err)

	snapshot, err := s.authorize(ctx, "delete review", actingUserID, reviewID)
	if err != nil {
		return err
	}

	var average float64

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		err := lockReviewee(ctx, s.userRepos(tx), snapshot.RevieweeID, snapshot.Direction)
		if err != nil {
			return err
		}

		repo := s.repos(tx)
		if _, err := repo.LockByID(ctx, reviewID); err != nil {
			return err
		}
		if err := repo.Delete(ctx, reviewID); err != nil {
			return err
		}

		avg, err := s.recompute(ctx, tx, snapshot.RevieweeID, snapshot.Direction)
		if err != nil {
			return err
		}

		average = avg
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.ReviewDeleted, snapshot, average)

	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByTransaction(ctx context.Context, transactionID string) ([]Review, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}

// ListForSeller returns the reviews buyers left for sellerID.
func (s *Service) ListForSeller(
	ctx context.Context,
	sellerID string,
	params ListParams,
) ([]Review, int, error) {
	params.Normalize()
	return s.repo.ListByReviewee(ctx, sellerID, BuyerToSeller, params.PageSize, params.Offset())
}

// ListForBuyer returns the reviews sellers left for buyerID.
func (s *Service) ListForBuyer(
	ctx context.Context,
	buyerID string,
	params ListParams,
) ([]Review, int, error) {
	params.Normalize()
	return s.repo.ListByReviewee(ctx, buyerID, SellerToBuyer, params.PageSize, params.Offset())
}

func (s *Service) authorize(
	ctx context.Context,
	op, actingUserID, reviewID string,
) (*Review, error) {
	rv, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rv.ReviewerID != actingUserID {
		return nil, fmt.Errorf("%s: %w", op, core.ErrForbidden)
	}
	return rv, nil
}

// recompute rewrites the reviewee's average from the full review set.
func (s *Service) recompute(
	ctx context.Context,
	tx core.DBTX,
	revieweeID string,
	direction Direction,
) (float64, error) {
	avg, err := s.repos(tx).AverageFor(ctx, revieweeID, direction)
	if err != nil {
		return 0, err
	}

	users := s.userRepos(tx)
	if direction == BuyerToSeller {
		err = users.SetSellerRating(ctx, revieweeID, avg)
	} else {
		err = users.SetBuyerRating(ctx, revieweeID, avg)
	}
	if err != nil {
		return 0, err
	}

	return avg, nil
}

func lockReviewee(
	ctx context.Context,
	users user.Repository,
	revieweeID string,
	direction Direction,
) error {
	var err error
	if direction == BuyerToSeller {
		_, err = users.LockSellerProfile(ctx, revieweeID)
	} else {
		_, err = users.LockBuyerProfile(ctx, revieweeID)
	}
	if err != nil {
		return fmt.Errorf("lock reviewee profile: %w", err)
	}
	return nil
}

// parties returns who writes and who receives a review in direction.
func parties(t *transaction.Transaction, direction Direction) (reviewer, reviewee string) {
	if direction == BuyerToSeller {
		return t.BuyerID, t.SellerID
	}
	return t.SellerID, t.BuyerID
}

func (s *Service) emit(ctx context.Context, eventType string, rv *Review, average float64) {
	events.Emit(ctx, s.events, s.logger, eventType, events.ReviewEvent{
		ReviewID:      rv.ID,
		TransactionID: rv.TransactionID,
		Direction:     string(rv.Direction),
		RevieweeID:    rv.RevieweeID,
		Rating:        rv.Rating,
		Average:       average,
	})
}
