// AngelaMos | 2026
// service.go

package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/events"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/metrics"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

var tracer = otel.Tracer("campus-market/transaction")

// Listings is the part of the listing lifecycle the orchestrator drives.
// Every method except Forget runs inside the caller's unit of work.
type Listings interface {
	Lock(ctx context.Context, tx core.DBTX, listingID string) (*listing.Listing, error)
	Reserve(ctx context.Context, tx core.DBTX, listingID string) (*listing.Listing, error)
	MarkSold(ctx context.Context, tx core.DBTX, listingID, buyerID string) (*listing.Listing, error)
	Release(ctx context.Context, tx core.DBTX, listingID, transactionID string) (bool, error)
	Forget(ctx context.Context, listingID string)
}

type ServiceConfig struct {
	Tx        core.Transactor
	DB        core.DBTX
	Repos     RepositoryFactory
	UserRepos user.RepositoryFactory
	Listings  Listings
	Events    events.Publisher
	Metrics   *metrics.Engine
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service opens and advances transactions, keeping the listing status and
// the profile counters in step with the transaction status.
type Service struct {
	tx        core.Transactor
	repo      Repository
	repos     RepositoryFactory
	userRepos user.RepositoryFactory
	listings  Listings
	events    events.Publisher
	metrics   *metrics.Engine
	logger    *slog.Logger
	now       func() time.Time
	validator *validator.Validate
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		tx:        cfg.Tx,
		repos:     cfg.Repos,
		userRepos: cfg.UserRepos,
		listings:  cfg.Listings,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}

	if s.repos == nil {
		s.repos = NewRepository
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
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	s.repo = s.repos(cfg.DB)

	return s
}

// Open reserves an available listing for buyerID and records a pending
// transaction at the listing's current selling price. Of two concurrent
// opens on one listing exactly one succeeds; the other gets ErrConflict.
func (s *Service) Open(
	ctx context.Context,
	buyerID, listingID string,
) (_ *Transaction, err error) {
	ctx, span := tracer.Start(ctx, "transaction.Open", trace.WithAttributes(
		attribute.String("listing.id", listingID),
	))
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("transaction.open", time.Now(), &err)

	var opened *Transaction

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		users := s.userRepos(tx)

		buyer, err := users.GetByID(ctx, buyerID)
		if err != nil {
			return fmt.Errorf("open transaction: buyer: %w", err)
		}
		if !buyer.IsActive() {
			return fmt.Errorf("open transaction: buyer is %s: %w", buyer.Status, core.ErrForbidden)
		}

		l, err := s.listings.Lock(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if l.Status != listing.StatusAvailable {
			return fmt.Errorf("open transaction: listing is %s: %w", l.Status, core.ErrConflict)
		}
		if l.SellerID == buyerID {
			return fmt.Errorf("open transaction: cannot buy own listing: %w", core.ErrInvalidInput)
		}

		if err := user.EnsureRole(ctx, users, buyerID, user.RoleBuyer); err != nil {
			return err
		}

		if _, err := s.listings.Reserve(ctx, tx, listingID); err != nil {
			return err
		}

		t := &Transaction{
			ID:          uuid.New().String(),
			ListingID:   l.ID,
			BuyerID:     buyerID,
			SellerID:    l.SellerID,
			AgreedPrice: l.SellingPrice,
			Status:      StatusPending,
		}
		if err := s.repos(tx).Create(ctx, t); err != nil {
			return err
		}

		opened = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.listings.Forget(ctx, listingID)
	s.metrics.Transition("none", string(StatusPending))
	s.emit(ctx, events.TransactionOpened, opened, "")

	return opened, nil
}

// Advance moves the transaction to status `to` on behalf of one of its
// parties. The transition is validated against a snapshot and re-checked
// under the row lock; a status that moved in between yields ErrConflict.
func (s *Service) Advance(
	ctx context.Context,
	transactionID, requesterID string,
	to Status,
) (_ *Transaction, err error) {
	ctx, span := tracer.Start(ctx, "transaction.Advance", trace.WithAttributes(
		attribute.String("transaction.id", transactionID),
		attribute.String("transaction.to", string(to)),
	))
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("transaction.advance", time.Now(), &err)

	snapshot, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !snapshot.IsParty(requesterID) {
		return nil, fmt.Errorf("advance transaction: %w", core.ErrForbidden)
	}

	from := snapshot.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf(
			"advance transaction: cannot move from %s to %s: %w",
			from, to, core.ErrInvalidInput,
		)
	}

	var (
		advanced       *Transaction
		listingChanged bool
	)

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		if _, err := s.listings.Lock(ctx, tx, snapshot.ListingID); err != nil {
			return err
		}

		repo := s.repos(tx)
		t, err := repo.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.Status != from {
			return fmt.Errorf(
				"advance transaction: status changed to %s concurrently: %w",
				t.Status, core.ErrConflict,
			)
		}

		if to == StatusCompleted {
			if err := s.complete(ctx, tx, t); err != nil {
				return err
			}
			listingChanged = true
		}

		if err := repo.UpdateStatus(ctx, t.ID, to, t.CompletedAt); err != nil {
			return err
		}
		t.Status = to

		if to == StatusCancelled {
			released, err := s.listings.Release(ctx, tx, t.ListingID, t.ID)
			if err != nil {
				return err
			}
			listingChanged = released
		}

		advanced = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if listingChanged {
		s.listings.Forget(ctx, advanced.ListingID)
	}
	s.metrics.Transition(string(from), string(to))
	s.emit(ctx, events.TransactionStatusChanged, advanced, from)

	return advanced, nil
}

// complete marks the listing sold and bumps both parties' counters inside
// the caller's unit of work.
func (s *Service) complete(ctx context.Context, tx core.DBTX, t *Transaction) error {
	if _, err := s.listings.MarkSold(ctx, tx, t.ListingID, t.BuyerID); err != nil {
		return err
	}

	users := s.userRepos(tx)
	if err := users.IncrementTotalSales(ctx, t.SellerID); err != nil {
		return err
	}
	if err := users.IncrementTotalPurchases(ctx, t.BuyerID); err != nil {
		return err
	}

	now := s.now()
	t.CompletedAt = &now
	return nil
}

// ScheduleMeeting records where and when the parties meet. Only open
// transactions can be rescheduled.
func (s *Service) ScheduleMeeting(
	ctx context.Context,
	transactionID, requesterID string,
	in MeetingInput,
) (_ *Transaction, err error) {
	ctx, span := tracer.Start(ctx, "transaction.ScheduleMeeting")
	defer func() { core.EndSpan(span, err) }()

	if err := core.Validate(s.validator, "schedule meeting", in); err != nil {
		return nil, err
	}

	var scheduled *Transaction

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)

		t, err := repo.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if !t.IsParty(requesterID) {
			return fmt.Errorf("schedule meeting: %w", core.ErrForbidden)
		}
		if !t.Status.IsActive() {
			return fmt.Errorf("schedule meeting: transaction is %s: %w", t.Status, core.ErrConflict)
		}

		if err := repo.UpdateMeeting(ctx, t.ID, in.Location, in.At); err != nil {
			return err
		}

		location := in.Location
		t.MeetingLocation = &location
		t.MeetingAt = in.At
		scheduled = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return scheduled, nil
}

// Get returns the transaction to one of its parties.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(requesterID) {
		return nil, fmt.Errorf("get transaction: %w", core.ErrForbidden)
	}
	return t, nil
}

func (s *Service) ListByBuyer(
	ctx context.Context,
	buyerID string,
	params ListParams,
) ([]Transaction, int, error) {
	params.Normalize()
	return s.repo.ListByBuyer(ctx, buyerID, params.PageSize, params.Offset())
}

func (s *Service) ListBySeller(
	ctx context.Context,
	sellerID string,
	params ListParams,
) ([]Transaction, int, error) {
	params.Normalize()
	return s.repo.ListBySeller(ctx, sellerID, params.PageSize, params.Offset())
}

// ListCompletedSales returns sellerID's completed transactions, newest first.
func (s *Service) ListCompletedSales(
	ctx context.Context,
	sellerID string,
	params ListParams,
) ([]Transaction, int, error) {
	params.Normalize()
	return s.repo.ListBySellerInStatus(ctx, sellerID, StatusCompleted, params.PageSize, params.Offset())
}

func (s *Service) ListByListing(
	ctx context.Context,
	listingID string,
	params ListParams,
) ([]Transaction, int, error) {
	params.Normalize()
	return s.repo.ListByListing(ctx, listingID, params.PageSize, params.Offset())
}

func (s *Service) Stats(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) emit(ctx context.Context, eventType string, t *Transaction, from Status) {
	events.Emit(ctx, s.events, s.logger, eventType, events.TransactionEvent{
		TransactionID: t.ID,
		ListingID:     t.ListingID,
		BuyerID:       t.BuyerID,
		SellerID:      t.SellerID,
		From:          string(from),
		To:            string(t.Status),
	})
}
