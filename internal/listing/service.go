// AngelaMos | 2026
// service.go

package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/course"
	"github.com/carterperez-dev/templates/campus-market/internal/events"
	"github.com/carterperez-dev/templates/campus-market/internal/metrics"
	"github.com/carterperez-dev/templates/campus-market/internal/pricehistory"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

var tracer = otel.Tracer("campus-market/listing")

type SellerDirectory interface {
	GetSellerProfile(ctx context.Context, userID string) (*user.SellerProfile, error)
}

type CourseCatalog interface {
	CoursesByIDs(ctx context.Context, ids []string) ([]course.Course, error)
}

type ServiceConfig struct {
	Tx      core.Transactor
	DB      core.DBTX
	Repos   RepositoryFactory
	Prices  *pricehistory.Tracker
	Sellers SellerDirectory
	Courses CourseCatalog
	Cache   Cache
	Events  events.Publisher
	Metrics *metrics.Engine
	Logger  *slog.Logger
	Now     func() time.Time
}

// Service owns listing availability and its price history. Reserve,
// MarkSold and Release run inside a unit of work opened by the transaction
// orchestrator.
type Service struct {
	tx        core.Transactor
	repo      Repository
	repos     RepositoryFactory
	prices    *pricehistory.Tracker
	sellers   SellerDirectory
	courses   CourseCatalog
	cache     Cache
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
		prices:    cfg.Prices,
		sellers:   cfg.Sellers,
		courses:   cfg.Courses,
		cache:     cfg.Cache,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}

	if s.repos == nil {
		s.repos = NewRepository
	}
	if s.prices == nil {
		s.prices = pricehistory.NewTracker(cfg.DB, nil)
	}
	if s.cache == nil {
		s.cache = NoopCache{}
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

func (s *Service) Create(
	ctx context.Context,
	sellerID string,
	d Draft,
) (_ *Listing, err error) {
	ctx, span := tracer.Start(ctx, "listing.Create")
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("listing.create", time.Now(), &err)

	if err := core.Validate(s.validator, "create listing", d); err != nil {
		return nil, err
	}
	if err := d.checkPrices(); err != nil {
		return nil, err
	}

	if _, err := s.sellers.GetSellerProfile(ctx, sellerID); err != nil {
		return nil, fmt.Errorf("create listing: seller %s: %w", sellerID, err)
	}

	courseIDs, _ := s.resolveCourses(ctx, d.CourseIDs)

	l := &Listing{
		ID:            uuid.New().String(),
		SellerID:      sellerID,
		Title:         d.Title,
		Description:   d.Description,
		Category:      d.Category,
		Condition:     d.Condition,
		OriginalPrice: d.OriginalPrice,
		SellingPrice:  d.SellingPrice,
		Status:        StatusAvailable,
		CourseIDs:     courseIDs,
	}

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)
		if err := repo.Create(ctx, l); err != nil {
			return err
		}
		if _, err := s.prices.OpenInterval(ctx, tx, l.ID, l.SellingPrice, s.now()); err != nil {
			return err
		}
		if len(courseIDs) > 0 {
			return repo.SetCourses(ctx, l.ID, courseIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.ListingCreated, l)

	return l, nil
}

// Update applies patch as the owning seller. A changed selling price
// rotates the open price interval in the same unit of work.
func (s *Service) Update(
	ctx context.Context,
	listingID, requesterID string,
	patch Patch,
) (_ *Listing, err error) {
	ctx, span := tracer.Start(ctx, "listing.Update")
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("listing.update", time.Now(), &err)

	if err := core.Validate(s.validator, "update listing", patch); err != nil {
		return nil, err
	}
	if err := patch.checkPrices(); err != nil {
		return nil, err
	}

	var (
		courseIDs  []string
		setCourses bool
	)
	if patch.CourseIDs != nil {
		courseIDs, setCourses = s.resolveCourses(ctx, *patch.CourseIDs)
	}

	var (
		updated  *Listing
		repriced bool
	)

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)

		l, err := repo.LockByID(ctx, listingID)
		if err != nil {
			return err
		}
		if !l.IsOwnedBy(requesterID) {
			return fmt.Errorf("update listing: %w", core.ErrForbidden)
		}
		if !l.IsEditable() {
			return fmt.Errorf("update listing: listing is %s: %w", l.Status, core.ErrConflict)
		}

		repriced = patch.apply(l)
		if repriced && l.Status == StatusReserved {
			return fmt.Errorf(
				"update listing: price is fixed while a transaction is open: %w",
				core.ErrConflict,
			)
		}

		if err := repo.Update(ctx, l); err != nil {
			return err
		}
		if repriced {
			if _, err := s.prices.Reprice(ctx, tx, l.ID, l.SellingPrice, s.now()); err != nil {
				return err
			}
		}
		if setCourses {
			if err := repo.SetCourses(ctx, l.ID, courseIDs); err != nil {
				return err
			}
		}

		ids, err := repo.CourseIDs(ctx, l.ID)
		if err != nil {
			return err
		}
		l.CourseIDs = ids

		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Forget(ctx, listingID)
	if repriced {
		s.metrics.PriceChanged()
		s.emit(ctx, events.ListingPriceChanged, updated)
	}

	return updated, nil
}

// Delete removes the listing with its images, price history, course tags
// and wishlist entries. Sold listings stay as part of the sales record.
func (s *Service) Delete(ctx context.Context, listingID, requesterID string) (err error) {
	ctx, span := tracer.Start(ctx, "listing.Delete")
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("listing.delete", time.Now(), &err)

	var deleted *Listing

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)

		l, err := repo.LockByID(ctx, listingID)
		if err != nil {
			return err
		}
		if !l.IsOwnedBy(requesterID) {
			return fmt.Errorf("delete listing: %w", core.ErrForbidden)
		}
		if l.Status == StatusSold {
			return fmt.Errorf("delete listing: listing is sold: %w", core.ErrConflict)
		}

		active, err := repo.CountActiveTransactions(ctx, listingID, "")
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf(
				"delete listing: %d active transaction(s): %w",
				active, core.ErrConflict,
			)
		}

		disputed, err := repo.CountDisputedTransactions(ctx, listingID)
		if err != nil {
			return err
		}
		if disputed > 0 {
			return fmt.Errorf(
				"delete listing: %d disputed transaction(s): %w",
				disputed, core.ErrConflict,
			)
		}

		if err := repo.Delete(ctx, listingID); err != nil {
			return err
		}

		deleted = l
		return nil
	})
	if err != nil {
		return err
	}

	s.Forget(ctx, listingID)
	s.emit(ctx, events.ListingDeleted, deleted)

	return nil
}

// Delist withdraws an available listing. Delisted is terminal.
func (s *Service) Delist(
	ctx context.Context,
	listingID, requesterID string,
) (_ *Listing, err error) {
	ctx, span := tracer.Start(ctx, "listing.Delist")
	defer func() { core.EndSpan(span, err) }()
	defer s.metrics.Observe("listing.delist", time.Now(), &err)

	var delisted *Listing

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)

		l, err := repo.LockByID(ctx, listingID)
		if err != nil {
			return err
		}
		if !l.IsOwnedBy(requesterID) {
			return fmt.Errorf("delist listing: %w", core.ErrForbidden)
		}
		if l.Status != StatusAvailable {
			return fmt.Errorf("delist listing: listing is %s: %w", l.Status, core.ErrConflict)
		}

		active, err := repo.CountActiveTransactions(ctx, listingID, "")
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("delist listing: active transaction exists: %w", core.ErrConflict)
		}

		if err := repo.SetStatus(ctx, listingID, StatusDelisted, nil); err != nil {
			return err
		}
		if err := s.prices.CloseOpenInterval(ctx, tx, listingID, s.now()); err != nil {
			return err
		}

		l.Status = StatusDelisted
		delisted = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Forget(ctx, listingID)
	s.emit(ctx, events.ListingDelisted, delisted)

	return delisted, nil
}

// Lock takes the listing's row lock inside tx.
func (s *Service) Lock(ctx context.Context, tx core.DBTX, listingID string) (*Listing, error) {
	return s.repos(tx).LockByID(ctx, listingID)
}

// Reserve moves an available listing to reserved inside tx.
func (s *Service) Reserve(ctx context.Context, tx core.DBTX, listingID string) (*Listing, error) {
	repo := s.repos(tx)

	l, err := repo.LockByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusAvailable {
		return nil, fmt.Errorf("reserve listing: listing is %s: %w", l.Status, core.ErrConflict)
	}

	if err := repo.SetStatus(ctx, listingID, StatusReserved, nil); err != nil {
		return nil, err
	}

	l.Status = StatusReserved
	return l, nil
}

// MarkSold moves a reserved listing to sold with its buyer and closes the
// open price interval, inside tx.
func (s *Service) MarkSold(
	ctx context.Context,
	tx core.DBTX,
	listingID, buyerID string,
) (*Listing, error) {
	repo := s.repos(tx)

	l, err := repo.LockByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusReserved {
		return nil, fmt.Errorf("mark listing sold: listing is %s: %w", l.Status, core.ErrConflict)
	}

	if err := repo.SetStatus(ctx, listingID, StatusSold, &buyerID); err != nil {
		return nil, err
	}
	if err := s.prices.CloseOpenInterval(ctx, tx, listingID, s.now()); err != nil {
		return nil, err
	}

	l.Status = StatusSold
	l.BuyerID = &buyerID
	return l, nil
}

// Release returns a reserved listing to available unless a transaction
// other than transactionID still claims it. It reports whether the listing
// was released.
func (s *Service) Release(
	ctx context.Context,
	tx core.DBTX,
	listingID, transactionID string,
) (bool, error) {
	repo := s.repos(tx)

	l, err := repo.LockByID(ctx, listingID)
	if err != nil {
		return false, err
	}
	if l.Status != StatusReserved {
		return false, nil
	}

	active, err := repo.CountActiveTransactions(ctx, listingID, transactionID)
	if err != nil {
		return false, err
	}
	if active > 0 {
		return false, nil
	}

	if err := repo.SetStatus(ctx, listingID, StatusAvailable, nil); err != nil {
		return false, err
	}

	return true, nil
}

// Forget drops the cached copy of a listing after a committed change.
func (s *Service) Forget(ctx context.Context, listingID string) {
	if err := s.cache.Delete(ctx, listingID); err != nil {
		s.logger.WarnContext(ctx, "listing cache invalidation failed",
			"listing_id", listingID,
			"error", err,
		)
	}
}

func (s *Service) Get(ctx context.Context, id string) (_ *Listing, err error) {
	ctx, span := tracer.Start(ctx, "listing.Get")
	defer func() { core.EndSpan(span, err) }()

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "listing cache read failed",
			"listing_id", id,
			"error", err,
		)
	}
	if cached != nil {
		return cached, nil
	}

	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ids, err := s.repo.CourseIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	l.CourseIDs = ids

	s.fill(ctx, l)

	return l, nil
}

// fill caches l and then re-reads its version. A writer that committed after
// l was read either runs Forget after the Set, or its commit is visible to the
// re-read and the entry is dropped here.
func (s *Service) fill(ctx context.Context, l *Listing) {
	if err := s.cache.Set(ctx, l); err != nil {
		s.logger.WarnContext(ctx, "listing cache write failed",
			"listing_id", l.ID,
			"error", err,
		)
		return
	}

	current, err := s.repo.GetByID(ctx, l.ID)
	if err == nil && current.Status == l.Status && current.UpdatedAt.Equal(l.UpdatedAt) {
		return
	}

	s.Forget(ctx, l.ID)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Listing, int, error) {
	return s.repo.List(ctx, params)
}

// ListByIDs returns the listings that still exist among ids.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]Listing, error) {
	return s.repo.ListByIDs(ctx, ids)
}

func (s *Service) PriceHistory(
	ctx context.Context,
	listingID string,
	params pricehistory.HistoryParams,
) ([]pricehistory.Record, int, error) {
	if _, err := s.repo.GetByID(ctx, listingID); err != nil {
		return nil, 0, err
	}
	return s.prices.History(ctx, listingID, params)
}

// PriceStatistics summarizes every price interval recorded for listings in
// category.
func (s *Service) PriceStatistics(
	ctx context.Context,
	category string,
) (*pricehistory.CategoryStats, error) {
	in := CategoryInput{Category: category}
	if err := core.Validate(s.validator, "price statistics", in); err != nil {
		return nil, err
	}
	return s.prices.CategoryStats(ctx, category)
}

func (s *Service) Stats(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// AddImage stores an image URL for the listing. A primary image replaces
// the previous primary.
func (s *Service) AddImage(
	ctx context.Context,
	listingID, requesterID string,
	in ImageInput,
) (_ *Image, err error) {
	ctx, span := tracer.Start(ctx, "listing.AddImage")
	defer func() { core.EndSpan(span, err) }()

	if err := core.Validate(s.validator, "add listing image", in); err != nil {
		return nil, err
	}

	img := &Image{
		ID:        uuid.New().String(),
		ListingID: listingID,
		URL:       in.URL,
		IsPrimary: in.IsPrimary,
	}

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)

		l, err := repo.LockByID(ctx, listingID)
		if err != nil {
			return err
		}
		if !l.IsOwnedBy(requesterID) {
			return fmt.Errorf("add listing image: %w", core.ErrForbidden)
		}

		if img.IsPrimary {
			if err := repo.ClearPrimaryImage(ctx, listingID); err != nil {
				return err
			}
		}
		return repo.AddImage(ctx, img)
	})
	if err != nil {
		return nil, err
	}

	return img, nil
}

func (s *Service) RemoveImage(
	ctx context.Context,
	listingID, imageID, requesterID string,
) (err error) {
	ctx, span := tracer.Start(ctx, "listing.RemoveImage")
	defer func() { core.EndSpan(span, err) }()

	return s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repos(tx)

		l, err := repo.LockByID(ctx, listingID)
		if err != nil {
			return err
		}
		if !l.IsOwnedBy(requesterID) {
			return fmt.Errorf("remove listing image: %w", core.ErrForbidden)
		}

		return repo.DeleteImage(ctx, listingID, imageID)
	})
}

func (s *Service) Images(ctx context.Context, listingID string) ([]Image, error) {
	if _, err := s.repo.GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.Images(ctx, listingID)
}

// resolveCourses keeps the ids the catalog knows. A catalog failure skips
// the attachment and reports ok=false.
func (s *Service) resolveCourses(ctx context.Context, ids []string) ([]string, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	if s.courses == nil {
		return nil, false
	}

	found, err := s.courses.CoursesByIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "course lookup failed, skipping course tags",
			"error", err,
		)
		return nil, false
	}

	out := make([]string, 0, len(found))
	for _, c := range found {
		out = append(out, c.ID)
	}

	return out, true
}

func (s *Service) emit(ctx context.Context, eventType string, l *Listing) {
	events.Emit(ctx, s.events, s.logger, eventType, events.ListingEvent{
		ListingID: l.ID,
		SellerID:  l.SellerID,
		Status:    string(l.Status),
		Price:     l.SellingPrice.StringFixed(2),
	})
}
