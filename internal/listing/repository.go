// AngelaMos | 2026
// repository.go

package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	LockByID(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, l *Listing) error
	SetStatus(ctx context.Context, id string, status Status, buyerID *string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]Listing, int, error)
	ListByIDs(ctx context.Context, ids []string) ([]Listing, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// CountActiveTransactions counts pending or confirmed transactions on
	// the listing, ignoring excludeTxID when it is not empty.
	CountActiveTransactions(ctx context.Context, listingID, excludeTxID string) (int, error)
	// CountDisputedTransactions counts open disputes on the listing.
	CountDisputedTransactions(ctx context.Context, listingID string) (int, error)

	SetCourses(ctx context.Context, listingID string, courseIDs []string) error
	CourseIDs(ctx context.Context, listingID string) ([]string, error)

	AddImage(ctx context.Context, img *Image) error
	ClearPrimaryImage(ctx context.Context, listingID string) error
	DeleteImage(ctx context.Context, listingID, imageID string) error
	Images(ctx context.Context, listingID string) ([]Image, error)
}

type RepositoryFactory func(db core.DBTX) Repository

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const listingColumns = `
	id, seller_id, buyer_id, title, description, category, condition,
	original_price, selling_price, status, created_at, updated_at`

func (r *repository) Create(ctx context.Context, l *Listing) error {
	query := `
		INSERT INTO listings (
			id, seller_id, title, description, category, condition,
			original_price, selling_price, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		l.ID,
		l.SellerID,
		l.Title,
		l.Description,
		l.Category,
		l.Condition,
		l.OriginalPrice,
		l.SellingPrice,
		l.Status,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query := `SELECT` + listingColumns + `
		FROM listings
		WHERE id = $1`

	return r.get(ctx, "get listing", query, id)
}

func (r *repository) LockByID(ctx context.Context, id string) (*Listing, error) {
	query := `SELECT` + listingColumns + `
		FROM listings
		WHERE id = $1
		FOR UPDATE`

	return r.get(ctx, "lock listing", query, id)
}

func (r *repository) get(ctx context.Context, op, query, id string) (*Listing, error) {
	var l Listing
	err := r.db.GetContext(ctx, &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.TranslateStoreError(err))
	}

	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *Listing) error {
	query := `
		UPDATE listings
		SET title = $2, description = $3, category = $4, condition = $5,
			original_price = $6, selling_price = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		l.ID,
		l.Title,
		l.Description,
		l.Category,
		l.Condition,
		l.OriginalPrice,
		l.SellingPrice,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update listing: %w", core.TranslateStoreError(err))
	}

	return nil
}

func (r *repository) SetStatus(
	ctx context.Context,
	id string,
	status Status,
	buyerID *string,
) error {
	query := `
		UPDATE listings
		SET status = $2, buyer_id = $3, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "set listing status", query, id, status, buyerID)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM listings WHERE id = $1`
	return r.execOne(ctx, "delete listing", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Listing, int, error) {
	params.Normalize()

	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if params.Category != "" {
		add("category = ?", params.Category)
	}
	if params.Condition != "" {
		add("condition = ?", params.Condition)
	}
	if params.Status != "" {
		add("status = ?", params.Status)
	}
	if params.SellerID != "" {
		add("seller_id = ?", params.SellerID)
	}
	if params.Search != "" {
		add("(title ILIKE ? OR description ILIKE ?)", "%"+params.Search+"%")
	}

	filter := ""
	if len(where) > 0 {
		filter = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM listings ` + filter
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	args = append(args, params.PageSize, params.Offset())
	query := `SELECT` + listingColumns + `
		FROM listings ` + filter + `
		ORDER BY created_at DESC, id
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	var listings []Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}

	return listings, total, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []string) ([]Listing, error) {
	if len(ids) == 0 {
		return []Listing{}, nil
	}

	query, args, err := sqlx.In(`SELECT`+listingColumns+`
		FROM listings
		WHERE id IN (?)
		ORDER BY created_at DESC, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list listings by ids: %w", err)
	}

	var listings []Listing
	err = r.db.SelectContext(ctx, &listings, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list listings by ids: %w", err)
	}

	return listings, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) AS n FROM listings GROUP BY status`

	var rows []struct {
		Status Status `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count listings by status: %w", err)
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}

	return counts, nil
}

func (r *repository) CountActiveTransactions(
	ctx context.Context,
	listingID, excludeTxID string,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE listing_id = $1
			AND status IN ('pending', 'confirmed')
			AND ($2 = '' OR id::text <> $2)`

	var n int
	if err := r.db.GetContext(ctx, &n, query, listingID, excludeTxID); err != nil {
		return 0, fmt.Errorf("count active transactions: %w", err)
	}

	return n, nil
}

func (r *repository) CountDisputedTransactions(ctx context.Context, listingID string) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE listing_id = $1 AND status = 'disputed'`

	var n int
	if err := r.db.GetContext(ctx, &n, query, listingID); err != nil {
		return 0, fmt.Errorf("count disputed transactions: %w", err)
	}

	return n, nil
}

func (r *repository) SetCourses(
	ctx context.Context,
	listingID string,
	courseIDs []string,
) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM listing_courses WHERE listing_id = $1`, listingID,
	); err != nil {
		return fmt.Errorf("clear listing courses: %w", err)
	}

	for _, courseID := range courseIDs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO listing_courses (listing_id, course_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, listingID, courseID)
		if err != nil {
			return fmt.Errorf("attach listing course: %w", err)
		}
	}

	return nil
}

func (r *repository) CourseIDs(ctx context.Context, listingID string) ([]string, error) {
	query := `
		SELECT course_id
		FROM listing_courses
		WHERE listing_id = $1
		ORDER BY course_id`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, listingID); err != nil {
		return nil, fmt.Errorf("list listing courses: %w", err)
	}

	return ids, nil
}

func (r *repository) AddImage(ctx context.Context, img *Image) error {
	query := `
		INSERT INTO listing_images (id, listing_id, url, is_primary)
		VALUES ($1, $2, $3, $4)
		RETURNING uploaded_at`

	err := r.db.QueryRowxContext(ctx, query,
		img.ID,
		img.ListingID,
		img.URL,
		img.IsPrimary,
	).Scan(&img.UploadedAt)
	if err != nil {
		return fmt.Errorf("add listing image: %w", err)
	}

	return nil
}

func (r *repository) ClearPrimaryImage(ctx context.Context, listingID string) error {
	query := `
		UPDATE listing_images
		SET is_primary = FALSE
		WHERE listing_id = $1 AND is_primary`

	if _, err := r.db.ExecContext(ctx, query, listingID); err != nil {
		return fmt.Errorf("clear primary image: %w", err)
	}

	return nil
}

func (r *repository) DeleteImage(ctx context.Context, listingID, imageID string) error {
	query := `DELETE FROM listing_images WHERE id = $1 AND listing_id = $2`
	return r.execOne(ctx, "delete listing image", query, imageID, listingID)
}

func (r *repository) Images(ctx context.Context, listingID string) ([]Image, error) {
	query := `
		SELECT id, listing_id, url, is_primary, uploaded_at
		FROM listing_images
		WHERE listing_id = $1
		ORDER BY is_primary DESC, uploaded_at ASC`

	var images []Image
	if err := r.db.SelectContext(ctx, &images, query, listingID); err != nil {
		return nil, fmt.Errorf("list listing images: %w", err)
	}

	return images, nil
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
