// AngelaMos | 2026
// entity.go

package listing

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
	StatusDelisted  Status = "delisted"
)

const (
	CategoryTextbooks       = "textbooks"
	CategoryElectronics     = "electronics"
	CategoryNotes           = "notes_and_study_materials"
	CategoryFurniture       = "furniture"
	CategoryClothing        = "clothing"
	CategorySportsEquipment = "sports_equipment"
	CategoryOther           = "other"
)

const (
	ConditionNew     = "new"
	ConditionLikeNew = "like_new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
	ConditionPoor    = "poor"
)

// Listing is an item offered by one seller. BuyerID is set exactly when
// Status is sold.
type Listing struct {
	ID            string          `db:"id"             json:"id"`
	SellerID      string          `db:"seller_id"      json:"seller_id"`
	BuyerID       *string         `db:"buyer_id"       json:"buyer_id,omitempty"`
	Title         string          `db:"title"          json:"title"`
	Description   string          `db:"description"    json:"description"`
	Category      string          `db:"category"       json:"category"`
	Condition     string          `db:"condition"      json:"condition"`
	OriginalPrice decimal.Decimal `db:"original_price" json:"original_price"`
	SellingPrice  decimal.Decimal `db:"selling_price"  json:"selling_price"`
	Status        Status          `db:"status"         json:"status"`
	CreatedAt     time.Time       `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"     json:"updated_at"`

	CourseIDs []string `db:"-" json:"course_ids,omitempty"`
}

func (l *Listing) IsOwnedBy(userID string) bool {
	return l.SellerID == userID
}

// IsEditable reports whether the seller may still change the listing.
func (l *Listing) IsEditable() bool {
	return l.Status == StatusAvailable || l.Status == StatusReserved
}

type Image struct {
	ID         string    `db:"id"          json:"id"`
	ListingID  string    `db:"listing_id"  json:"listing_id"`
	URL        string    `db:"url"         json:"url"`
	IsPrimary  bool      `db:"is_primary"  json:"is_primary"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}
