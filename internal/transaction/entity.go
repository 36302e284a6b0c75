// AngelaMos | 2026
// entity.go

package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDisputed  Status = "disputed"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusDisputed},
	StatusCompleted: {StatusDisputed},
}

// CanTransition reports whether from → to is an allowed status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsActive reports whether the status still claims the listing.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Transaction is one buyer's purchase of one listing. SellerID is copied
// from the listing when the transaction is opened. CompletedAt is set once
// the sale completes and kept if the transaction is later disputed.
type Transaction struct {
	ID              string          `db:"id"               json:"id"`
	ListingID       string          `db:"listing_id"       json:"listing_id"`
	BuyerID         string          `db:"buyer_id"         json:"buyer_id"`
	SellerID        string          `db:"seller_id"        json:"seller_id"`
	AgreedPrice     decimal.Decimal `db:"agreed_price"     json:"agreed_price"`
	Status          Status          `db:"status"           json:"status"`
	MeetingLocation *string         `db:"meeting_location" json:"meeting_location,omitempty"`
	MeetingAt       *time.Time      `db:"meeting_at"       json:"meeting_at,omitempty"`
	CompletedAt     *time.Time      `db:"completed_at"     json:"completed_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"       json:"updated_at"`
}

func (t *Transaction) IsParty(userID string) bool {
	return t.BuyerID == userID || t.SellerID == userID
}
