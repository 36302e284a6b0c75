// AngelaMos | 2026
// entity.go

package review

import "time"

type Direction string

const (
	BuyerToSeller Direction = "buyer_to_seller"
	SellerToBuyer Direction = "seller_to_buyer"
)

// Review is one party's rating of the other on a completed transaction.
// At most one review exists per (transaction, direction).
type Review struct {
	ID            string    `db:"id"             json:"id"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	Direction     Direction `db:"direction"      json:"direction"`
	ReviewerID    string    `db:"reviewer_id"    json:"reviewer_id"`
	RevieweeID    string    `db:"reviewee_id"    json:"reviewee_id"`
	Rating        int       `db:"rating"         json:"rating"`
	Comment       *string   `db:"comment"        json:"comment,omitempty"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}
