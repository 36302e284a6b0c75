// AngelaMos | 2026
// events.go

package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	ListingCreated      = "listing.created"
	ListingPriceChanged = "listing.price_changed"
	ListingDelisted     = "listing.delisted"
	ListingDeleted      = "listing.deleted"

	TransactionOpened        = "transaction.opened"
	TransactionStatusChanged = "transaction.status_changed"

	ReviewSubmitted = "review.submitted"
	ReviewUpdated   = "review.updated"
	ReviewDeleted   = "review.deleted"
)

// Publisher delivers committed domain events. Delivery is at-most-once.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
	Close()
}

type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func NewEnvelope(eventType string, data any) Envelope {
	return Envelope{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Emit publishes after commit. Failures are logged and swallowed: the state
// change already happened.
func Emit(
	ctx context.Context,
	p Publisher,
	logger *slog.Logger,
	eventType string,
	data any,
) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, data); err != nil {
		logger.WarnContext(ctx, "event publish failed",
			"event", eventType,
			"error", err,
		)
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

func (Noop) Close() {}

type ListingEvent struct {
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
	Status    string `json:"status,omitempty"`
	Price     string `json:"price,omitempty"`
}

type TransactionEvent struct {
	TransactionID string `json:"transaction_id"`
	ListingID     string `json:"listing_id"`
	BuyerID       string `json:"buyer_id"`
	SellerID      string `json:"seller_id"`
	From          string `json:"from,omitempty"`
	To            string `json:"to"`
}

type ReviewEvent struct {
	ReviewID      string  `json:"review_id"`
	TransactionID string  `json:"transaction_id"`
	Direction     string  `json:"direction"`
	RevieweeID    string  `json:"reviewee_id"`
	Rating        int     `json:"rating"`
	Average       float64 `json:"average"`
}
