// AngelaMos | 2026
// entity.go

package pricehistory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one interval during which a listing was offered at Price.
// FinalDate is nil while the interval is open.
type Record struct {
	ID        string          `db:"id"`
	ListingID string          `db:"listing_id"`
	Price     decimal.Decimal `db:"price"`
	StartDate time.Time       `db:"start_date"`
	FinalDate *time.Time      `db:"final_date"`
}

func (r *Record) IsOpen() bool {
	return r.FinalDate == nil
}

// CategoryStats summarizes every price interval recorded for listings in a
// category. All amounts are zero when Count is zero.
type CategoryStats struct {
	Category string          `json:"category"`
	Count    int             `db:"count"     json:"count"`
	Average  decimal.Decimal `db:"avg_price" json:"average_price"`
	Min      decimal.Decimal `db:"min_price" json:"min_price"`
	Max      decimal.Decimal `db:"max_price" json:"max_price"`
}

type HistoryParams struct {
	Page     int
	PageSize int
}

func (p *HistoryParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *HistoryParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
