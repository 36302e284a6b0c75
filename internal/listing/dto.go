// AngelaMos | 2026
// dto.go

package listing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

var maxPrice = decimal.NewFromInt(99_999_999)

type Draft struct {
	Title         string          `validate:"required,min=3,max=200"`
	Description   string          `validate:"max=5000"`
	Category      string          `validate:"required,oneof=textbooks electronics notes_and_study_materials furniture clothing sports_equipment other"`
	Condition     string          `validate:"required,oneof=new like_new good fair poor"`
	OriginalPrice decimal.Decimal
	SellingPrice  decimal.Decimal
	CourseIDs     []string `validate:"max=20,dive,required"`
}

type Patch struct {
	Title         *string          `validate:"omitempty,min=3,max=200"`
	Description   *string          `validate:"omitempty,max=5000"`
	Category      *string          `validate:"omitempty,oneof=textbooks electronics notes_and_study_materials furniture clothing sports_equipment other"`
	Condition     *string          `validate:"omitempty,oneof=new like_new good fair poor"`
	OriginalPrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	CourseIDs     *[]string
}

type ImageInput struct {
	URL       string `validate:"required,url,max=2048"`
	IsPrimary bool
}

type ListParams struct {
	Category  string
	Condition string
	Status    Status
	SellerID  string
	Search    string
	Page      int
	PageSize  int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func checkPrice(op, field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%s: %s must not be negative: %w", op, field, core.ErrInvalidInput)
	}
	if v.GreaterThan(maxPrice) {
		return fmt.Errorf("%s: %s is too large: %w", op, field, core.ErrInvalidInput)
	}
	if v.Exponent() < -2 && !v.Equal(v.Round(2)) {
		return fmt.Errorf("%s: %s has more than two decimals: %w", op, field, core.ErrInvalidInput)
	}
	return nil
}

func (d *Draft) checkPrices() error {
	if err := checkPrice("create listing", "original_price", d.OriginalPrice); err != nil {
		return err
	}
	if !d.SellingPrice.IsPositive() {
		return fmt.Errorf("create listing: selling_price must be positive: %w", core.ErrInvalidInput)
	}
	return checkPrice("create listing", "selling_price", d.SellingPrice)
}

func (p *Patch) checkPrices() error {
	if p.OriginalPrice != nil {
		if err := checkPrice("update listing", "original_price", *p.OriginalPrice); err != nil {
			return err
		}
	}
	if p.SellingPrice != nil {
		if !p.SellingPrice.IsPositive() {
			return fmt.Errorf("update listing: selling_price must be positive: %w", core.ErrInvalidInput)
		}
		return checkPrice("update listing", "selling_price", *p.SellingPrice)
	}
	return nil
}

// apply copies the set fields onto l and reports whether the selling price
// changed.
func (p *Patch) apply(l *Listing) bool {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Condition != nil {
		l.Condition = *p.Condition
	}
	if p.OriginalPrice != nil {
		l.OriginalPrice = *p.OriginalPrice
	}
	if p.SellingPrice != nil && !p.SellingPrice.Equal(l.SellingPrice) {
		l.SellingPrice = *p.SellingPrice
		return true
	}
	return false
}

type CategoryInput struct {
	Category string `validate:"required,oneof=textbooks electronics notes_and_study_materials furniture clothing sports_equipment other"`
}
