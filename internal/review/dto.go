// AngelaMos | 2026
// dto.go

package review

type SubmitInput struct {
	TransactionID string    `validate:"required"`
	Direction     Direction `validate:"required,oneof=buyer_to_seller seller_to_buyer"`
	Rating        int       `validate:"required,min=1,max=5"`
	Comment       *string   `validate:"omitempty,max=2000"`
}

type UpdateInput struct {
	Rating  *int    `validate:"omitempty,min=1,max=5"`
	Comment *string `validate:"omitempty,max=2000"`
}

type ListParams struct {
	Page     int
	PageSize int
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
