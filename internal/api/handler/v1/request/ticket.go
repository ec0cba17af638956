package request

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"
)

type ListForResaleRequest struct {
	Price *decimal.Decimal `json:"price" swaggertype:"string" example:"1500"`
}

// Validate only requires a price. Its range is a business rule checked when
// the ticket is listed.
func (req *ListForResaleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Price, validation.Required.Error("price is required")),
	)
}

type PageQuery struct {
	Page    int
	PerPage int
}

const (
	defaultPage    = 1
	defaultPerPage = 20
)

// ParsePageQuery reads page and per_page; empty values fall back to defaults.
func ParsePageQuery(page, perPage string) (PageQuery, error) {
	q := PageQuery{Page: defaultPage, PerPage: defaultPerPage}

	if page != "" {
		p, err := strconv.Atoi(page)
		if err != nil {
			return PageQuery{}, validation.Errors{"page": err}
		}
		q.Page = p
	}
	if perPage != "" {
		pp, err := strconv.Atoi(perPage)
		if err != nil {
			return PageQuery{}, validation.Errors{"per_page": err}
		}
		q.PerPage = pp
	}

	return q, q.Validate()
}

func (q PageQuery) Validate() error {
	return validation.ValidateStruct(
		&q,
		validation.Field(&q.Page, validation.Required, validation.Min(1)),
		validation.Field(&q.PerPage, validation.Required, validation.Min(1), validation.Max(100)),
	)
}
