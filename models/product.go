package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the way the storefront frontend reads them.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	Image         string              `json:"image"`
	Rating        float64             `json:"rating"`
	Reviews       int                 `json:"reviews"`
	Category      string              `json:"category"`
	InStock       bool                `json:"in_stock"`
	CreatedAt     time.Time           `json:"created_at"`
}

// ProductFilter holds the catalog query parameters after parsing.
type ProductFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

// Offset is the row offset of the requested page.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
