package models

import "github.com/shopspring/decimal"

// CartLine is a cart row joined to its product. Price is the live product
// price, so a cart total can drift until checkout.
type CartLine struct {
	CartID    int64           `json:"cart_id"`
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	InStock   bool            `json:"in_stock"`
}

type AddToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}
