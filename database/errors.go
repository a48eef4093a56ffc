package database

import (
	"errors"
	"strings"
)

var (
	// ErrNotReady is returned while the store has not finished connecting.
	ErrNotReady = errors.New("database not initialized")

	ErrNotFound          = errors.New("record not found")
	ErrProductOutOfStock = errors.New("product is out of stock")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// OutOfStockError lists the cart lines that blocked a checkout.
type OutOfStockError struct {
	Names []string
}

func (e *OutOfStockError) Error() string {
	return "out of stock: " + strings.Join(e.Names, ", ")
}
