package client

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/models"
)

var ErrNotAuthenticated = errors.New("please log in to modify the cart")

// Authenticator reports whether there is a signed-in user.
type Authenticator interface {
	IsAuthenticated() bool
}

// CartStore mirrors the server-side cart. Every mutation is followed by a
// full refetch; totals always reflect the last successful fetch.
type CartStore struct {
	api  *API
	auth Authenticator

	mu      sync.RWMutex
	items   []models.CartLine
	loading bool
	// seq orders refreshes so a slow, older response never overwrites a
	// newer one.
	seq     uint64
	applied uint64
}

func NewCartStore(api *API, auth Authenticator) *CartStore {
	return &CartStore{api: api, auth: auth}
}

// Refresh refetches the cart. Signed out, it simply empties the local copy.
// On failure the previous items are kept.
func (s *CartStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if !s.auth.IsAuthenticated() {
		s.items = nil
		s.applied = seq
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	items, err := s.api.Cart(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.seq {
		s.loading = false
	}
	if err != nil {
		return err
	}
	if seq > s.applied {
		s.items = items
		s.applied = seq
	}
	return nil
}

func (s *CartStore) Add(ctx context.Context, productID int64, quantity int) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := s.api.AddToCart(ctx, productID, quantity); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *CartStore) Remove(ctx context.Context, productID int64) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := s.api.RemoveFromCart(ctx, productID); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// UpdateQuantity sets a line's quantity. Quantities below 1 are ignored.
func (s *CartStore) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	if quantity < 1 {
		return nil
	}
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := s.api.UpdateCartItem(ctx, cartID, quantity); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *CartStore) Clear(ctx context.Context) error {
	if !s.auth.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := s.api.ClearCart(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Items returns a copy of the current lines.
func (s *CartStore) Items() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartLine(nil), s.items...)
}

func (s *CartStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// TotalPrice is Σ price × quantity over the current lines.
func (s *CartStore) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (s *CartStore) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}
