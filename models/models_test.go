package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, st)

	_, err = ParseOrderStatus("lost")
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 50, Total: 0, Pages: 0}, NewPagination(1, 50, 0))
	assert.Equal(t, 3, NewPagination(1, 2, 5).Pages)
	assert.Equal(t, 1, NewPagination(1, 5, 5).Pages)
}

func TestProductFilterOffset(t *testing.T) {
	assert.Equal(t, 0, ProductFilter{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, ProductFilter{Page: 3, Limit: 20}.Offset())
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{Price: decimal.RequireFromString("79.99"), Quantity: 3}
	assert.Equal(t, "239.97", item.Subtotal().String())
}

func TestPricesEncodeAsNumbers(t *testing.T) {
	line := CartLine{CartID: 1, ProductID: 5, Price: decimal.RequireFromString("79.99"), Quantity: 2}

	raw, err := json.Marshal(line)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":79.99`)

	p := Product{ID: 1}
	raw, err = json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"original_price":null`)
}
