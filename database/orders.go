package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/models"
)

type checkoutLine struct {
	productID int64
	quantity  int
	price     decimal.Decimal
	name      string
	image     sql.NullString
	inStock   bool
}

// CreateOrder converts the user's cart into an order in one transaction:
// read the cart with row locks, reject an empty cart or out-of-stock lines,
// total the snapshot, insert the order and its items, and empty the cart.
// Any failure rolls the whole sequence back.
func (s *SQLStore) CreateOrder(ctx context.Context, userID int64, req models.CreateOrderRequest) (*models.OrderReceipt, error) {
	var receipt *models.OrderReceipt

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		lines, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		var outOfStock []string
		for _, l := range lines {
			if !l.inStock {
				outOfStock = append(outOfStock, l.name)
			}
		}
		if len(outOfStock) > 0 {
			return &OutOfStockError{Names: outOfStock}
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			item := models.OrderItem{
				ProductID:   l.productID,
				ProductName: l.name,
				Quantity:    l.quantity,
				Price:       l.price,
				Image:       l.image.String,
			}
			total = total.Add(item.Subtotal())
			items = append(items, item)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO orders (user_id, total_amount, status, shipping_address, billing_address) VALUES (?, ?, ?, ?, ?)",
			userID, total, models.OrderStatusPending, addressValue(req.ShippingAddress), addressValue(req.BillingAddress))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("order id: %w", err)
		}

		for _, item := range items {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)",
				orderID, item.ProductID, item.Quantity, item.Price); err != nil {
				return fmt.Errorf("insert order item for product %d: %w", item.ProductID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM cart WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		receipt = &models.OrderReceipt{OrderID: orderID, TotalAmount: total, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *SQLStore) lockCart(ctx context.Context, tx *sql.Tx, userID int64) ([]checkoutLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.product_id, c.quantity, p.price, p.name, p.image, p.in_stock
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = ?
		ORDER BY c.id`+s.dialect.lockSuffix(), userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var l checkoutLine
		if err := rows.Scan(&l.productID, &l.quantity, &l.price, &l.name, &l.image, &l.inStock); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// addressValue stores an address payload as JSON text, or NULL when absent.
func addressValue(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return string(trimmed)
}

const orderSelect = `
	SELECT o.id, o.user_id, o.total_amount, o.status, o.shipping_address, o.billing_address,
	       o.created_at, o.updated_at,
	       oi.product_id, oi.quantity, oi.price, p.name, p.image
	FROM orders o
	LEFT JOIN order_items oi ON o.id = oi.order_id
	LEFT JOIN products p ON oi.product_id = p.id`

// ListOrders returns the user's orders, newest first, each with its items.
func (s *SQLStore) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.queryOrders(ctx,
		orderSelect+" WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC, oi.id ASC", userID)
}

// GetOrder returns one order if it exists and belongs to the user.
// Otherwise it reports ErrNotFound, whichever the reason.
func (s *SQLStore) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	orders, err := s.queryOrders(ctx,
		orderSelect+" WHERE o.id = ? AND o.user_id = ? ORDER BY oi.id ASC", orderID, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

// queryOrders folds the order/item join into orders with embedded items,
// keeping the row order of the query.
func (s *SQLStore) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	index := make(map[int64]int)
	for rows.Next() {
		var (
			o                  models.Order
			status             string
			shipping, billing  sql.NullString
			productID          sql.NullInt64
			quantity           sql.NullInt64
			price              decimal.NullDecimal
			productName, image sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &shipping, &billing,
			&o.CreatedAt, &o.UpdatedAt, &productID, &quantity, &price, &productName, &image); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		i, seen := index[o.ID]
		if !seen {
			o.Status = models.OrderStatus(status)
			o.ShippingAddress = rawAddress(shipping)
			o.BillingAddress = rawAddress(billing)
			o.Items = []models.OrderItem{}
			orders = append(orders, o)
			i = len(orders) - 1
			index[o.ID] = i
		}

		if productID.Valid {
			orders[i].Items = append(orders[i].Items, models.OrderItem{
				ProductID:   productID.Int64,
				ProductName: productName.String,
				Quantity:    int(quantity.Int64),
				Price:       price.Decimal,
				Image:       image.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func rawAddress(ns sql.NullString) json.RawMessage {
	if !ns.Valid || !json.Valid([]byte(ns.String)) {
		return nil
	}
	return json.RawMessage(ns.String)
}

// UpdateOrderStatus moves an order to status if the transition table
// allows it and returns the previous status.
func (s *SQLStore) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) (models.OrderStatus, error) {
	var previous models.OrderStatus

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ?"+s.dialect.lockSuffix(), orderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read order status: %w", err)
		}

		previous = models.OrderStatus(current)
		if !previous.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, previous, status)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, orderID); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}
