package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/models"
)

// GetCart returns the user's cart joined to live product data, newest first.
func (s *SQLStore) GetCart(ctx context.Context, userID int64) ([]models.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, p.id, p.name, p.price, p.image, c.quantity, p.in_stock
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = ?
		ORDER BY c.created_at DESC, c.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var (
			line  models.CartLine
			image sql.NullString
		)
		if err := rows.Scan(&line.CartID, &line.ProductID, &line.Name, &line.Price, &image, &line.Quantity, &line.InStock); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		line.Image = image.String
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// AddToCart adds quantity of a product, incrementing the existing row for
// the pair if there is one.
func (s *SQLStore) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	var inStock bool
	err := s.db.QueryRowContext(ctx, "SELECT in_stock FROM products WHERE id = ?", productID).Scan(&inStock)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup product %d: %w", productID, err)
	}
	if !inStock {
		return ErrProductOutOfStock
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.upsertCartSQL(), userID, productID, quantity); err != nil {
		return fmt.Errorf("upsert cart row: %w", err)
	}
	return nil
}

// UpdateCartItem sets the quantity of a cart row the user owns.
func (s *SQLStore) UpdateCartItem(ctx context.Context, userID, cartID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cart SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?",
		quantity, cartID, userID)
	if err != nil {
		return fmt.Errorf("update cart row: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cart WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return fmt.Errorf("delete cart row: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCart empties the cart. Clearing an empty cart is not an error.
func (s *SQLStore) ClearCart(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cart WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
