package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type sampleProduct struct {
	id            int64
	name          string
	price         string
	originalPrice string
	image         string
	rating        float64
	reviews       int
	category      string
	inStock       bool
	description   string
}

var sampleProducts = []sampleProduct{
	{1, "Premium Wireless Headphones", "299.99", "399.99", "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500&h=500&fit=crop", 4.8, 124, "Electronics", true, "High-quality wireless headphones with noise cancellation"},
	{2, "Smart Fitness Watch", "199.99", "", "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500&h=500&fit=crop", 4.6, 89, "Electronics", true, "Track your fitness goals with this advanced smartwatch"},
	{3, "Professional Camera Lens", "849.99", "", "https://images.unsplash.com/photo-1606983340126-99ab4feaa64a?w=500&h=500&fit=crop", 4.9, 67, "Photography", true, "Professional grade camera lens for stunning photography"},
	{4, "Ergonomic Office Chair", "449.99", "599.99", "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=500&h=500&fit=crop", 4.7, 156, "Furniture", true, "Comfortable ergonomic office chair for long work sessions"},
	{5, "Wireless Gaming Mouse", "79.99", "", "https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=500&h=500&fit=crop", 4.5, 203, "Electronics", true, "High-precision wireless gaming mouse with RGB lighting"},
	{6, "Minimalist Desk Lamp", "89.99", "", "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=500&h=500&fit=crop", 4.4, 78, "Home", false, "Modern minimalist LED desk lamp with adjustable brightness"},
}

// SeedSampleProducts inserts the demo catalog when the products table is
// empty and reports how many rows it wrote.
func (s *SQLStore) SeedSampleProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range sampleProducts {
			var original decimal.NullDecimal
			if p.originalPrice != "" {
				original = decimal.NewNullDecimal(decimal.RequireFromString(p.originalPrice))
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO products (id, name, price, original_price, image, rating, reviews, category, in_stock, description)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.id, p.name, decimal.RequireFromString(p.price), original, p.image, p.rating, p.reviews, p.category, p.inStock, p.description,
			)
			if err != nil {
				return fmt.Errorf("insert product %d: %w", p.id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(sampleProducts), nil
}
