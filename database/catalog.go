package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/models"
)

const productColumns = `id, name, description, price, original_price, image, rating, reviews, category, in_stock, created_at`

var sortFields = map[string]bool{
	"name":       true,
	"price":      true,
	"rating":     true,
	"created_at": true,
}

// resolveSort maps the sortBy/order parameters onto an allow-listed ORDER BY.
// "price_desc" is an alias for price DESC; anything unknown sorts by name
// ascending.
func resolveSort(sortBy, order string) (string, string) {
	if sortBy == "price_desc" {
		return "price", "DESC"
	}
	if !sortFields[sortBy] {
		return "name", "ASC"
	}
	if strings.EqualFold(order, "DESC") {
		return sortBy, "DESC"
	}
	return sortBy, "ASC"
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// productWhere builds the filter clause shared by the page query and the
// count query, so both always agree.
func productWhere(f models.ProductFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any

	if f.Category != "" && f.Category != "All" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.MinPrice != nil {
		clauses = append(clauses, "price >= ?")
		args = append(args, f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, "price <= ?")
		args = append(args, f.MaxPrice.InexactFloat64())
	}
	if f.Search != "" {
		clauses = append(clauses,
			"(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(category) LIKE ? ESCAPE '!')")
		term := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
		args = append(args, term, term, term)
	}
	return strings.Join(clauses, " AND "), args
}

// ListProducts returns one page of matching products and the total number
// of matches.
func (s *SQLStore) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	where, args := productWhere(f)
	field, dir := resolveSort(f.SortBy, f.Order)

	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?",
		productColumns, where, field, dir)
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

func (s *SQLStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListCategories returns "All" followed by every distinct category.
func (s *SQLStore) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT category FROM products WHERE category IS NOT NULL ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []string{"All"}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p                            models.Product
		description, image, category sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &p.OriginalPrice, &image,
		&p.Rating, &p.Reviews, &category, &p.InStock, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.Description = description.String
	p.Image = image.String
	p.Category = category.String
	return &p, nil
}
