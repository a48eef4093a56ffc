package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/models"
)

// CreateUser inserts user and fills in its ID. The email is stored
// lower-cased; a duplicate yields ErrEmailTaken.
func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, password, first_name, last_name) VALUES (?, ?, ?, ?)",
		user.Email, user.PasswordHash, user.FirstName, user.LastName)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	user.ID = id
	return nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		u           models.User
		first, last sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password, first_name, last_name, created_at FROM users WHERE "+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &first, &last, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.FirstName = first.String
	u.LastName = last.String
	return &u, nil
}
