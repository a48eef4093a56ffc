package database

import (
	"context"
	"fmt"

	"storefront/models"
)

func (s *SQLStore) SaveContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO contact_messages (full_name, email, subject, message) VALUES (?, ?, ?, ?)",
		msg.FullName, msg.Email, msg.Subject, msg.Message)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}
	return nil
}
