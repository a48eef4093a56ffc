package models

import "time"

// ContactMessage is write-only; nothing reads or updates it after insert.
type ContactMessage struct {
	ID        int64     `json:"id,omitempty"`
	FullName  string    `json:"fullName" binding:"required"`
	Email     string    `json:"email" binding:"required,email"`
	Subject   string    `json:"subject" binding:"required"`
	Message   string    `json:"message" binding:"required"`
	CreatedAt time.Time `json:"created_at"`
}
