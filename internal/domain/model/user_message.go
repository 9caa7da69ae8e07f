package model

import (
	"errors"
	"strings"
	"time"
)

// UserMessage is one entry in the dashboard thread between a customer and staff.
// FromAdmin marks staff replies; AdminID is set only on those.
type UserMessage struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	AdminID   *string   `json:"admin_id,omitempty" db:"admin_id"`
	Body      string    `json:"body"       db:"body"`
	FromAdmin bool      `json:"from_admin" db:"from_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AppendUserMessageRequest represents parameters to append to a thread.
type AppendUserMessageRequest struct {
	UserID    string  `json:"user_id"`
	AdminID   *string `json:"admin_id,omitempty"`
	Body      string  `json:"body"`
	FromAdmin bool    `json:"from_admin"`
}

// Validate validates AppendUserMessageRequest.
func (r *AppendUserMessageRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required and cannot be empty")
	}
	body := strings.TrimSpace(r.Body)
	if body == "" {
		return errors.New("body is required and cannot be empty")
	}
	if len(body) > maxMessageLen {
		return errors.New("body exceeds maximum length")
	}
	if r.FromAdmin && (r.AdminID == nil || strings.TrimSpace(*r.AdminID) == "") {
		return errors.New("admin_id is required for admin messages")
	}
	return nil
}

// RoleAssignment is one row of the role-assignment table consulted
// during role resolution.
type RoleAssignment struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Role      string    `json:"role"       db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
