package model

import (
	"errors"
	"strings"
	"time"
)

const maxMessageLen = 4000

// MessageStatus tracks handling of a contact-form message in the admin inbox.
type MessageStatus string

const (
	MessageStatusNew      MessageStatus = "new"
	MessageStatusInReview MessageStatus = "in_review"
	MessageStatusResolved MessageStatus = "resolved"
	MessageStatusArchived MessageStatus = "archived"
)

// Valid reports whether the message status is supported.
func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusNew, MessageStatusInReview, MessageStatusResolved, MessageStatusArchived:
		return true
	default:
		return false
	}
}

// ParseMessageStatus normalizes a message status string and reports whether it is supported.
func ParseMessageStatus(value string) (MessageStatus, bool) {
	s := MessageStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// Label returns the display label for the status. The mapping is exhaustive.
func (s MessageStatus) Label() string {
	switch s {
	case MessageStatusNew:
		return "Nova"
	case MessageStatusInReview:
		return "Em Atendimento"
	case MessageStatusResolved:
		return "Resolvida"
	case MessageStatusArchived:
		return "Arquivada"
	default:
		panic("unknown message status: " + string(s))
	}
}

// AllMessageStatuses lists the supported statuses in triage order,
// used by the inbox filter.
func AllMessageStatuses() []MessageStatus {
	return []MessageStatus{
		MessageStatusNew,
		MessageStatusInReview,
		MessageStatusResolved,
		MessageStatusArchived,
	}
}

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID               string        `json:"id"         db:"id"`
	Name             string        `json:"name"       db:"name"`
	Email            string        `json:"email"      db:"email"`
	Phone            *string       `json:"phone,omitempty" db:"phone"`
	Message          string        `json:"message"    db:"message"`
	DocumentFilename *string       `json:"document_filename,omitempty" db:"document_filename"`
	DocumentURL      *string       `json:"document_url,omitempty"      db:"document_url"`
	AdminNotes       *string       `json:"admin_notes,omitempty"       db:"admin_notes"`
	Status           MessageStatus `json:"status"     db:"status"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateContactMessageRequest represents parameters to create a ContactMessage.
type CreateContactMessageRequest struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Phone            *string `json:"phone,omitempty"`
	Message          string  `json:"message"`
	DocumentFilename *string `json:"document_filename,omitempty"`
	DocumentURL      *string `json:"document_url,omitempty"`
}

// Validate validates CreateContactMessageRequest.
func (r *CreateContactMessageRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required and cannot be empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required and cannot be empty")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return errors.New("message is required and cannot be empty")
	}
	if len(msg) > maxMessageLen {
		return errors.New("message exceeds maximum length")
	}
	return nil
}

// MessagesListOptions controls paging and filtering for the admin inbox.
type MessagesListOptions struct {
	Limit  int
	Offset int
	Status *MessageStatus
}
