package model

import (
	"errors"
	"strings"
	"time"
)

// UserDocument is a file the customer uploaded to support their case.
// Storage is external; FileURL points at the managed bucket object.
type UserDocument struct {
	ID        string    `json:"id"         db:"id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Filename  string    `json:"filename"   db:"filename"`
	FileType  string    `json:"file_type"  db:"file_type"`
	FileSize  int64     `json:"file_size"  db:"file_size"`
	FileURL   string    `json:"file_url"   db:"file_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateUserDocumentRequest represents parameters to record an uploaded document.
type CreateUserDocumentRequest struct {
	UserID   string `json:"user_id"`
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	FileURL  string `json:"file_url"`
}

// Validate validates CreateUserDocumentRequest.
func (r *CreateUserDocumentRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required and cannot be empty")
	}
	if strings.TrimSpace(r.Filename) == "" {
		return errors.New("filename is required and cannot be empty")
	}
	if strings.TrimSpace(r.FileURL) == "" {
		return errors.New("file_url is required and cannot be empty")
	}
	if r.FileSize < 0 {
		return errors.New("file_size cannot be negative")
	}
	return nil
}
