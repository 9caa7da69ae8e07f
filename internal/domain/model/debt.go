package model

import (
	"errors"
	"strings"
	"time"
)

// DebtStatus tracks a single registered debt through negotiation.
type DebtStatus string

const (
	DebtStatusPending     DebtStatus = "pending"
	DebtStatusOverdue     DebtStatus = "overdue"
	DebtStatusNegotiating DebtStatus = "negotiating"
	DebtStatusSettled     DebtStatus = "settled"
)

// Valid reports whether the debt status is supported.
func (s DebtStatus) Valid() bool {
	switch s {
	case DebtStatusPending, DebtStatusOverdue, DebtStatusNegotiating, DebtStatusSettled:
		return true
	default:
		return false
	}
}

// ParseDebtStatus normalizes a debt status string and reports whether it is supported.
func ParseDebtStatus(value string) (DebtStatus, bool) {
	s := DebtStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// Label returns the display label for the status. The mapping is exhaustive.
func (s DebtStatus) Label() string {
	switch s {
	case DebtStatusPending:
		return "Pendente"
	case DebtStatusOverdue:
		return "Atrasada"
	case DebtStatusNegotiating:
		return "Em Negociação"
	case DebtStatusSettled:
		return "Quitada"
	default:
		panic("unknown debt status: " + string(s))
	}
}

// AllDebtStatuses lists the supported statuses in lifecycle order,
// used by admin forms.
func AllDebtStatuses() []DebtStatus {
	return []DebtStatus{
		DebtStatusPending,
		DebtStatusOverdue,
		DebtStatusNegotiating,
		DebtStatusSettled,
	}
}

// Debt is one creditor entry registered for a customer.
// AmountCents stores currency as integer cents to avoid float drift.
type Debt struct {
	ID          string     `json:"id"           db:"id"`
	UserID      string     `json:"user_id"      db:"user_id"`
	Document    string     `json:"document"     db:"document"`
	Creditor    string     `json:"creditor"     db:"creditor"`
	AmountCents int64      `json:"amount_cents" db:"amount_cents"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Status      DebtStatus `json:"status"       db:"status"`
	CreatedAt   time.Time  `json:"created_at"   db:"created_at"`
}

// CreateDebtRequest represents parameters to create a Debt.
type CreateDebtRequest struct {
	UserID      string     `json:"user_id"`
	Document    string     `json:"document"`
	Creditor    string     `json:"creditor"`
	AmountCents int64      `json:"amount_cents"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      DebtStatus `json:"status,omitempty"`
}

// UpdateDebtRequest represents parameters to update a Debt.
type UpdateDebtRequest struct {
	Creditor    *string     `json:"creditor,omitempty"`
	AmountCents *int64      `json:"amount_cents,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	Status      *DebtStatus `json:"status,omitempty"`
}

// Validate validates CreateDebtRequest.
func (r *CreateDebtRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required and cannot be empty")
	}
	if strings.TrimSpace(r.Creditor) == "" {
		return errors.New("creditor is required and cannot be empty")
	}
	if r.AmountCents < 0 {
		return errors.New("amount_cents cannot be negative")
	}
	if r.Status != "" && !r.Status.Valid() {
		return errors.New("status is not a valid debt status")
	}
	return nil
}
