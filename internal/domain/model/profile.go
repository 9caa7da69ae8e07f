//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

const (
	maxNameLen     = 255
	maxDocumentLen = 18 // formatted CNPJ length; CPF is shorter
)

// CaseStatus tracks a customer's case progress through the negotiation pipeline.
type CaseStatus string

const (
	CaseStatusPending            CaseStatus = "pending"
	CaseStatusUnderReview        CaseStatus = "under_review"
	CaseStatusProposalsAvailable CaseStatus = "proposals_available"
	CaseStatusCompleted          CaseStatus = "completed"
	CaseStatusCancelled          CaseStatus = "cancelled"
)

// Valid reports whether the case status is supported.
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusPending, CaseStatusUnderReview, CaseStatusProposalsAvailable,
		CaseStatusCompleted, CaseStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseCaseStatus normalizes a case status string and reports whether it is supported.
func ParseCaseStatus(value string) (CaseStatus, bool) {
	s := CaseStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// Label returns the display label for the status.
// The mapping is exhaustive; an unknown status is a programming error and panics
// rather than falling through to a default badge.
func (s CaseStatus) Label() string {
	switch s {
	case CaseStatusPending:
		return "Pendente"
	case CaseStatusUnderReview:
		return "Em Análise"
	case CaseStatusProposalsAvailable:
		return "Propostas Disponíveis"
	case CaseStatusCompleted:
		return "Finalizado"
	case CaseStatusCancelled:
		return "Cancelado"
	default:
		panic("unknown case status: " + string(s))
	}
}

// Progress returns the percent-complete shown on the customer dashboard.
func (s CaseStatus) Progress() int {
	switch s {
	case CaseStatusPending:
		return 10
	case CaseStatusUnderReview:
		return 40
	case CaseStatusProposalsAvailable:
		return 75
	case CaseStatusCompleted:
		return 100
	case CaseStatusCancelled:
		return 0
	default:
		panic("unknown case status: " + string(s))
	}
}

// AllCaseStatuses lists the supported statuses in pipeline order,
// used by admin filters and the stats board.
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusPending,
		CaseStatusUnderReview,
		CaseStatusProposalsAvailable,
		CaseStatusCompleted,
		CaseStatusCancelled,
	}
}

// PersonType distinguishes individual and company registrations.
type PersonType string

const (
	PersonTypeIndividual PersonType = "individual"
	PersonTypeCompany    PersonType = "company"
)

// Valid reports whether the person type is supported.
func (p PersonType) Valid() bool {
	return p == PersonTypeIndividual || p == PersonTypeCompany
}

// Profile is the customer record created at registration.
// ID matches the auth provider's user id for the same person.
type Profile struct {
	ID         string     `json:"id"          db:"id"`
	Name       string     `json:"name"        db:"name"`
	Document   string     `json:"document"    db:"document"`
	BirthDate  *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	Email      string     `json:"email"       db:"email"`
	Phone      string     `json:"phone"       db:"phone"`
	Address    string     `json:"address"     db:"address"`
	City       string     `json:"city"        db:"city"`
	State      string     `json:"state"       db:"state"`
	ZipCode    string     `json:"zip_code"    db:"zip_code"`
	PersonType PersonType `json:"person_type" db:"person_type"`
	Status     CaseStatus `json:"status"      db:"status"`
	CreatedAt  time.Time  `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"  db:"updated_at"`
}

// CreateProfileRequest represents parameters to create a Profile.
// ID is required because it must match the provider's user id.
type CreateProfileRequest struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Document   string     `json:"document"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Address    string     `json:"address"`
	City       string     `json:"city"`
	State      string     `json:"state"`
	ZipCode    string     `json:"zip_code"`
	PersonType PersonType `json:"person_type"`
}

// UpdateContactRequest carries the user-editable contact fields of a profile.
type UpdateContactRequest struct {
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	ZipCode *string `json:"zip_code,omitempty"`
}

// Validate validates CreateProfileRequest.
func (r *CreateProfileRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("id is required and must match the auth user id")
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if len(name) > maxNameLen {
		return errors.New("name exceeds maximum length")
	}
	doc := strings.TrimSpace(r.Document)
	if doc == "" {
		return errors.New("document is required and cannot be empty")
	}
	if len(doc) > maxDocumentLen {
		return errors.New("document exceeds maximum length")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required and cannot be empty")
	}
	pt := r.PersonType
	if pt == "" {
		pt = PersonTypeIndividual
	}
	if !pt.Valid() {
		return errors.New("person_type must be individual or company")
	}
	return nil
}

// ProfilesListOptions controls paging and filtering for the admin user table.
// Q matches name, email, or document via ILIKE substring.
type ProfilesListOptions struct {
	Limit  int
	Offset int
	Q      *string
	Status *CaseStatus
}
