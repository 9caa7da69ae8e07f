package testutil

import (
	"time"

	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/google/uuid"
)

// ProfileRequestBuilder provides a fluent interface for building CreateProfileRequest objects for testing.
type ProfileRequestBuilder struct {
	req *model.CreateProfileRequest
}

// NewProfileRequest creates a new ProfileRequestBuilder with sensible defaults.
// Each builder gets a unique id and document so tests can insert several
// profiles without tripping the uniqueness constraints.
func NewProfileRequest() *ProfileRequestBuilder {
	id := uuid.NewString()
	return &ProfileRequestBuilder{
		req: &model.CreateProfileRequest{
			ID:         id,
			Name:       "Test Person",
			Document:   "doc-" + id[:8],
			Email:      "test-" + id[:8] + "@example.com",
			PersonType: model.PersonTypeIndividual,
		},
	}
}

// WithID sets the profile id.
func (b *ProfileRequestBuilder) WithID(id string) *ProfileRequestBuilder {
	b.req.ID = id
	return b
}

// WithName sets the display name.
func (b *ProfileRequestBuilder) WithName(name string) *ProfileRequestBuilder {
	b.req.Name = name
	return b
}

// WithDocument sets the CPF/CNPJ document.
func (b *ProfileRequestBuilder) WithDocument(document string) *ProfileRequestBuilder {
	b.req.Document = document
	return b
}

// WithEmail sets the email address.
func (b *ProfileRequestBuilder) WithEmail(email string) *ProfileRequestBuilder {
	b.req.Email = email
	return b
}

// WithPhone sets the phone number.
func (b *ProfileRequestBuilder) WithPhone(phone string) *ProfileRequestBuilder {
	b.req.Phone = phone
	return b
}

// WithPersonType sets the person type.
func (b *ProfileRequestBuilder) WithPersonType(pt model.PersonType) *ProfileRequestBuilder {
	b.req.PersonType = pt
	return b
}

// WithBirthDate sets the birth date.
func (b *ProfileRequestBuilder) WithBirthDate(t time.Time) *ProfileRequestBuilder {
	b.req.BirthDate = &t
	return b
}

// Build returns the constructed CreateProfileRequest.
func (b *ProfileRequestBuilder) Build() *model.CreateProfileRequest {
	return b.req
}

// DebtRequestBuilder provides a fluent interface for building CreateDebtRequest objects for testing.
type DebtRequestBuilder struct {
	req *model.CreateDebtRequest
}

// NewDebtRequest creates a new DebtRequestBuilder with sensible defaults.
// The user id must be set to an existing profile before Build.
func NewDebtRequest(userID string) *DebtRequestBuilder {
	return &DebtRequestBuilder{
		req: &model.CreateDebtRequest{
			UserID:      userID,
			Creditor:    "Banco Teste",
			AmountCents: 125000,
			Status:      model.DebtStatusPending,
		},
	}
}

// WithCreditor sets the creditor name.
func (b *DebtRequestBuilder) WithCreditor(creditor string) *DebtRequestBuilder {
	b.req.Creditor = creditor
	return b
}

// WithAmountCents sets the debt amount in cents.
func (b *DebtRequestBuilder) WithAmountCents(cents int64) *DebtRequestBuilder {
	b.req.AmountCents = cents
	return b
}

// WithStatus sets the debt status.
func (b *DebtRequestBuilder) WithStatus(status model.DebtStatus) *DebtRequestBuilder {
	b.req.Status = status
	return b
}

// WithDueDate sets the due date.
func (b *DebtRequestBuilder) WithDueDate(t time.Time) *DebtRequestBuilder {
	b.req.DueDate = &t
	return b
}

// Build returns the constructed CreateDebtRequest.
func (b *DebtRequestBuilder) Build() *model.CreateDebtRequest {
	return b.req
}

// ContactMessageRequestBuilder provides a fluent interface for building CreateContactMessageRequest objects for testing.
type ContactMessageRequestBuilder struct {
	req *model.CreateContactMessageRequest
}

// NewContactMessageRequest creates a new ContactMessageRequestBuilder with sensible defaults.
func NewContactMessageRequest() *ContactMessageRequestBuilder {
	return &ContactMessageRequestBuilder{
		req: &model.CreateContactMessageRequest{
			Name:    "Visitante Teste",
			Email:   "visitante@example.com",
			Message: "Preciso de ajuda para limpar meu nome.",
		},
	}
}

// WithName sets the sender name.
func (b *ContactMessageRequestBuilder) WithName(name string) *ContactMessageRequestBuilder {
	b.req.Name = name
	return b
}

// WithEmail sets the sender email.
func (b *ContactMessageRequestBuilder) WithEmail(email string) *ContactMessageRequestBuilder {
	b.req.Email = email
	return b
}

// WithPhone sets the sender phone.
func (b *ContactMessageRequestBuilder) WithPhone(phone string) *ContactMessageRequestBuilder {
	b.req.Phone = &phone
	return b
}

// WithMessage sets the message body.
func (b *ContactMessageRequestBuilder) WithMessage(message string) *ContactMessageRequestBuilder {
	b.req.Message = message
	return b
}

// WithDocument sets the attached document metadata.
func (b *ContactMessageRequestBuilder) WithDocument(filename, url string) *ContactMessageRequestBuilder {
	b.req.DocumentFilename = &filename
	b.req.DocumentURL = &url
	return b
}

// Build returns the constructed CreateContactMessageRequest.
func (b *ContactMessageRequestBuilder) Build() *model.CreateContactMessageRequest {
	return b.req
}
