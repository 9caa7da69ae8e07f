package httpx

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	apperrors "github.com/crednova/crednova-api/internal/errors"
)

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "/"},
		{"relative path", "/dashboard", "/dashboard"},
		{"path with query", "/admin?limit=10", "/admin?limit=10"},
		{"absolute url", "https://evil.example/phish", "/"},
		{"protocol relative", "//evil.example/phish", "/"},
		{"not rooted", "dashboard", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeRedirectPath(tt.in))
		})
	}
}

func TestParseLimitOffset(t *testing.T) {
	r := httptest.NewRequest("GET", "/admin?limit=10&offset=20", nil)
	limit, offset := ParseLimitOffset(r, 25, 100)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
}

func TestParseLimitOffsetDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/admin", nil)
	limit, offset := ParseLimitOffset(r, 25, 100)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 0, offset)
}

func TestParseLimitOffsetClamps(t *testing.T) {
	r := httptest.NewRequest("GET", "/admin?limit=9999&offset=-5", nil)
	limit, offset := ParseLimitOffset(r, 25, 100)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)

	r = httptest.NewRequest("GET", "/admin?limit=0", nil)
	limit, _ = ParseLimitOffset(r, 25, 100)
	assert.Equal(t, 1, limit)
}

func TestLandingFor(t *testing.T) {
	assert.Equal(t, "/admin", landingFor(domainauth.RoleAdmin))
	assert.Equal(t, "/dashboard", landingFor(domainauth.RoleUser))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, isValidationError(errors.New("name is required and cannot be empty")))
	assert.True(t, isValidationError(errors.New("amount_cents cannot be negative")))
	assert.False(t, isValidationError(errors.New("connection refused")))
	assert.False(t, isValidationError(nil))

	assert.True(t, isValidationError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	assert.True(t, isValidationError(apperrors.Conflict("duplicate record")))
	assert.False(t, isValidationError(apperrors.Internal("boom")))
}
