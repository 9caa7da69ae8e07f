package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	apperrors "github.com/crednova/crednova-api/internal/errors"
	"github.com/crednova/crednova-api/internal/service"
)

const sessionCookieName = "session_id"

// validationErrorPatterns holds common validation error substrings used to classify 400 vs 5xx.
var validationErrorPatterns = []string{
	"is required",
	"cannot be empty",
	"cannot be negative",
	"exceeds maximum length",
	"is not a valid",
	"invalid",
	"must match",
}

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// ParseLimitOffset parses common pagination params and clamps to sane bounds.
// - defLimit: default limit when not specified
// - maxLimit: maximum allowed limit (values > maxLimit are clamped to maxLimit).
func ParseLimitOffset(r *http.Request, defLimit, maxLimit int) (int, int) {
	if maxLimit < 1 {
		maxLimit = 1
	}

	lim := parseIntQuery(r, "limit", defLimit)
	off := parseIntQuery(r, "offset", 0)
	if lim < 1 {
		lim = 1
	}
	if lim > maxLimit {
		lim = maxLimit
	}
	if off < 0 {
		off = 0
	}
	return lim, off
}

// isValidationError checks for common validation error patterns to decide 400 vs 5xx.
func isValidationError(err error) bool {
	if err == nil {
		return false
	}
	mapped := apperrors.MapDBError(err)
	if apperrors.IsValidation(mapped) || apperrors.IsConflict(mapped) || apperrors.IsForeignKey(mapped) {
		return true
	}
	msg := err.Error()
	for _, p := range validationErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// landingFor maps a role to its post-login landing page.
func landingFor(role domainauth.Role) string {
	if role == domainauth.RoleAdmin {
		return service.RouteAdmin
	}
	return service.RouteDashboard
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
