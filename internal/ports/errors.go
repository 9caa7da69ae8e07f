package ports

import (
	"errors"
	"fmt"
)

// ErrProfileNotFound is returned by ProfileStore.GetProfile when no record
// exists for the user id. For a signed-in user this is a data-consistency
// fault, never an expected state.
var ErrProfileNotFound = errors.New("profile not found")

// AuthErrorKind categorizes provider-facing auth failures.
type AuthErrorKind string

const (
	// AuthErrCredential is a rejected email/password pair; surfaced to the
	// login form verbatim.
	AuthErrCredential AuthErrorKind = "credential"
	// AuthErrSignUp is a rejected registration (duplicate account, weak
	// password); surfaced to the registration form.
	AuthErrSignUp AuthErrorKind = "sign_up"
	// AuthErrLogout is a failed session invalidation. The session may still
	// be active; the UI must not claim the user is signed out until the
	// SIGNED_OUT notification arrives.
	AuthErrLogout AuthErrorKind = "logout"
	// AuthErrProvider is any other provider failure (network, 5xx).
	AuthErrProvider AuthErrorKind = "provider"
)

// AuthError is a structured provider failure. It wraps the provider's own
// error unmodified so callers can surface or inspect it.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error { return e.Cause }

// NewAuthError builds an AuthError with the given kind.
func NewAuthError(kind AuthErrorKind, message string, cause error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Cause: cause}
}

// AuthErrorKindOf extracts the kind from err, defaulting to AuthErrProvider.
func AuthErrorKindOf(err error) AuthErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return AuthErrProvider
}
