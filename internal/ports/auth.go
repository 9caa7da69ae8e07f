package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/domain/model"
)

// Credentials carries a password sign-in attempt.
type Credentials struct {
	Email    string
	Password string
}

// SignUpInput groups parameters for registration. The profile fields are
// attached as signup metadata; the profile record itself is created by the
// provider's backend, not by this application.
type SignUpInput struct {
	Email    string
	Password string
	Profile  model.CreateProfileRequest
}

// Unsubscribe detaches a notification subscriber. Safe to call more than once.
type Unsubscribe func()

// SessionProvider is the managed authentication service.
// It issues sessions on credential submission, persists them across restarts,
// and emits an ordered stream of lifecycle notifications. The notification
// stream, not the return values of SignIn/SignOut, is the source of truth
// for session state.
type SessionProvider interface {
	// GetCurrentSession returns the currently valid session, or nil when
	// signed out. Idempotent; used for the startup pull.
	GetCurrentSession(ctx context.Context) (*domainauth.Session, error)

	// Subscribe registers fn to receive every lifecycle notification in
	// emission order. fn must not block for long; delivery order per
	// subscriber is guaranteed.
	Subscribe(fn func(domainauth.Notification)) Unsubscribe

	// SignIn exchanges credentials for a session. The session is delivered
	// through the notification stream as well as returned here.
	SignIn(ctx context.Context, creds Credentials) (*domainauth.Session, error)

	// SignUp registers a new account. A session may not exist afterwards
	// (email confirmation flows).
	SignUp(ctx context.Context, in SignUpInput) error

	// SignOut invalidates the current session. The SIGNED_OUT notification
	// confirms completion.
	SignOut(ctx context.Context) error
}

// ProfileStore is the managed structured data store, keyed by user id.
type ProfileStore interface {
	// GetProfile returns the profile for userID, or ErrProfileNotFound.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)

	// HasRole reports membership in the role-assignment table.
	HasRole(ctx context.Context, userID string, role domainauth.Role) (bool, error)
}

// Navigator performs a navigation to an application route.
// The HTTP layer implements it per request; tests count calls.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) { f(path) }

// SessionStore persists resolved browser-session snapshots keyed by the
// opaque cookie id.
type SessionStore interface {
	Save(ctx context.Context, snap BrowserSession) error
	Get(ctx context.Context, id string) (BrowserSession, error)
	Delete(ctx context.Context, id string) error
}

// BrowserSession is the snapshot the HTTP layer stores per signed-in visitor.
// It carries only what middleware needs; the full auth state lives in the
// visitor's state machine.
type BrowserSession struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	Role      domainauth.Role `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
}
