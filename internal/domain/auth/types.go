package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Session is the provider-issued session for an authenticated user.
// It is owned by the session provider; consumers hold it read-only and
// replace it wholesale when a new notification arrives.
type Session struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// SuperAdmin mirrors the provider's user_metadata.is_super_admin flag.
	SuperAdmin bool      `json:"super_admin"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session's access token is past its expiry.
func (s Session) Expired() bool { return time.Now().After(s.ExpiresAt) }

// NotificationKind identifies a session lifecycle notification.
type NotificationKind string

const (
	NotificationSignedIn       NotificationKind = "SIGNED_IN"
	NotificationSignedOut      NotificationKind = "SIGNED_OUT"
	NotificationTokenRefreshed NotificationKind = "TOKEN_REFRESHED"
	NotificationInitialSession NotificationKind = "INITIAL_SESSION"
)

// Notification is one entry in the provider's ordered lifecycle stream.
// Session is nil exactly when Kind is NotificationSignedOut.
type Notification struct {
	Kind    NotificationKind
	Session *Session
}
