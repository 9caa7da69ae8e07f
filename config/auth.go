package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeGoTrue uses a GoTrue-compatible token endpoint for authentication.
	AuthModeGoTrue AuthMode = "gotrue"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "gotrue", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: gotrue, mock)", v)
	}
}

// GoTrueConfig contains the token endpoint configuration.
// Used when AUTH_MODE=gotrue.
type GoTrueConfig struct {
	// URL is the base URL of the auth endpoint, e.g.
	// "https://project.supabase.co/auth/v1".
	URL string `env:"URL"`

	// AnonKey is the public API key sent with every auth request.
	AnonKey string `env:"ANON_KEY"`

	// JWTSecret verifies the HS256 signature of issued access tokens.
	JWTSecret string `env:"JWT_SECRET"`

	// RefreshLeeway is how long before access-token expiry the refresh fires.
	RefreshLeeway time.Duration `env:"REFRESH_LEEWAY" envDefault:"60s"`
}

// DevAuthConfig controls mock/dev authentication identities.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	// Users lists dev accounts as "email:password" pairs.
	Users []string `env:"USERS" envDefault:"dev@example.com:devpass" envSeparator:";"`

	// AdminEmail marks one of the dev accounts as a super admin.
	AdminEmail string `env:"ADMIN_EMAIL" envDefault:""`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"gotrue"`

	// GoTrue configuration (used when Mode=gotrue).
	GoTrue GoTrueConfig `envPrefix:"GOTRUE_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SuperAdminID names one user id that is treated as admin without a
	// role-table entry. Optional.
	SuperAdminID string `env:"AUTH_SUPER_ADMIN_ID" envDefault:""`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.GoTrue.RefreshLeeway <= 0 {
		a.GoTrue.RefreshLeeway = 60 * time.Second
	}
	a.GoTrue.URL = strings.TrimRight(strings.TrimSpace(a.GoTrue.URL), "/")
}

// Validate checks that the selected mode has the configuration it needs.
func (a *AuthConfig) Validate() error {
	if a.Mode == AuthModeGoTrue {
		if a.GoTrue.URL == "" {
			return fmt.Errorf("GOTRUE_URL is required when AUTH_MODE=gotrue")
		}
		if a.GoTrue.JWTSecret == "" {
			return fmt.Errorf("GOTRUE_JWT_SECRET is required when AUTH_MODE=gotrue")
		}
	}
	return nil
}
