package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crednova/crednova-api/internal/ports"
)

// Actions are the imperative auth entry points the UI calls. They talk to
// the provider and nothing else: profile, role, and navigation are driven
// solely by the notification stream the provider emits afterwards. Keeping
// a single update path avoids the interleaving bugs that come from the call
// path and the stream both writing state (flash of wrong role, double
// navigation).
type Actions struct {
	provider ports.SessionProvider
	logger   *slog.Logger
}

// NewActions constructs Actions over the given provider.
func NewActions(provider ports.SessionProvider, logger *slog.Logger) *Actions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actions{provider: provider, logger: logger}
}

// Login exchanges credentials for a session. On success the caller gets nil
// immediately; state and navigation follow from the SIGNED_IN notification.
// On failure the provider's error is returned unmodified and no state
// changes.
func (a *Actions) Login(ctx context.Context, creds ports.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return ports.NewAuthError(ports.AuthErrCredential, "email and password are required", nil)
	}
	if _, err := a.provider.SignIn(ctx, creds); err != nil {
		return err
	}
	return nil
}

// Register submits a sign-up with the profile fields attached as metadata
// for the provider's backend to create the profile record. The caller must
// not assume a session exists afterwards; some configurations require email
// confirmation first.
func (a *Actions) Register(ctx context.Context, in ports.SignUpInput) error {
	if in.Email == "" || in.Password == "" {
		return ports.NewAuthError(ports.AuthErrSignUp, "email and password are required", nil)
	}
	if err := in.Profile.Validate(); err != nil {
		return ports.NewAuthError(ports.AuthErrSignUp, err.Error(), err)
	}
	return a.provider.SignUp(ctx, in)
}

// Logout asks the provider to invalidate the session. Whatever this call
// returns, the eventual SIGNED_OUT notification is the ground truth; if the
// call fails and no notification arrives, the visitor is still signed in and
// the UI must say so rather than pretend otherwise.
func (a *Actions) Logout(ctx context.Context) error {
	if err := a.provider.SignOut(ctx); err != nil {
		a.logger.WarnContext(ctx, "logout call failed; session may still be active", "error", err)
		var ae *ports.AuthError
		if errors.As(err, &ae) {
			return err
		}
		return ports.NewAuthError(ports.AuthErrLogout, "logout did not complete", err)
	}
	return nil
}
