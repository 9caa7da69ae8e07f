package httpx

import (
	"context"

	"github.com/crednova/crednova-api/internal/ports"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given browser session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *ports.BrowserSession) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the browser session from context and a boolean indicating presence.
func GetSessionFromContext(ctx context.Context) (*ports.BrowserSession, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*ports.BrowserSession); ok && session != nil {
		return session, true
	}
	return nil, false
}
