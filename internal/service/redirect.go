package service

import (
	"context"
	"log/slog"
	"strings"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/ports"
)

// Route targets for the one-shot post-transition navigation.
const (
	RouteHome      = "/"
	RouteLogin     = "/login"
	RouteRegister  = "/cadastro"
	RouteDashboard = "/dashboard"
	RouteAdmin     = "/admin"
)

// publicRoutes are pages a signed-out visitor can sit on. A completed
// sign-in only navigates away from these; it never yanks a user out of a
// protected area they are already browsing.
var publicRoutes = map[string]struct{}{
	RouteHome:      {},
	RouteLogin:     {},
	RouteRegister:  {},
	"/beneficios":  {},
	"/contato":     {},
	"/privacidade": {},
	"/termos":      {},
}

// IsPublicRoute reports whether path is a public (marketing/auth) route.
func IsPublicRoute(path string) bool {
	p := strings.TrimSuffix(path, "/")
	if p == "" {
		p = RouteHome
	}
	_, ok := publicRoutes[p]
	return ok
}

// RedirectPolicy turns auth state transitions into at most one navigation
// per qualifying edge. It holds no deduplication state of its own: the
// machine emits each logical transition exactly once, and the policy only
// listens on transitions, never on renders.
type RedirectPolicy struct {
	nav    ports.Navigator
	logger *slog.Logger
}

// NewRedirectPolicy constructs a policy that drives nav.
func NewRedirectPolicy(nav ports.Navigator, logger *slog.Logger) *RedirectPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedirectPolicy{nav: nav, logger: logger}
}

// Decide computes the navigation for a transition observed at location.
// It returns the target route and whether to navigate at all.
//
// Sign-out always goes home, unconditionally. A completed sign-in navigates
// to the role's landing page only when the trigger was an explicit sign-in
// action and the visitor is on a public route; silent refreshes and the
// startup resolution on a protected page leave the user where they are.
func Decide(tr Transition, location string) (string, bool) {
	if tr.SignOutEdge() {
		return RouteHome, true
	}

	if !tr.SignInEdge() {
		return "", false
	}
	if tr.Trigger != domainauth.NotificationSignedIn {
		return "", false
	}
	if !IsPublicRoute(location) {
		return "", false
	}
	if tr.To.IsAdmin {
		return RouteAdmin, true
	}
	return RouteDashboard, true
}

// Run consumes transitions until ctx is done, navigating per Decide.
// location reports the visitor's current route at observation time.
func (p *RedirectPolicy) Run(ctx context.Context, transitions <-chan Transition, location func() string) {
	for {
		select {
		case tr, ok := <-transitions:
			if !ok {
				return
			}
			p.Observe(tr, location())
		case <-ctx.Done():
			return
		}
	}
}

// Observe applies Decide to a single transition and performs the navigation.
func (p *RedirectPolicy) Observe(tr Transition, location string) {
	target, ok := Decide(tr, location)
	if !ok {
		return
	}
	p.logger.Debug("navigating",
		"target", target,
		"from", location,
		"trigger", string(tr.Trigger))
	p.nav.Navigate(target)
}
