package service

import (
	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/domain/model"
)

// Phase identifies which arm of the auth state union currently holds.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseResolving       Phase = "resolving"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseErrored         Phase = "errored"
)

// AuthState is the machine's canonical state. Exactly one phase holds at any
// instant. The whole value is replaced atomically on every transition, so an
// observer can never see a profile paired with a session id it does not
// belong to.
type AuthState struct {
	Phase     Phase
	SessionID string
	Session   *domainauth.Session
	Profile   *model.Profile
	IsAdmin   bool
	// Reason is set only in PhaseErrored. The session itself is still valid;
	// recovery is an explicit user-triggered retry.
	Reason error
}

// Unauthenticated reports whether no session is applied.
func (s AuthState) Unauthenticated() bool { return s.Phase == PhaseUnauthenticated }

// Authenticated reports whether a session and its profile are fully resolved.
func (s AuthState) Authenticated() bool { return s.Phase == PhaseAuthenticated }

// unauthenticatedState is the zero starting point of every machine.
func unauthenticatedState() AuthState {
	return AuthState{Phase: PhaseUnauthenticated}
}

// Transition is one observed state edge. The machine emits at most one
// Transition per edge; duplicate notifications for the same session id never
// produce a second Authenticated edge.
type Transition struct {
	From AuthState
	To   AuthState
	// Trigger is the notification kind that started the edge. RedirectPolicy
	// uses it to tell an explicit sign-in from a silent refresh or the
	// startup resolution.
	Trigger domainauth.NotificationKind
}

// SignInEdge reports whether this transition completes a sign-in resolution,
// i.e. lands in PhaseAuthenticated.
func (t Transition) SignInEdge() bool { return t.To.Phase == PhaseAuthenticated }

// SignOutEdge reports whether this transition lands in PhaseUnauthenticated
// from any other phase.
func (t Transition) SignOutEdge() bool {
	return t.To.Phase == PhaseUnauthenticated && t.From.Phase != PhaseUnauthenticated
}
