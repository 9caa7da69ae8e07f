package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/ports"
)

// ErrFlowNotFound is returned when no flow is bound to a browser session id.
var ErrFlowNotFound = errors.New("auth flow not found")

// ErrResolutionTimeout is returned when a login's resolution pass does not
// reach a terminal phase in time. The machine stays in Resolving; the UI
// treats this as an error state.
var ErrResolutionTimeout = errors.New("auth resolution timed out")

// ErrFlowClosed is returned when the flow is torn down while a caller is
// waiting on its transition stream.
var ErrFlowClosed = errors.New("auth flow closed")

// ProviderFactory builds a per-visitor session provider instance. Each
// visitor's provider holds that visitor's tokens and refresh loop.
type ProviderFactory func() ports.SessionProvider

// Flow bundles one visitor's provider, machine, and actions.
type Flow struct {
	Machine  *Machine
	Actions  *Actions
	provider ports.SessionProvider

	closeOnce sync.Once
}

// AwaitTerminal blocks until the machine reaches Authenticated or Errored,
// consuming the transition stream. Used by the login handler to turn the
// notification-driven resolution into an HTTP response.
func (f *Flow) AwaitTerminal(ctx context.Context) (Transition, error) {
	// The terminal transition may already have been published before the
	// caller started listening. Login flows are the only callers, so
	// SIGNED_IN is the correct trigger attribution for that case.
	if st := f.Machine.State(); st.Phase == PhaseAuthenticated || st.Phase == PhaseErrored {
		return Transition{To: st, Trigger: domainauth.NotificationSignedIn}, nil
	}
	for {
		select {
		case tr, ok := <-f.Machine.Transitions():
			if !ok {
				return Transition{}, ErrFlowClosed
			}
			if tr.To.Phase == PhaseAuthenticated || tr.To.Phase == PhaseErrored {
				return tr, nil
			}
		case <-ctx.Done():
			return Transition{}, ErrResolutionTimeout
		}
	}
}

// Close tears the flow down: unsubscribes the machine and stops the
// provider's refresh loop if it has one. Safe to call more than once; the
// logout handler and the registry's sign-out watcher can race here.
func (f *Flow) Close() {
	f.closeOnce.Do(func() {
		f.Machine.Close()
		if c, ok := f.provider.(interface{ Close() }); ok {
			c.Close()
		}
	})
}

// FlowRegistryOptions groups dependencies for FlowRegistry. Sessions is the
// browser session snapshot store; when set, the registry deletes a bound
// flow's snapshot as soon as the provider signs the flow out, so stale
// cookies stop authenticating before the snapshot's own TTL.
type FlowRegistryOptions struct {
	NewProvider  ProviderFactory
	Profiles     ports.ProfileStore
	Sessions     ports.SessionStore
	SuperAdminID string
	Logger       *slog.Logger
}

// FlowRegistry owns the live auth flows, keyed by browser session id. A flow
// is created during login, bound once the browser session cookie is issued,
// and torn down on logout or expiry.
type FlowRegistry struct {
	mu    sync.Mutex
	flows map[string]*Flow

	newProvider  ProviderFactory
	profiles     ports.ProfileStore
	sessions     ports.SessionStore
	superAdminID string
	logger       *slog.Logger
}

// NewFlowRegistry constructs an empty registry.
func NewFlowRegistry(opts FlowRegistryOptions) *FlowRegistry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowRegistry{
		flows:        make(map[string]*Flow),
		newProvider:  opts.NewProvider,
		profiles:     opts.Profiles,
		sessions:     opts.Sessions,
		superAdminID: opts.SuperAdminID,
		logger:       logger,
	}
}

// Begin creates and starts an unbound flow for a fresh login attempt.
func (r *FlowRegistry) Begin(ctx context.Context) *Flow {
	provider := r.newProvider()
	machine := NewMachine(MachineOptions{
		Provider:     provider,
		Profiles:     r.profiles,
		SuperAdminID: r.superAdminID,
		Logger:       r.logger,
	})
	machine.Start(ctx)
	return &Flow{
		Machine:  machine,
		Actions:  NewActions(provider, r.logger),
		provider: provider,
	}
}

// Bind registers a flow under the browser session id. Any flow previously
// bound to the same id is closed first. Binding hands the flow's transition
// stream to the registry: a provider-side sign-out tears the flow down and
// drops the session snapshot, so AwaitTerminal must complete before Bind.
func (r *FlowRegistry) Bind(id string, f *Flow) {
	r.mu.Lock()
	old := r.flows[id]
	r.flows[id] = f
	r.mu.Unlock()
	if old != nil {
		old.Close()
	}
	go r.watch(id, f)
}

// watch consumes a bound flow's transition stream until the flow closes or
// the provider signs it out. On sign-out the flow is removed, its snapshot
// deleted, and the flow closed, so the cookie stops authenticating
// immediately instead of riding out the snapshot TTL.
func (r *FlowRegistry) watch(id string, f *Flow) {
	for tr := range f.Machine.Transitions() {
		if !tr.To.Unauthenticated() {
			continue
		}
		r.logger.Info("provider signed out bound flow", "session_id", id, "trigger", tr.Trigger)
		r.mu.Lock()
		if r.flows[id] == f {
			delete(r.flows, id)
		}
		r.mu.Unlock()
		r.dropSnapshot(id)
		f.Close()
		return
	}
}

// dropSnapshot deletes the browser session snapshot for id, if a session
// store is configured.
func (r *FlowRegistry) dropSnapshot(id string) {
	if r.sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.sessions.Delete(ctx, id); err != nil {
		r.logger.Warn("failed to delete session snapshot", "session_id", id, "error", err)
	}
}

// Get returns the flow bound to id.
func (r *FlowRegistry) Get(id string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return f, nil
}

// End closes and removes the flow bound to id. Missing ids are a no-op:
// the browser session may have outlived its flow across a restart.
func (r *FlowRegistry) End(id string) {
	r.mu.Lock()
	f := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if f != nil {
		f.Close()
	}
}

// ReapExpired closes flows whose machines are signed out or whose sessions
// are past expiry. Returns the number of flows removed.
func (r *FlowRegistry) ReapExpired() int {
	r.mu.Lock()
	var doomed []string
	for id, f := range r.flows {
		st := f.Machine.State()
		if st.Unauthenticated() || (st.Session != nil && st.Session.Expired()) {
			doomed = append(doomed, id)
		}
	}
	victims := make([]*Flow, 0, len(doomed))
	for _, id := range doomed {
		victims = append(victims, r.flows[id])
		delete(r.flows, id)
	}
	r.mu.Unlock()

	for i, f := range victims {
		f.Close()
		r.dropSnapshot(doomed[i])
	}
	if len(victims) > 0 {
		r.logger.Info("reaped expired auth flows", "count", len(victims))
	}
	return len(victims)
}

// RunReaper reaps expired flows on the given interval until ctx is done.
func (r *FlowRegistry) RunReaper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.ReapExpired()
		case <-ctx.Done():
			return
		}
	}
}

// CloseAll tears down every live flow. Called on shutdown.
func (r *FlowRegistry) CloseAll() {
	r.mu.Lock()
	victims := make([]*Flow, 0, len(r.flows))
	for _, f := range r.flows {
		victims = append(victims, f)
	}
	r.flows = make(map[string]*Flow)
	r.mu.Unlock()
	for _, f := range victims {
		f.Close()
	}
}
