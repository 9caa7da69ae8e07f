package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/ports"
	"golang.org/x/sync/errgroup"
)

const (
	// notifBuffer absorbs provider bursts without blocking the emitter.
	notifBuffer = 64
	// transitionBuffer bounds the outbound transition stream. A slow or
	// absent consumer loses old transitions rather than stalling the machine.
	transitionBuffer = 32
)

// MachineOptions groups dependencies for Machine.
type MachineOptions struct {
	Provider ports.SessionProvider
	Profiles ports.ProfileStore
	// SuperAdminID, when non-empty, grants admin to that user id regardless
	// of the role table.
	SuperAdminID string
	Logger       *slog.Logger
}

// Machine owns the canonical auth state for one visitor. It consumes the
// provider's notification stream through a single consumer goroutine, issues
// profile and role queries in response, and publishes the derived state.
//
// Observed transitions are linearizable: every state write happens on the
// consumer goroutine. Resolution I/O runs concurrently but its result is
// applied only if the session id it was started for still matches the
// machine's current session id (discard-by-tag; the substitute for
// cancellation).
type Machine struct {
	provider     ports.SessionProvider
	profiles     ports.ProfileStore
	superAdminID string
	logger       *slog.Logger

	state atomic.Pointer[AuthState]

	notifCh chan queuedNotification
	resCh   chan resolution
	transCh chan Transition
	done    chan struct{}

	// streamSeen is owned by the consumer goroutine. Once any stream
	// notification has been processed, a late initial-pull result is stale
	// and gets dropped instead of re-applied.
	streamSeen bool

	unsub     ports.Unsubscribe
	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// queuedNotification wraps a notification with its origin: the subscription
// stream or the one-shot startup pull.
type queuedNotification struct {
	n        domainauth.Notification
	fromPull bool
}

// resolution is a completed profile/role fetch re-entering the consumer loop.
type resolution struct {
	sessionID string
	trigger   domainauth.NotificationKind
	profile   *model.Profile
	isAdmin   bool
	notFound  bool
	err       error
}

// NewMachine constructs a stopped machine in the Unauthenticated state.
// Call Start to subscribe and run the initial session check.
func NewMachine(opts MachineOptions) *Machine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		provider:     opts.Provider,
		profiles:     opts.Profiles,
		superAdminID: opts.SuperAdminID,
		logger:       logger,
		notifCh:      make(chan queuedNotification, notifBuffer),
		resCh:        make(chan resolution, 1),
		transCh:      make(chan Transition, transitionBuffer),
		done:         make(chan struct{}),
	}
	initial := unauthenticatedState()
	m.state.Store(&initial)
	return m
}

// Start subscribes to the provider's notification stream and issues the
// one-shot initial session pull. The pull result and the subscription's
// INITIAL_SESSION notification may both arrive; duplicate suppression by
// session id keeps the resolution pass from running twice.
func (m *Machine) Start(ctx context.Context) {
	m.unsub = m.provider.Subscribe(func(n domainauth.Notification) {
		m.enqueue(queuedNotification{n: n})
	})

	m.wg.Add(1)
	go m.run()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		sess, err := m.provider.GetCurrentSession(ctx)
		if err != nil {
			m.logger.WarnContext(ctx, "initial session check failed", "error", err)
			return
		}
		if sess == nil {
			return
		}
		m.enqueue(queuedNotification{
			n:        domainauth.Notification{Kind: domainauth.NotificationInitialSession, Session: sess},
			fromPull: true,
		})
	}()
}

// Close unsubscribes from the provider, stops the consumer goroutine, and
// closes the transition stream so consumers can tell shutdown from silence.
// The machine's last published state remains readable.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		if m.unsub != nil {
			m.unsub()
		}
		close(m.done)
		// apply only runs on the consumer goroutine, so once it exits
		// nothing can send on transCh.
		m.wg.Wait()
		close(m.transCh)
	})
	m.wg.Wait()
}

// State returns the current state snapshot.
func (m *Machine) State() AuthState { return *m.state.Load() }

// Transitions exposes the ordered stream of observed state edges.
func (m *Machine) Transitions() <-chan Transition { return m.transCh }

// DroppedTransitions reports how many transitions were discarded because
// the consumer fell behind.
func (m *Machine) DroppedTransitions() uint64 { return m.dropped.Load() }

// enqueue feeds a notification into the consumer loop, preserving order.
func (m *Machine) enqueue(q queuedNotification) {
	select {
	case m.notifCh <- q:
	case <-m.done:
	}
}

func (m *Machine) run() {
	defer m.wg.Done()
	for {
		select {
		case q := <-m.notifCh:
			if q.fromPull && m.streamSeen {
				// The subscription already moved the state past this pull.
				m.logger.Debug("discarding stale initial-pull result")
				continue
			}
			if !q.fromPull {
				m.streamSeen = true
			}
			m.handleNotification(q.n)
		case r := <-m.resCh:
			m.applyResolution(r)
		case <-m.done:
			return
		}
	}
}

func (m *Machine) handleNotification(n domainauth.Notification) {
	if n.Kind == domainauth.NotificationSignedOut || n.Session == nil {
		m.handleSignedOut(n.Kind)
		return
	}

	cur := m.State()

	// Duplicate or refresh for the already-applied session: swap the session
	// reference only. No second resolution pass, no transition, no redirect.
	if cur.SessionID == n.Session.ID &&
		(cur.Phase == PhaseAuthenticated || cur.Phase == PhaseResolving) {
		next := cur
		next.Session = n.Session
		m.state.Store(&next)
		return
	}

	// New session id (or we were unauthenticated/errored): start a tagged
	// resolution pass.
	next := AuthState{
		Phase:     PhaseResolving,
		SessionID: n.Session.ID,
		Session:   n.Session,
	}
	m.apply(cur, next, n.Kind)

	sess := *n.Session
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.resolve(sess, n.Kind)
	}()
}

func (m *Machine) handleSignedOut(kind domainauth.NotificationKind) {
	cur := m.State()
	next := unauthenticatedState()
	// In-flight resolutions for the previous session id are discarded by the
	// tag check; no explicit cancellation needed.
	m.apply(cur, next, kind)
}

// resolve runs the profile and role queries concurrently and reports back
// into the consumer loop. It never writes state itself.
func (m *Machine) resolve(sess domainauth.Session, trigger domainauth.NotificationKind) {
	ctx := context.Background()
	res := resolution{sessionID: sess.ID, trigger: trigger}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := m.profiles.GetProfile(gctx, sess.UserID)
		if err != nil {
			if errors.Is(err, ports.ErrProfileNotFound) {
				res.notFound = true
				return err
			}
			return fmt.Errorf("fetch profile: %w", err)
		}
		res.profile = p
		return nil
	})
	g.Go(func() error {
		isAdmin, err := m.resolveRole(gctx, sess)
		if err != nil {
			return fmt.Errorf("resolve role: %w", err)
		}
		res.isAdmin = isAdmin
		return nil
	})
	if err := g.Wait(); err != nil {
		res.err = err
	}

	select {
	case m.resCh <- res:
	case <-m.done:
	}
}

// resolveRole recomputes admin standing for the session's user. Role is never
// cached across sessions; stale role data for a previous user cannot leak
// into a new one because resolution output is tagged with the session id.
func (m *Machine) resolveRole(ctx context.Context, sess domainauth.Session) (bool, error) {
	if sess.SuperAdmin {
		return true, nil
	}
	if m.superAdminID != "" && sess.UserID == m.superAdminID {
		return true, nil
	}
	return m.profiles.HasRole(ctx, sess.UserID, domainauth.RoleAdmin)
}

func (m *Machine) applyResolution(r resolution) {
	cur := m.State()

	// Stale result: the session this pass was started for is no longer the
	// applied one. Drop it silently.
	if cur.SessionID != r.sessionID || cur.Phase != PhaseResolving {
		m.logger.Debug("discarding stale resolution",
			"resolved_session", r.sessionID,
			"current_session", cur.SessionID,
			"phase", string(cur.Phase))
		return
	}

	switch {
	case r.notFound:
		// A signed-in user without a profile is a data-consistency fault.
		// Log loudly; never guess a role.
		m.logger.Error("profile missing for signed-in user",
			"session_id", r.sessionID,
			"user_id", cur.Session.UserID)
		m.apply(cur, AuthState{
			Phase:     PhaseErrored,
			SessionID: r.sessionID,
			Session:   cur.Session,
			Reason:    ports.ErrProfileNotFound,
		}, r.trigger)

	case r.err != nil:
		// Transient failure. The session stays valid; retry is the caller's
		// call, never automatic.
		m.logger.Warn("profile resolution failed",
			"session_id", r.sessionID,
			"error", r.err)
		m.apply(cur, AuthState{
			Phase:     PhaseErrored,
			SessionID: r.sessionID,
			Session:   cur.Session,
			Reason:    r.err,
		}, r.trigger)

	default:
		m.apply(cur, AuthState{
			Phase:     PhaseAuthenticated,
			SessionID: r.sessionID,
			Session:   cur.Session,
			Profile:   r.profile,
			IsAdmin:   r.isAdmin,
		}, r.trigger)
	}
}

// Retry re-runs the resolution pass for the current session after an
// Errored state. No-op in any other phase.
func (m *Machine) Retry() {
	cur := m.State()
	if cur.Phase != PhaseErrored || cur.Session == nil {
		return
	}
	m.enqueue(queuedNotification{
		n: domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: cur.Session},
	})
}

// apply stores the new state and emits the transition.
func (m *Machine) apply(from, to AuthState, trigger domainauth.NotificationKind) {
	m.state.Store(&to)
	tr := Transition{From: from, To: to, Trigger: trigger}
	select {
	case m.transCh <- tr:
	default:
		m.dropped.Add(1)
		m.logger.Warn("transition dropped: consumer not keeping up",
			"to_phase", string(to.Phase))
	}
}
