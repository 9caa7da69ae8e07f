package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/domain/model"
	mocks "github.com/crednova/crednova-api/internal/mocks/auth"
	"github.com/crednova/crednova-api/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T, opts MachineOptions) *Machine {
	t.Helper()
	m := NewMachine(opts)
	m.Start(context.Background())
	t.Cleanup(m.Close)
	return m
}

// awaitPhase blocks until the machine publishes the wanted phase.
func awaitPhase(t *testing.T, m *Machine, phase Phase) AuthState {
	t.Helper()
	var st AuthState
	require.Eventually(t, func() bool {
		st = m.State()
		return st.Phase == phase
	}, 2*time.Second, time.Millisecond, "machine never reached phase %s", phase)
	return st
}

// drainTransitions consumes everything currently buffered.
func drainTransitions(m *Machine) []Transition {
	var out []Transition
	for {
		select {
		case tr := <-m.Transitions():
			out = append(out, tr)
		default:
			return out
		}
	}
}

func TestMachineStartsUnauthenticated(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	st := m.State()
	assert.Equal(t, PhaseUnauthenticated, st.Phase)
	assert.Empty(t, st.SessionID)
	assert.Nil(t, st.Profile)
}

func TestMachineSignInResolvesProfile(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-1", "user-1"),
	})

	st := awaitPhase(t, m, PhaseAuthenticated)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "user-1", st.Profile.ID)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.False(t, st.IsAdmin)

	// Observed sequence: Unauthenticated -> Resolving -> Authenticated.
	trs := drainTransitions(m)
	require.Len(t, trs, 2)
	assert.Equal(t, PhaseResolving, trs[0].To.Phase)
	assert.Equal(t, PhaseAuthenticated, trs[1].To.Phase)
	assert.Equal(t, domainauth.NotificationSignedIn, trs[1].Trigger)
}

func TestMachineDuplicateNotificationsRunOneResolution(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	sess := mocks.NewSession("sess-1", "user-1")
	// Refresh storm: the same session id over and over.
	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: sess})
	for range 10 {
		provider.Emit(domainauth.Notification{Kind: domainauth.NotificationTokenRefreshed, Session: sess})
		provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: sess})
	}

	awaitPhase(t, m, PhaseAuthenticated)
	// Give any extra (buggy) resolution passes a chance to show themselves.
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, profiles.GetProfileCalls(), "duplicate notifications must not re-run resolution")
}

func TestMachineTokenRefreshSwapsSessionReference(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	first := mocks.NewSession("sess-1", "user-1")
	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: first})
	awaitPhase(t, m, PhaseAuthenticated)
	drainTransitions(m)

	refreshed := *first
	refreshed.AccessToken = "rotated"
	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationTokenRefreshed, Session: &refreshed})

	require.Eventually(t, func() bool {
		st := m.State()
		return st.Session != nil && st.Session.AccessToken == "rotated"
	}, 2*time.Second, time.Millisecond)

	st := m.State()
	assert.Equal(t, PhaseAuthenticated, st.Phase, "refresh must not leave Authenticated")
	assert.Empty(t, drainTransitions(m), "refresh must not emit a transition")
}

func TestMachineSignOutIsUnconditional(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-1", "user-1"),
	})
	awaitPhase(t, m, PhaseAuthenticated)

	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedOut})

	st := awaitPhase(t, m, PhaseUnauthenticated)
	assert.Nil(t, st.Session)
	assert.Nil(t, st.Profile)
	assert.False(t, st.IsAdmin)
	assert.Empty(t, st.SessionID)
}

func TestMachineStaleResolutionDiscarded(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-a"))
	profiles.Put(mocks.Profile("user-b"))

	// Gate user-a's profile fetch so its resolution completes only after
	// session B is fully authenticated.
	releaseA := make(chan struct{})
	profiles.GetProfileFunc = func(ctx context.Context, userID string) (*model.Profile, error) {
		if userID == "user-a" {
			<-releaseA
		}
		p := mocks.Profile(userID)
		return &p, nil
	}

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-a", "user-a"),
	})
	awaitPhase(t, m, PhaseResolving)

	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-b", "user-b"),
	})
	st := awaitPhase(t, m, PhaseAuthenticated)
	require.Equal(t, "sess-b", st.SessionID)

	// Now the late A-result lands. It must not overwrite B's state.
	close(releaseA)
	time.Sleep(20 * time.Millisecond)

	st = m.State()
	assert.Equal(t, PhaseAuthenticated, st.Phase)
	assert.Equal(t, "sess-b", st.SessionID)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "user-b", st.Profile.ID)
}

func TestMachineAtomicSessionProfilePairing(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	for _, u := range []string{"user-1", "user-2", "user-3"} {
		profiles.Put(mocks.Profile(u))
	}

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	stop := make(chan struct{})
	violations := make(chan string, 1)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := m.State()
			if st.Phase == PhaseAuthenticated && st.Profile != nil && st.Session != nil {
				if st.Profile.ID != st.Session.UserID {
					select {
					case violations <- st.Profile.ID + " paired with " + st.Session.UserID:
					default:
					}
					return
				}
			}
		}
	}()

	for i, u := range []string{"user-1", "user-2", "user-3", "user-1", "user-2"} {
		provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
		provider.Emit(domainauth.Notification{
			Kind:    domainauth.NotificationSignedIn,
			Session: mocks.NewSession("sess-"+string(rune('a'+i)), u),
		})
		awaitPhase(t, m, PhaseAuthenticated)
	}
	close(stop)

	select {
	case v := <-violations:
		t.Fatalf("profile/session pairing violated: %s", v)
	default:
	}
}

func TestMachineProfileNotFoundIsErrored(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore() // intentionally empty

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-1", "ghost-user"),
	})

	st := awaitPhase(t, m, PhaseErrored)
	assert.ErrorIs(t, st.Reason, ports.ErrProfileNotFound)
	// The session itself is still valid and retained.
	require.NotNil(t, st.Session)
	assert.Equal(t, "sess-1", st.SessionID)
}

func TestMachineTransientFailureThenRetry(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))

	var fail atomic.Bool
	fail.Store(true)
	profiles.GetProfileFunc = func(ctx context.Context, userID string) (*model.Profile, error) {
		if fail.Load() {
			return nil, errors.New("store unreachable")
		}
		p := mocks.Profile(userID)
		return &p, nil
	}

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-1", "user-1"),
	})
	st := awaitPhase(t, m, PhaseErrored)
	require.Error(t, st.Reason)
	assert.NotErrorIs(t, st.Reason, ports.ErrProfileNotFound)

	// No automatic retry: state stays Errored until an explicit Retry.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, PhaseErrored, m.State().Phase)

	fail.Store(false)
	m.Retry()
	st = awaitPhase(t, m, PhaseAuthenticated)
	assert.Equal(t, "sess-1", st.SessionID)
}

func TestMachineRoleResolution(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		superFlag    bool
		superAdminID string
		grantAdmin   bool
		wantAdmin    bool
	}{
		{name: "role table member", userID: "staff-1", grantAdmin: true, wantAdmin: true},
		{name: "not in role table", userID: "user-1", wantAdmin: false},
		{name: "metadata super admin flag", userID: "user-2", superFlag: true, wantAdmin: true},
		{name: "fixed super admin id beats role table", userID: "boss-1", superAdminID: "boss-1", wantAdmin: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mocks.NewScriptedProvider()
			profiles := mocks.NewMemoryProfileStore()
			profiles.Put(mocks.Profile(tt.userID))
			if tt.grantAdmin {
				profiles.GrantAdmin(tt.userID)
			}

			m := newTestMachine(t, MachineOptions{
				Provider:     provider,
				Profiles:     profiles,
				SuperAdminID: tt.superAdminID,
			})

			sess := mocks.NewSession("sess-1", tt.userID)
			sess.SuperAdmin = tt.superFlag
			provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: sess})

			st := awaitPhase(t, m, PhaseAuthenticated)
			assert.Equal(t, tt.wantAdmin, st.IsAdmin)
		})
	}
}

func TestMachineNoStaleRoleAcrossUsers(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("admin-1"))
	profiles.Put(mocks.Profile("user-1"))
	profiles.GrantAdmin("admin-1")

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-a", "admin-1"),
	})
	st := awaitPhase(t, m, PhaseAuthenticated)
	require.True(t, st.IsAdmin)

	// New user signs in; the previous user's admin standing must not leak.
	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-b", "user-1"),
	})
	require.Eventually(t, func() bool {
		s := m.State()
		return s.Phase == PhaseAuthenticated && s.SessionID == "sess-b"
	}, 2*time.Second, time.Millisecond)
	assert.False(t, m.State().IsAdmin)
}

func TestMachineInitialPullResolvesExistingSession(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))
	provider.SetCurrent(mocks.NewSession("sess-1", "user-1"))

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	st := awaitPhase(t, m, PhaseAuthenticated)
	assert.Equal(t, "sess-1", st.SessionID)

	trs := drainTransitions(m)
	require.NotEmpty(t, trs)
	last := trs[len(trs)-1]
	assert.Equal(t, domainauth.NotificationInitialSession, last.Trigger,
		"startup resolution must be attributed to the initial pull, not a sign-in")
}

func TestMachinePullAndInitialNotificationBothArrive(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))
	sess := mocks.NewSession("sess-1", "user-1")
	provider.SetCurrent(sess)

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	// The subscription replays the same session the pull returns.
	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationInitialSession, Session: sess})

	awaitPhase(t, m, PhaseAuthenticated)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, profiles.GetProfileCalls(),
		"racing pull and subscription must not run resolution twice")
}

func TestMachineStalePullDiscardedAfterStreamActivity(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-old"))

	// Hold the pull until after the stream has signed the visitor out.
	release := make(chan struct{})
	provider.GetCurrentFunc = func(ctx context.Context) (*domainauth.Session, error) {
		<-release
		return mocks.NewSession("sess-old", "user-old"), nil
	}

	m := newTestMachine(t, MachineOptions{Provider: provider, Profiles: profiles})

	provider.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
	require.Eventually(t, func() bool {
		return m.State().Phase == PhaseUnauthenticated
	}, 2*time.Second, time.Millisecond)

	close(release)
	time.Sleep(20 * time.Millisecond)

	st := m.State()
	assert.Equal(t, PhaseUnauthenticated, st.Phase,
		"a stale pull result must not resurrect a session the stream already ended")
}

func TestMachineCloseUnsubscribes(t *testing.T) {
	provider := mocks.NewScriptedProvider()
	profiles := mocks.NewMemoryProfileStore()
	profiles.Put(mocks.Profile("user-1"))

	m := NewMachine(MachineOptions{Provider: provider, Profiles: profiles})
	m.Start(context.Background())
	m.Close()

	// Emissions after Close must not panic or mutate state.
	provider.Emit(domainauth.Notification{
		Kind:    domainauth.NotificationSignedIn,
		Session: mocks.NewSession("sess-1", "user-1"),
	})
	assert.Equal(t, PhaseUnauthenticated, m.State().Phase)
}
