package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionProvider = (*ScriptedProvider)(nil)
	_ ports.ProfileStore    = (*MemoryProfileStore)(nil)
	_ ports.Navigator       = (*RecordingNavigator)(nil)
)

// ScriptedProvider simulates the managed session provider. Tests script its
// notification stream with Emit and override call behavior with the Func
// hooks. Delivery to subscribers is synchronous and in emission order.
type ScriptedProvider struct {
	mu      sync.Mutex
	subs    map[int]func(domainauth.Notification)
	nextSub int

	current *domainauth.Session

	SignInFunc     func(ctx context.Context, creds ports.Credentials) (*domainauth.Session, error)
	SignUpFunc     func(ctx context.Context, in ports.SignUpInput) error
	SignOutFunc    func(ctx context.Context) error
	GetCurrentFunc func(ctx context.Context) (*domainauth.Session, error)

	SignInCalls  int
	SignOutCalls int
	SignUpCalls  int

	unsubCalls int
}

// UnsubscribeCalls reports how many subscriptions have been cancelled.
func (p *ScriptedProvider) UnsubscribeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unsubCalls
}

// NewScriptedProvider creates an empty provider with no current session.
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{subs: make(map[int]func(domainauth.Notification))}
}

// SetCurrent sets the session returned by GetCurrentSession.
func (p *ScriptedProvider) SetCurrent(s *domainauth.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
}

// Emit delivers a notification to every subscriber in order.
func (p *ScriptedProvider) Emit(n domainauth.Notification) {
	p.mu.Lock()
	if n.Session != nil {
		p.current = n.Session
	}
	if n.Kind == domainauth.NotificationSignedOut {
		p.current = nil
	}
	fns := make([]func(domainauth.Notification), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(n)
	}
}

func (p *ScriptedProvider) GetCurrentSession(ctx context.Context) (*domainauth.Session, error) {
	if p.GetCurrentFunc != nil {
		return p.GetCurrentFunc(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *ScriptedProvider) Subscribe(fn func(domainauth.Notification)) ports.Unsubscribe {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.unsubCalls++
		p.mu.Unlock()
	}
}

func (p *ScriptedProvider) SignIn(ctx context.Context, creds ports.Credentials) (*domainauth.Session, error) {
	p.mu.Lock()
	p.SignInCalls++
	p.mu.Unlock()
	if p.SignInFunc != nil {
		return p.SignInFunc(ctx, creds)
	}
	sess := NewSession("sess-1", "user-1")
	p.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: sess})
	return sess, nil
}

func (p *ScriptedProvider) SignUp(ctx context.Context, in ports.SignUpInput) error {
	p.mu.Lock()
	p.SignUpCalls++
	p.mu.Unlock()
	if p.SignUpFunc != nil {
		return p.SignUpFunc(ctx, in)
	}
	return nil
}

func (p *ScriptedProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.SignOutCalls++
	p.mu.Unlock()
	if p.SignOutFunc != nil {
		return p.SignOutFunc(ctx)
	}
	p.Emit(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
	return nil
}

// NewSession builds a valid one-hour session for tests.
func NewSession(id, userID string) *domainauth.Session {
	return &domainauth.Session{
		ID:        id,
		UserID:    userID,
		Email:     userID + "@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// MemoryProfileStore is an in-memory ProfileStore. Tests preload profiles
// and role grants, inject errors, or gate calls with the Func hooks.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	admins   map[string]bool

	GetProfileFunc func(ctx context.Context, userID string) (*model.Profile, error)
	HasRoleFunc    func(ctx context.Context, userID string, role domainauth.Role) (bool, error)

	getProfileCalls int
}

// GetProfileCalls reports how many times GetProfile was invoked.
func (s *MemoryProfileStore) GetProfileCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getProfileCalls
}

// NewMemoryProfileStore creates an empty store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		profiles: make(map[string]model.Profile),
		admins:   make(map[string]bool),
	}
}

// Put stores a profile keyed by its id.
func (s *MemoryProfileStore) Put(p model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// GrantAdmin marks a user id as a member of the admin role table.
func (s *MemoryProfileStore) GrantAdmin(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[userID] = true
}

func (s *MemoryProfileStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	s.mu.Lock()
	s.getProfileCalls++
	fn := s.GetProfileFunc
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ports.ErrProfileNotFound
	}
	out := p
	return &out, nil
}

func (s *MemoryProfileStore) HasRole(ctx context.Context, userID string, role domainauth.Role) (bool, error) {
	if s.HasRoleFunc != nil {
		return s.HasRoleFunc(ctx, userID, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if role != domainauth.RoleAdmin {
		return false, nil
	}
	return s.admins[userID], nil
}

// Profile builds a minimal valid profile for tests.
func Profile(userID string) model.Profile {
	now := time.Now()
	return model.Profile{
		ID:         userID,
		Name:       "Test User",
		Document:   "123.456.789-00",
		Email:      userID + "@example.com",
		Phone:      "+55 11 90000-0000",
		PersonType: model.PersonTypeIndividual,
		Status:     model.CaseStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RecordingNavigator records navigations for assertion.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

// NewRecordingNavigator creates an empty navigator.
func NewRecordingNavigator() *RecordingNavigator { return &RecordingNavigator{} }

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns a copy of the recorded navigation targets in order.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Count returns how many navigations were performed.
func (n *RecordingNavigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.paths)
}
