package devauth

// Package devauth provides a config-driven, in-memory session provider for
// local development. It speaks the same notification stream as the real
// provider, so the rest of the application cannot tell them apart.

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is one seeded dev account.
type User struct {
	ID         string
	Email      string
	Password   string
	SuperAdmin bool
}

// Config controls the dev provider behavior.
type Config struct {
	Users           []User
	SessionDuration time.Duration // default 8h when zero
}

type account struct {
	id           string
	passwordHash []byte
	superAdmin   bool
}

// Provider implements ports.SessionProvider against a seeded in-memory user
// set. Passwords are bcrypt-hashed at construction so SignIn exercises the
// same comparison path as a real credential check.
type Provider struct {
	sessionDuration time.Duration

	mu       sync.Mutex
	accounts map[string]account // keyed by lowercased email
	current  *domainauth.Session
	subs     map[int]func(domainauth.Notification)
	nextSub  int

	dispatchMu sync.Mutex
}

// NewProvider constructs a dev provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("dev auth: at least one user is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	accounts := make(map[string]account, len(cfg.Users))
	for _, u := range cfg.Users {
		if u.Email == "" || u.Password == "" {
			return nil, errors.New("dev auth: every user needs an email and password")
		}
		id := u.ID
		if id == "" {
			id = uuid.NewString()
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		accounts[strings.ToLower(u.Email)] = account{
			id:           id,
			passwordHash: hash,
			superAdmin:   u.SuperAdmin,
		}
	}
	return &Provider{
		sessionDuration: dur,
		accounts:        accounts,
		subs:            make(map[int]func(domainauth.Notification)),
	}, nil
}

func (p *Provider) GetCurrentSession(_ context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.current.Expired() {
		p.current = nil
	}
	return p.current, nil
}

func (p *Provider) Subscribe(fn func(domainauth.Notification)) ports.Unsubscribe {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Provider) SignIn(_ context.Context, creds ports.Credentials) (*domainauth.Session, error) {
	p.mu.Lock()
	acct, ok := p.accounts[strings.ToLower(creds.Email)]
	p.mu.Unlock()
	if !ok {
		return nil, ports.NewAuthError(ports.AuthErrCredential, "invalid login credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(creds.Password)); err != nil {
		return nil, ports.NewAuthError(ports.AuthErrCredential, "invalid login credentials", nil)
	}

	sess := &domainauth.Session{
		ID:           uuid.NewString(),
		UserID:       acct.id,
		Email:        strings.ToLower(creds.Email),
		AccessToken:  "dev-access-" + uuid.NewString(),
		RefreshToken: "dev-refresh-" + uuid.NewString(),
		SuperAdmin:   acct.superAdmin,
		ExpiresAt:    time.Now().Add(p.sessionDuration),
	}
	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()
	p.publish(domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: sess})
	return sess, nil
}

// SignUp registers the account in memory. No profile row is created; pair
// this provider with a seeded profile store in development.
func (p *Provider) SignUp(_ context.Context, in ports.SignUpInput) error {
	key := strings.ToLower(in.Email)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[key]; exists {
		return ports.NewAuthError(ports.AuthErrSignUp, "user already registered", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return ports.NewAuthError(ports.AuthErrSignUp, "hash password", err)
	}
	id := in.Profile.ID
	if id == "" {
		id = uuid.NewString()
	}
	p.accounts[key] = account{id: id, passwordHash: hash}
	return nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	had := p.current != nil
	p.current = nil
	p.mu.Unlock()
	if had {
		p.publish(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
	}
	return nil
}

func (p *Provider) publish(n domainauth.Notification) {
	p.mu.Lock()
	fns := make([]func(domainauth.Notification), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()
	for _, fn := range fns {
		fn(n)
	}
}
