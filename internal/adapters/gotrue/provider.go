package gotrue

// Package gotrue implements the session provider against a GoTrue-compatible
// authentication service (the API behind Supabase Auth). It owns the token
// pair, keeps it fresh in the background, and publishes every lifecycle
// change on an ordered notification stream.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/ports"
	"golang.org/x/oauth2"
)

// Config holds configuration for the GoTrue provider.
type Config struct {
	// BaseURL is the auth service root, e.g. https://xyz.supabase.co/auth/v1.
	BaseURL string
	// AnonKey is sent as the apikey header on every request.
	AnonKey string
	// JWTSecret verifies the HS256 access tokens the service issues.
	JWTSecret string
	// RefreshLeeway is how long before expiry the refresh fires. Default 1m.
	RefreshLeeway time.Duration
	HTTPClient    *http.Client // Optional, defaults to a 30s-timeout client
	Logger        *slog.Logger
}

// Provider implements ports.SessionProvider against GoTrue's REST endpoints.
//
// One Provider serves one visitor. The notification stream is the source of
// truth: SignIn and SignOut report transport failure only, and the state
// machine reacts to the notifications, not to the return values.
type Provider struct {
	baseURL    string
	anonKey    string
	secret     []byte
	leeway     time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	current *domainauth.Session
	token   *oauth2.Token
	subs    map[int]func(domainauth.Notification)
	nextSub int
	timer   *time.Timer
	closed  bool

	// dispatchMu serializes delivery so every subscriber observes
	// notifications in emission order.
	dispatchMu sync.Mutex
}

// NewProvider creates a GoTrue provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gotrue: BaseURL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("gotrue: JWTSecret is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	leeway := cfg.RefreshLeeway
	if leeway <= 0 {
		leeway = time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		baseURL:    cfg.BaseURL,
		anonKey:    cfg.AnonKey,
		secret:     []byte(cfg.JWTSecret),
		leeway:     leeway,
		httpClient: httpClient,
		logger:     logger,
		subs:       make(map[int]func(domainauth.Notification)),
	}, nil
}

// tokenResponse is the body of GoTrue's /token and /signup endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// errorResponse is GoTrue's error body. Older deployments use error/error_description,
// newer ones msg or message.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (p *Provider) GetCurrentSession(_ context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.token == nil || !p.token.Valid() {
		return nil, nil
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

// SignIn performs the password grant. The resulting session is installed and
// published as SIGNED_IN before SignIn returns.
func (p *Provider) SignIn(ctx context.Context, creds ports.Credentials) (*domainauth.Session, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	var tr tokenResponse
	status, err := p.post(ctx, "/token?grant_type=password", "", body, &tr)
	if err != nil {
		return nil, ports.NewAuthError(ports.AuthErrProvider, "auth service unreachable", err)
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, ports.NewAuthError(ports.AuthErrCredential, "invalid login credentials", nil)
	}
	if status != http.StatusOK {
		return nil, ports.NewAuthError(ports.AuthErrProvider, fmt.Sprintf("sign-in failed with status %d", status), nil)
	}

	sess, err := parseAccessToken(tr.AccessToken, tr.RefreshToken, p.secret)
	if err != nil {
		return nil, ports.NewAuthError(ports.AuthErrProvider, "malformed access token", err)
	}
	p.install(sess, &tr)
	p.publish(domainauth.Notification{Kind: domainauth.NotificationSignedIn, Session: sess})
	return sess, nil
}

// SignUp registers an account with the profile fields as signup metadata.
// The auth service's backend creates the profile row from that metadata, so
// no session or notification is produced here.
func (p *Provider) SignUp(ctx context.Context, in ports.SignUpInput) error {
	body := map[string]any{
		"email":    in.Email,
		"password": in.Password,
		"data": map[string]any{
			"name":        in.Profile.Name,
			"document":    in.Profile.Document,
			"phone":       in.Profile.Phone,
			"person_type": in.Profile.PersonType,
		},
	}
	var tr tokenResponse
	status, err := p.post(ctx, "/signup", "", body, &tr)
	if err != nil {
		return ports.NewAuthError(ports.AuthErrProvider, "auth service unreachable", err)
	}
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest || status == http.StatusConflict:
		return ports.NewAuthError(ports.AuthErrSignUp, "registration rejected", nil)
	default:
		return ports.NewAuthError(ports.AuthErrSignUp, fmt.Sprintf("sign-up failed with status %d", status), nil)
	}
}

// SignOut revokes the session server-side. The local session is dropped and
// SIGNED_OUT published even when revocation fails with a client error; the
// token is gone either way.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil {
		return nil
	}

	status, err := p.post(ctx, "/logout", cur.AccessToken, nil, nil)
	if err != nil {
		return ports.NewAuthError(ports.AuthErrLogout, "auth service unreachable", err)
	}
	if status >= http.StatusInternalServerError {
		return ports.NewAuthError(ports.AuthErrLogout, fmt.Sprintf("logout failed with status %d", status), nil)
	}

	p.install(nil, nil)
	p.publish(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
	return nil
}

// Close stops the refresh loop and drops all subscribers.
func (p *Provider) Close() {
	p.mu.Lock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.subs = make(map[int]func(domainauth.Notification))
	p.mu.Unlock()
}

// install swaps the current session and reschedules the refresh timer.
func (p *Provider) install(sess *domainauth.Session, tr *tokenResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.current = sess
	p.token = nil
	if sess == nil || p.closed {
		return
	}
	p.token = &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    "bearer",
		Expiry:       sess.ExpiresAt,
	}
	if tr != nil && tr.TokenType != "" {
		p.token.TokenType = tr.TokenType
	}

	wait := time.Until(sess.ExpiresAt) - p.leeway
	if wait < time.Second {
		wait = time.Second
	}
	p.timer = time.AfterFunc(wait, p.refresh)
}

// refresh rotates the token pair. Refresh failure means the session is gone
// (revoked, or the refresh token expired); the visitor is signed out.
func (p *Provider) refresh() {
	p.mu.Lock()
	if p.closed || p.current == nil {
		p.mu.Unlock()
		return
	}
	refreshToken := p.current.RefreshToken
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body := map[string]string{"refresh_token": refreshToken}
	var tr tokenResponse
	status, err := p.post(ctx, "/token?grant_type=refresh_token", "", body, &tr)
	if err != nil || status != http.StatusOK {
		p.logger.Warn("session refresh failed; signing out", "status", status, "error", err)
		p.install(nil, nil)
		p.publish(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
		return
	}

	sess, err := parseAccessToken(tr.AccessToken, tr.RefreshToken, p.secret)
	if err != nil {
		p.logger.Error("refresh returned a malformed access token; signing out", "error", err)
		p.install(nil, nil)
		p.publish(domainauth.Notification{Kind: domainauth.NotificationSignedOut})
		return
	}
	p.install(sess, &tr)
	p.publish(domainauth.Notification{Kind: domainauth.NotificationTokenRefreshed, Session: sess})
}

// publish delivers n to every subscriber in order.
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

// post sends a JSON request to the given path and decodes a JSON response
// into out when non-nil. Returns the HTTP status code.
func (p *Provider) post(ctx context.Context, path, bearer string, body, out any) (int, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, buf)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.anonKey != "" {
		req.Header.Set("apikey", p.anonKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", decodeErr)
		}
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var er errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&er); decodeErr == nil {
			if msg := er.text(); msg != "" {
				p.logger.Debug("auth service error", "path", path, "status", resp.StatusCode, "message", msg)
			}
		}
	}
	return resp.StatusCode, nil
}
