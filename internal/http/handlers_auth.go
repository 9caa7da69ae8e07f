package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/ports"
	"github.com/crednova/crednova-api/internal/service"
)

// resolveTimeout bounds the wait for a login's resolution pass. A provider
// that never reaches a terminal phase surfaces as a timed-out login, not a
// hung request.
const resolveTimeout = 10 * time.Second

// AuthHandlers serves the login, registration, logout, and session status
// endpoints. Login drives a full auth flow: start a machine, sign in, await
// the resolution pass, then issue the browser session cookie.
type AuthHandlers struct {
	registry *service.FlowRegistry
	sessions ports.SessionStore

	// baseCtx outlives individual requests. Flows started during login keep
	// running (token refresh, notifications) after the login response is
	// written, so they must not inherit the request context.
	baseCtx context.Context

	sessionTTL   time.Duration
	cookieDomain string
	cookieSecure bool
	logger       *slog.Logger
}

// AuthHandlersOptions groups dependencies for NewAuthHandlers.
type AuthHandlersOptions struct {
	Registry     *service.FlowRegistry
	Sessions     ports.SessionStore
	BaseCtx      context.Context
	SessionTTL   time.Duration
	CookieDomain string
	CookieSecure bool
	Logger       *slog.Logger
}

// NewAuthHandlers constructs the auth endpoint handlers.
func NewAuthHandlers(opts AuthHandlersOptions) *AuthHandlers {
	baseCtx := opts.BaseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		registry:     opts.Registry,
		sessions:     opts.Sessions,
		baseCtx:      baseCtx,
		sessionTTL:   ttl,
		cookieDomain: opts.CookieDomain,
		cookieSecure: opts.CookieSecure,
		logger:       logger,
	}
}

// Login handles POST /auth/login. On success it binds the flow to a fresh
// browser session id, sets the cookie, and redirects to the role's landing
// page (or the validated redirect_uri).
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds ports.Credentials
	if isJSONBody(r) {
		var body loginRequest
		if !DecodeJSON(w, r, &body) {
			return
		}
		creds = ports.Credentials{
			Email:    strings.TrimSpace(body.Email),
			Password: body.Password,
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.loginFailure(w, r, "invalid_form")
			return
		}
		creds = ports.Credentials{
			Email:    strings.TrimSpace(r.PostFormValue("email")),
			Password: r.PostFormValue("password"),
		}
	}
	if creds.Email == "" || creds.Password == "" {
		h.loginFailure(w, r, "missing_credentials")
		return
	}

	flow := h.registry.Begin(h.baseCtx)
	if err := flow.Actions.Login(r.Context(), creds); err != nil {
		flow.Close()
		h.loginFailure(w, r, loginErrorCode(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), resolveTimeout)
	defer cancel()
	tr, err := flow.AwaitTerminal(ctx)
	if err != nil {
		flow.Close()
		h.loginFailure(w, r, "timeout")
		return
	}
	if tr.To.Phase != service.PhaseAuthenticated {
		flow.Close()
		h.loginFailure(w, r, "resolution_failed")
		return
	}

	snap := ports.BrowserSession{
		ID:        uuid.NewString(),
		UserID:    tr.To.Session.UserID,
		Email:     tr.To.Session.Email,
		Role:      roleFor(tr.To),
		ExpiresAt: time.Now().Add(h.sessionTTL),
	}
	if err := h.sessions.Save(r.Context(), snap); err != nil {
		flow.Close()
		h.loginFailure(w, r, "session_store")
		return
	}
	h.registry.Bind(snap.ID, flow)
	h.setSessionCookie(w, snap)

	if isAPIRequest(r) {
		WriteJSON(w, http.StatusOK, statusPayload(&snap))
		return
	}
	http.Redirect(w, r, h.postLoginTarget(r, tr), http.StatusSeeOther)
}

// postLoginTarget picks the destination after a completed login. An explicit
// redirect_uri wins; otherwise the redirect policy decides from the login
// page, falling back to the role's landing page.
func (h *AuthHandlers) postLoginTarget(r *http.Request, tr service.Transition) string {
	if uri := r.PostFormValue("redirect_uri"); uri != "" {
		if p := safeRedirectPath(uri); p != "/" {
			return p
		}
	}
	if target, ok := service.Decide(tr, service.RouteLogin); ok {
		return target
	}
	if tr.To.IsAdmin {
		return service.RouteAdmin
	}
	return service.RouteDashboard
}

// Register handles POST /auth/register. The flow here is transient: it only
// carries the sign-up call, and the visitor signs in afterwards.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in ports.SignUpInput
	if isJSONBody(r) {
		var body registerRequest
		if !DecodeJSON(w, r, &body) {
			return
		}
		built, errCode := body.signUpInput()
		if errCode != "" {
			h.registerFailure(w, r, errCode)
			return
		}
		in = built
	} else {
		if err := r.ParseForm(); err != nil {
			h.registerFailure(w, r, "invalid_form")
			return
		}
		built, errCode := signUpInputFromForm(r)
		if errCode != "" {
			h.registerFailure(w, r, errCode)
			return
		}
		in = built
	}

	flow := h.registry.Begin(h.baseCtx)
	defer flow.Close()
	if err := flow.Actions.Register(r.Context(), in); err != nil {
		h.registerFailure(w, r, registerErrorCode(err))
		return
	}

	if isAPIRequest(r) {
		WriteJSON(w, http.StatusCreated, map[string]bool{"registered": true})
		return
	}
	http.Redirect(w, r, service.RouteLogin+"?registered=1", http.StatusSeeOther)
}

// Logout handles POST /auth/logout. If the provider sign-out call fails the
// browser session is kept intact and the failure surfaced, so the visitor is
// never told they are logged out while their tokens remain live. With no
// bound flow (expired or reaped) the local session is torn down regardless.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if flow, err := h.registry.Get(cookie.Value); err == nil {
			if err := flow.Actions.Logout(r.Context()); err != nil {
				h.logger.Error("logout: provider sign-out failed, keeping browser session", slog.Any("error", err))
				h.logoutFailure(w, r)
				return
			}
		}
		h.registry.End(cookie.Value)
		_ = h.sessions.Delete(r.Context(), cookie.Value)
	}
	h.clearSessionCookie(w)

	if isAPIRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}
	http.Redirect(w, r, service.RouteHome, http.StatusSeeOther)
}

// Status handles GET /auth/status, reporting the current browser session.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromRequest(r, h.sessions)
	WriteJSON(w, http.StatusOK, statusPayload(session))
}

func statusPayload(session *ports.BrowserSession) map[string]any {
	if session == nil {
		return map[string]any{"authenticated": false}
	}
	return map[string]any{
		"authenticated": true,
		"user": map[string]string{
			"id":    session.UserID,
			"email": session.Email,
			"role":  string(session.Role),
		},
		"expires_at": session.ExpiresAt,
	}
}

func roleFor(st service.AuthState) domainauth.Role {
	if st.IsAdmin {
		return domainauth.RoleAdmin
	}
	return domainauth.RoleUser
}

// loginRequest is the JSON body accepted by POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest is the JSON body accepted by POST /auth/register. It mirrors
// the cadastro form fields.
type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Document   string `json:"document"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
	PersonType string `json:"person_type"`
}

func (b registerRequest) signUpInput() (ports.SignUpInput, string) {
	email := strings.TrimSpace(b.Email)
	name := strings.TrimSpace(b.Name)
	document := strings.TrimSpace(b.Document)
	if email == "" || b.Password == "" {
		return ports.SignUpInput{}, "missing_credentials"
	}
	if name == "" || document == "" {
		return ports.SignUpInput{}, "missing_profile"
	}

	personType := model.PersonType(b.PersonType)
	if !personType.Valid() {
		personType = model.PersonTypeIndividual
	}
	return ports.SignUpInput{
		Email:    email,
		Password: b.Password,
		Profile: model.CreateProfileRequest{
			Name:       name,
			Document:   document,
			Email:      email,
			Phone:      strings.TrimSpace(b.Phone),
			Address:    strings.TrimSpace(b.Address),
			City:       strings.TrimSpace(b.City),
			State:      strings.TrimSpace(b.State),
			ZipCode:    strings.TrimSpace(b.ZipCode),
			PersonType: personType,
		},
	}, ""
}

// signUpInputFromForm builds the registration input from the cadastro form.
// Returns a non-empty error code when a required field is missing.
func signUpInputFromForm(r *http.Request) (ports.SignUpInput, string) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	name := strings.TrimSpace(r.PostFormValue("name"))
	document := strings.TrimSpace(r.PostFormValue("document"))
	if email == "" || password == "" {
		return ports.SignUpInput{}, "missing_credentials"
	}
	if name == "" || document == "" {
		return ports.SignUpInput{}, "missing_profile"
	}

	personType := model.PersonType(r.PostFormValue("person_type"))
	if !personType.Valid() {
		personType = model.PersonTypeIndividual
	}
	return ports.SignUpInput{
		Email:    email,
		Password: password,
		Profile: model.CreateProfileRequest{
			Name:       name,
			Document:   document,
			Email:      email,
			Phone:      strings.TrimSpace(r.PostFormValue("phone")),
			Address:    strings.TrimSpace(r.PostFormValue("address")),
			City:       strings.TrimSpace(r.PostFormValue("city")),
			State:      strings.TrimSpace(r.PostFormValue("state")),
			ZipCode:    strings.TrimSpace(r.PostFormValue("zip_code")),
			PersonType: personType,
		},
	}, ""
}

func loginErrorCode(err error) string {
	switch ports.AuthErrorKindOf(err) {
	case ports.AuthErrCredential:
		return "invalid_credentials"
	default:
		return "provider_error"
	}
}

func registerErrorCode(err error) string {
	switch ports.AuthErrorKindOf(err) {
	case ports.AuthErrSignUp:
		return "sign_up_rejected"
	default:
		return "provider_error"
	}
}

func (h *AuthHandlers) loginFailure(w http.ResponseWriter, r *http.Request, code string) {
	h.authFailure(w, r, service.RouteLogin, code)
}

func (h *AuthHandlers) registerFailure(w http.ResponseWriter, r *http.Request, code string) {
	h.authFailure(w, r, service.RouteRegister, code)
}

// logoutFailure reports an incomplete logout without tearing down the
// session, so the visitor can retry while their tokens are still live.
func (h *AuthHandlers) logoutFailure(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "logout_failed", Err: errors.New("logout_failed")})
		return
	}
	http.Redirect(w, r, service.RouteDashboard+"?error=logout_failed", http.StatusSeeOther)
}

func (h *AuthHandlers) authFailure(w http.ResponseWriter, r *http.Request, page, code string) {
	if isAPIRequest(r) {
		status := http.StatusBadRequest
		if code == "provider_error" || code == "session_store" {
			status = http.StatusBadGateway
		}
		WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: errors.New(code)})
		return
	}
	target := page + "?error=" + url.QueryEscape(code)
	if uri := r.PostFormValue("redirect_uri"); uri != "" {
		target += "&redirect_uri=" + url.QueryEscape(safeRedirectPath(uri))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// setSessionCookie issues the browser session cookie with a lifetime matching
// the stored snapshot.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, snap ports.BrowserSession) {
	maxAge := int(time.Until(snap.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    snap.ID,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
