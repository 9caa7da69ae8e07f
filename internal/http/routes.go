package httpx

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	crednova "github.com/crednova/crednova-api"
	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/ports"
	"github.com/crednova/crednova-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Registry *service.FlowRegistry
	Sessions ports.SessionStore

	Profiles interface {
		DashboardProfileStore
		AdminProfileStore
	}
	Debts interface {
		DashboardDebtStore
		AdminDebtStore
	}
	Contacts interface {
		ContactMessageCreator
		AdminContactStore
	}
	Documents interface {
		DashboardDocumentStore
		AdminDocumentStore
	}
	Messages interface {
		DashboardMessageStore
		AdminUserMessageStore
	}

	// BaseCtx is the process-lifetime context login flows are started
	// under; they outlive the request that creates them.
	BaseCtx context.Context

	SessionTTL   time.Duration
	CookieDomain string
	CookieSecure bool
	IsDev        bool         // Development mode flag for template hot reloading
	Logger       *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services.IsDev),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	authHandlers := NewAuthHandlers(AuthHandlersOptions{
		Registry:     services.Registry,
		Sessions:     services.Sessions,
		BaseCtx:      services.BaseCtx,
		SessionTTL:   services.SessionTTL,
		CookieDomain: services.CookieDomain,
		CookieSecure: services.CookieSecure,
		Logger:       logger,
	})
	publicHandlers := NewPublicHandlers(renderer, services.Contacts, logger)
	dashboardHandlers := NewDashboardHandlers(DashboardHandlersOptions{
		Renderer:  renderer,
		Profiles:  services.Profiles,
		Debts:     services.Debts,
		Documents: services.Documents,
		Messages:  services.Messages,
		Logger:    logger,
	})
	adminHandlers := NewAdminHandlers(AdminHandlersOptions{
		Renderer:  renderer,
		Profiles:  services.Profiles,
		Debts:     services.Debts,
		Contacts:  services.Contacts,
		Messages:  services.Messages,
		Documents: services.Documents,
		Logger:    logger,
	})

	optional := OptionalAuth(services.Sessions)
	requireUser := RequireAuth(services.Sessions)
	requireAdmin := RequireRole(services.Sessions, domainauth.RoleAdmin)

	// Public pages. OptionalAuth lets the layout show the signed-in state.
	mux.Handle("GET /{$}", optional(http.HandlerFunc(publicHandlers.Home)))
	mux.Handle("GET /beneficios", optional(http.HandlerFunc(publicHandlers.Benefits)))
	mux.Handle("GET /privacidade", optional(http.HandlerFunc(publicHandlers.Privacy)))
	mux.Handle("GET /termos", optional(http.HandlerFunc(publicHandlers.Terms)))
	mux.Handle("GET /contato", optional(http.HandlerFunc(publicHandlers.Contact)))
	mux.Handle("POST /contato", http.HandlerFunc(publicHandlers.ContactSubmit))
	mux.Handle("GET /login", optional(http.HandlerFunc(publicHandlers.LoginPage)))
	mux.Handle("GET /cadastro", optional(http.HandlerFunc(publicHandlers.RegisterPage)))

	// Auth endpoints.
	mux.Handle("POST /auth/login", http.HandlerFunc(authHandlers.Login))
	mux.Handle("POST /auth/register", http.HandlerFunc(authHandlers.Register))
	mux.Handle("POST /auth/logout", http.HandlerFunc(authHandlers.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(authHandlers.Status))

	// Signed-in user area.
	mux.Handle("GET /dashboard", requireUser(http.HandlerFunc(dashboardHandlers.Show)))
	mux.Handle("POST /dashboard/contact", requireUser(http.HandlerFunc(dashboardHandlers.UpdateContact)))
	mux.Handle("POST /dashboard/messages", requireUser(http.HandlerFunc(dashboardHandlers.SendMessage)))
	mux.Handle("POST /dashboard/documents", requireUser(http.HandlerFunc(dashboardHandlers.RecordDocument)))

	// Admin area.
	mux.Handle("GET /admin", requireAdmin(http.HandlerFunc(adminHandlers.Users)))
	mux.Handle("GET /admin/users/{id}", requireAdmin(http.HandlerFunc(adminHandlers.UserDetail)))
	mux.Handle("POST /admin/users/{id}/status", requireAdmin(http.HandlerFunc(adminHandlers.UpdateCaseStatus)))
	mux.Handle("POST /admin/users/{id}/debts", requireAdmin(http.HandlerFunc(adminHandlers.CreateDebt)))
	mux.Handle("POST /admin/users/{id}/debts/{debtID}", requireAdmin(http.HandlerFunc(adminHandlers.UpdateDebt)))
	mux.Handle("POST /admin/users/{id}/debts/{debtID}/delete", requireAdmin(http.HandlerFunc(adminHandlers.DeleteDebt)))
	mux.Handle("POST /admin/users/{id}/messages", requireAdmin(http.HandlerFunc(adminHandlers.ReplyToUser)))
	mux.Handle("GET /admin/messages", requireAdmin(http.HandlerFunc(adminHandlers.Inbox)))
	mux.Handle("POST /admin/messages/{id}/status", requireAdmin(http.HandlerFunc(adminHandlers.UpdateMessageStatus)))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Static assets at /static.
	// Dev mode serves from disk for hot reloading; prod from the embedded FS.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS(services.IsDev)))))

	var handler http.Handler = mux
	handler = Recover(logger)(handler)
	handler = Logging(logger)(handler)
	return handler, nil
}

func templateFS(dev bool) fs.FS {
	if dev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(crednova.TemplateFS, "frontend/templates")
	if err != nil {
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

func staticFS(dev bool) fs.FS {
	if dev {
		return os.DirFS("frontend/static")
	}
	sub, err := fs.Sub(crednova.StaticFS, "frontend/static")
	if err != nil {
		return os.DirFS("frontend/static")
	}
	return sub
}
