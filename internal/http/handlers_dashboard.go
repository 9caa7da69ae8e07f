package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/crednova/crednova-api/internal/data"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/ports"
)

// DashboardProfileStore is the profile access the dashboard needs.
type DashboardProfileStore interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	UpdateContact(ctx context.Context, id string, req model.UpdateContactRequest) (*model.Profile, error)
}

// DashboardDebtStore lists the signed-in user's debts.
type DashboardDebtStore interface {
	ListByUser(ctx context.Context, userID string) ([]*model.Debt, error)
	TotalCentsByUser(ctx context.Context, userID string) (int64, error)
}

// DashboardDocumentStore lists and records the user's uploaded documents.
type DashboardDocumentStore interface {
	ListByUser(ctx context.Context, userID string) ([]*model.UserDocument, error)
	Create(ctx context.Context, req *model.CreateUserDocumentRequest) (*model.UserDocument, error)
}

// DashboardMessageStore reads and appends to the user's support thread.
type DashboardMessageStore interface {
	Thread(ctx context.Context, userID string) ([]*model.UserMessage, error)
	Append(ctx context.Context, req *model.AppendUserMessageRequest) (*model.UserMessage, error)
}

// DashboardHandlers serves the signed-in user's case dashboard.
type DashboardHandlers struct {
	renderer  *TemplateRenderer
	profiles  DashboardProfileStore
	debts     DashboardDebtStore
	documents DashboardDocumentStore
	messages  DashboardMessageStore
	logger    *slog.Logger
}

// DashboardHandlersOptions groups dependencies for NewDashboardHandlers.
type DashboardHandlersOptions struct {
	Renderer  *TemplateRenderer
	Profiles  DashboardProfileStore
	Debts     DashboardDebtStore
	Documents DashboardDocumentStore
	Messages  DashboardMessageStore
	Logger    *slog.Logger
}

// NewDashboardHandlers constructs the dashboard handlers.
func NewDashboardHandlers(opts DashboardHandlersOptions) *DashboardHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandlers{
		renderer:  opts.Renderer,
		profiles:  opts.Profiles,
		debts:     opts.Debts,
		documents: opts.Documents,
		messages:  opts.Messages,
		logger:    logger,
	}
}

// dashboardView is the view model for the dashboard page.
type dashboardView struct {
	Profile    *model.Profile
	Debts      []*model.Debt
	TotalCents int64
	Documents  []*model.UserDocument
	Messages   []*model.UserMessage
}

// Show handles GET /dashboard.
func (h *DashboardHandlers) Show(w http.ResponseWriter, r *http.Request) {
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		redirectToLogin(w, r)
		return
	}

	profile, err := h.profiles.GetByID(r.Context(), session.UserID)
	if err != nil {
		// A signed-in user without a profile row is a data inconsistency,
		// not a client error.
		if errors.Is(err, data.ErrProfileNotFound) {
			h.logger.Error("dashboard: no profile for session user",
				slog.String("user_id", session.UserID))
		} else {
			h.logger.Error("dashboard: profile load failed", slog.Any("error", err))
		}
		h.renderFailure(w, r, session)
		return
	}

	view := dashboardView{Profile: profile}
	if view.Debts, err = h.debts.ListByUser(r.Context(), session.UserID); err != nil {
		h.logger.Error("dashboard: debts load failed", slog.Any("error", err))
		h.renderFailure(w, r, session)
		return
	}
	if view.TotalCents, err = h.debts.TotalCentsByUser(r.Context(), session.UserID); err != nil {
		h.logger.Error("dashboard: debt total failed", slog.Any("error", err))
		h.renderFailure(w, r, session)
		return
	}
	if view.Documents, err = h.documents.ListByUser(r.Context(), session.UserID); err != nil {
		h.logger.Error("dashboard: documents load failed", slog.Any("error", err))
		h.renderFailure(w, r, session)
		return
	}
	if view.Messages, err = h.messages.Thread(r.Context(), session.UserID); err != nil {
		h.logger.Error("dashboard: thread load failed", slog.Any("error", err))
		h.renderFailure(w, r, session)
		return
	}

	pd := PageData{
		Page:    PageDashboard,
		Title:   "Meu Painel",
		Session: session,
		Data:    view,
	}
	if r.URL.Query().Get("saved") == "1" {
		pd.Flash = "Dados atualizados."
	}
	if r.URL.Query().Get("message_sent") == "1" {
		pd.Flash = "Mensagem enviada."
	}
	if r.URL.Query().Get("error") != "" {
		pd.Error = "Não foi possível salvar. Tente novamente."
	}
	if err := h.renderer.RenderFull(w, r, pd); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// UpdateContact handles POST /dashboard/contact. Only fields present in the
// form are written.
func (h *DashboardHandlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		redirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=invalid", http.StatusSeeOther)
		return
	}

	var req model.UpdateContactRequest
	setIfPresent(r, "phone", &req.Phone)
	setIfPresent(r, "address", &req.Address)
	setIfPresent(r, "city", &req.City)
	setIfPresent(r, "state", &req.State)
	setIfPresent(r, "zip_code", &req.ZipCode)

	if _, err := h.profiles.UpdateContact(r.Context(), session.UserID, req); err != nil {
		h.logger.Error("dashboard: contact update failed", slog.Any("error", err))
		http.Redirect(w, r, "/dashboard?error=internal", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard?saved=1", http.StatusSeeOther)
}

// SendMessage handles POST /dashboard/messages, appending to the user's
// support thread.
func (h *DashboardHandlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		redirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=invalid", http.StatusSeeOther)
		return
	}

	req := &model.AppendUserMessageRequest{
		UserID:    session.UserID,
		Body:      strings.TrimSpace(r.PostFormValue("body")),
		FromAdmin: false,
	}
	if err := req.Validate(); err != nil {
		http.Redirect(w, r, "/dashboard?error=invalid", http.StatusSeeOther)
		return
	}
	if _, err := h.messages.Append(r.Context(), req); err != nil {
		h.logger.Error("dashboard: message append failed", slog.Any("error", err))
		http.Redirect(w, r, "/dashboard?error=internal", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard?message_sent=1", http.StatusSeeOther)
}

// RecordDocument handles POST /dashboard/documents. The file itself is
// uploaded to object storage by the client; this endpoint records the
// resulting metadata.
func (h *DashboardHandlers) RecordDocument(w http.ResponseWriter, r *http.Request) {
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		redirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=invalid", http.StatusSeeOther)
		return
	}

	fileSize, _ := strconv.ParseInt(r.PostFormValue("file_size"), 10, 64)
	req := &model.CreateUserDocumentRequest{
		UserID:   session.UserID,
		Filename: strings.TrimSpace(r.PostFormValue("filename")),
		FileType: strings.TrimSpace(r.PostFormValue("file_type")),
		FileSize: fileSize,
		FileURL:  strings.TrimSpace(r.PostFormValue("file_url")),
	}
	if err := req.Validate(); err != nil {
		http.Redirect(w, r, "/dashboard?error=invalid", http.StatusSeeOther)
		return
	}
	if _, err := h.documents.Create(r.Context(), req); err != nil {
		h.logger.Error("dashboard: document record failed", slog.Any("error", err))
		http.Redirect(w, r, "/dashboard?error=internal", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard?saved=1", http.StatusSeeOther)
}

func (h *DashboardHandlers) renderFailure(w http.ResponseWriter, r *http.Request, session *ports.BrowserSession) {
	w.WriteHeader(http.StatusInternalServerError)
	if err := h.renderer.RenderError(w, r, PageData{
		Title:   "Erro",
		Session: session,
		Error:   "Não foi possível carregar seu painel.",
	}); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// setIfPresent assigns *dst when the form contains key, trimming whitespace.
// An empty submitted value clears the field.
func setIfPresent(r *http.Request, key string, dst **string) {
	if _, ok := r.PostForm[key]; !ok {
		return
	}
	v := strings.TrimSpace(r.PostFormValue(key))
	*dst = &v
}
