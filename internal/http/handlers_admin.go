package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crednova/crednova-api/internal/data"
	"github.com/crednova/crednova-api/internal/domain/model"
)

const (
	adminDefaultPageSize = 25
	adminMaxPageSize     = 100
)

// AdminProfileStore is the profile access the admin area needs.
type AdminProfileStore interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	List(ctx context.Context, opts model.ProfilesListOptions) ([]*model.Profile, error)
	Count(ctx context.Context, opts model.ProfilesListOptions) (int, error)
	UpdateStatus(ctx context.Context, id string, status model.CaseStatus) (*model.Profile, error)
}

// AdminDebtStore manages debts on behalf of a user.
type AdminDebtStore interface {
	Create(ctx context.Context, req *model.CreateDebtRequest) (*model.Debt, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Debt, error)
	Update(ctx context.Context, id string, req model.UpdateDebtRequest) (*model.Debt, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// AdminContactStore manages the contact-form inbox.
type AdminContactStore interface {
	List(ctx context.Context, opts model.MessagesListOptions) ([]*model.ContactMessage, error)
	Count(ctx context.Context, opts model.MessagesListOptions) (int, error)
	UpdateStatus(ctx context.Context, id string, status model.MessageStatus, adminNotes *string) (*model.ContactMessage, error)
}

// AdminUserMessageStore reads and replies to user support threads.
type AdminUserMessageStore interface {
	Thread(ctx context.Context, userID string) ([]*model.UserMessage, error)
	Append(ctx context.Context, req *model.AppendUserMessageRequest) (*model.UserMessage, error)
}

// AdminDocumentStore lists a user's uploaded documents.
type AdminDocumentStore interface {
	ListByUser(ctx context.Context, userID string) ([]*model.UserDocument, error)
}

// AdminHandlers serves the back-office area: user case management, debt
// bookkeeping, and the contact-form inbox.
type AdminHandlers struct {
	renderer  *TemplateRenderer
	profiles  AdminProfileStore
	debts     AdminDebtStore
	contacts  AdminContactStore
	messages  AdminUserMessageStore
	documents AdminDocumentStore
	logger    *slog.Logger
}

// AdminHandlersOptions groups dependencies for NewAdminHandlers.
type AdminHandlersOptions struct {
	Renderer  *TemplateRenderer
	Profiles  AdminProfileStore
	Debts     AdminDebtStore
	Contacts  AdminContactStore
	Messages  AdminUserMessageStore
	Documents AdminDocumentStore
	Logger    *slog.Logger
}

// NewAdminHandlers constructs the admin handlers.
func NewAdminHandlers(opts AdminHandlersOptions) *AdminHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandlers{
		renderer:  opts.Renderer,
		profiles:  opts.Profiles,
		debts:     opts.Debts,
		contacts:  opts.Contacts,
		messages:  opts.Messages,
		documents: opts.Documents,
		logger:    logger,
	}
}

// adminUsersView is the view model for the user list page.
type adminUsersView struct {
	Profiles []*model.Profile
	Total    int
	Query    string
	Status   string
	Limit    int
	Offset   int
}

// Users handles GET /admin, the paginated user case list.
func (h *AdminHandlers) Users(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, adminDefaultPageSize, adminMaxPageSize)
	opts := model.ProfilesListOptions{Limit: limit, Offset: offset}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q != "" {
		opts.Q = &q
	}
	statusParam := r.URL.Query().Get("status")
	if statusParam != "" {
		status, ok := model.ParseCaseStatus(statusParam)
		if !ok {
			http.Error(w, "status inválido", http.StatusBadRequest)
			return
		}
		opts.Status = &status
	}

	profiles, err := h.profiles.List(r.Context(), opts)
	if err != nil {
		h.fail(w, r, "admin: user list failed", err)
		return
	}
	total, err := h.profiles.Count(r.Context(), opts)
	if err != nil {
		h.fail(w, r, "admin: user count failed", err)
		return
	}

	h.render(w, r, PageData{
		Page:  PageAdminUsers,
		Title: "Usuários",
		Data: adminUsersView{
			Profiles: profiles,
			Total:    total,
			Query:    q,
			Status:   statusParam,
			Limit:    limit,
			Offset:   offset,
		},
	})
}

// adminUserDetailView is the view model for the user detail page.
type adminUserDetailView struct {
	Profile   *model.Profile
	Debts     []*model.Debt
	Documents []*model.UserDocument
	Messages  []*model.UserMessage
}

// UserDetail handles GET /admin/users/{id}.
func (h *AdminHandlers) UserDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	profile, err := h.profiles.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, data.ErrProfileNotFound) || errors.Is(err, data.ErrProfileIDRequired) {
			http.NotFound(w, r)
			return
		}
		h.fail(w, r, "admin: profile load failed", err)
		return
	}

	view := adminUserDetailView{Profile: profile}
	if view.Debts, err = h.debts.ListByUser(r.Context(), id); err != nil {
		h.fail(w, r, "admin: debts load failed", err)
		return
	}
	if view.Documents, err = h.documents.ListByUser(r.Context(), id); err != nil {
		h.fail(w, r, "admin: documents load failed", err)
		return
	}
	if view.Messages, err = h.messages.Thread(r.Context(), id); err != nil {
		h.fail(w, r, "admin: thread load failed", err)
		return
	}

	pd := PageData{
		Page:  PageAdminUserDetail,
		Title: profile.Name,
		Data:  view,
	}
	if r.URL.Query().Get("saved") == "1" {
		pd.Flash = "Alterações salvas."
	}
	if r.URL.Query().Get("error") != "" {
		pd.Error = "Não foi possível salvar. Verifique os campos."
	}
	h.render(w, r, pd)
}

// UpdateCaseStatus handles POST /admin/users/{id}/status.
func (h *AdminHandlers) UpdateCaseStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		h.redirectDetail(w, r, id, "error=invalid")
		return
	}
	status, ok := model.ParseCaseStatus(r.PostFormValue("status"))
	if !ok {
		h.redirectDetail(w, r, id, "error=invalid")
		return
	}
	if _, err := h.profiles.UpdateStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, data.ErrProfileNotFound) {
			http.NotFound(w, r)
			return
		}
		h.fail(w, r, "admin: case status update failed", err)
		return
	}
	h.redirectDetail(w, r, id, "saved=1")
}

// CreateDebt handles POST /admin/users/{id}/debts.
func (h *AdminHandlers) CreateDebt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		h.redirectDetail(w, r, id, "error=invalid")
		return
	}

	amount, err := strconv.ParseInt(r.PostFormValue("amount_cents"), 10, 64)
	if err != nil {
		h.redirectDetail(w, r, id, "error=invalid")
		return
	}
	req := &model.CreateDebtRequest{
		UserID:      id,
		Document:    strings.TrimSpace(r.PostFormValue("document")),
		Creditor:    strings.TrimSpace(r.PostFormValue("creditor")),
		AmountCents: amount,
	}
	if due := parseFormDate(r.PostFormValue("due_date")); due != nil {
		req.DueDate = due
	}
	if status, ok := model.ParseDebtStatus(r.PostFormValue("status")); ok {
		req.Status = status
	}

	if _, err := h.debts.Create(r.Context(), req); err != nil {
		if errors.Is(err, data.ErrProfileNotFound) {
			http.NotFound(w, r)
			return
		}
		if isValidationError(err) {
			h.redirectDetail(w, r, id, "error=invalid")
			return
		}
		h.fail(w, r, "admin: debt create failed", err)
		return
	}
	h.redirectDetail(w, r, id, "saved=1")
}

// UpdateDebt handles POST /admin/users/{id}/debts/{debtID}. Only submitted
// fields are written.
func (h *AdminHandlers) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	debtID := r.PathValue("debtID")
	if err := r.ParseForm(); err != nil {
		h.redirectDetail(w, r, id, "error=invalid")
		return
	}

	var req model.UpdateDebtRequest
	if v := strings.TrimSpace(r.PostFormValue("creditor")); v != "" {
		req.Creditor = &v
	}
	if v := r.PostFormValue("amount_cents"); v != "" {
		amount, err := strconv.ParseInt(v, 10, 64)
		if err != nil || amount < 0 {
			h.redirectDetail(w, r, id, "error=invalid")
			return
		}
		req.AmountCents = &amount
	}
	if due := parseFormDate(r.PostFormValue("due_date")); due != nil {
		req.DueDate = due
	}
	if v := r.PostFormValue("status"); v != "" {
		status, ok := model.ParseDebtStatus(v)
		if !ok {
			h.redirectDetail(w, r, id, "error=invalid")
			return
		}
		req.Status = &status
	}

	if _, err := h.debts.Update(r.Context(), debtID, req); err != nil {
		if errors.Is(err, data.ErrDebtNotFound) {
			http.NotFound(w, r)
			return
		}
		if isValidationError(err) {
			h.redirectDetail(w, r, id, "error=invalid")
			return
		}
		h.fail(w, r, "admin: debt update failed", err)
		return
	}
	h.redirectDetail(w, r, id, "saved=1")
}

// DeleteDebt handles POST /admin/users/{id}/debts/{debtID}/delete.
func (h *AdminHandlers) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	debtID := r.PathValue("debtID")
	deleted, err := h.debts.Delete(r.Context(), debtID)
	if err != nil {
		h.fail(w, r, "admin: debt delete failed", err)
		return
	}
	if !deleted {
		http.NotFound(w, r)
		return
	}
	h.redirectDetail(w, r, id, "saved=1")
}

// ReplyToUser handles POST /admin/users/{id}/messages, appending an admin
// reply to the user's support thread.
func (h *AdminHandlers) ReplyToUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		redirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirectDetail(w, r, id, "error=invalid")
		return
	}

	adminID := session.UserID
	req := &model.AppendUserMessageRequest{
		UserID:    id,
		AdminID:   &adminID,
		Body:      strings.TrimSpace(r.PostFormValue("body")),
		FromAdmin: true,
	}
	if err := req.Validate(); err != nil {
		h.redirectDetail(w, r, id, "error=invalid")
		return
	}
	if _, err := h.messages.Append(r.Context(), req); err != nil {
		if errors.Is(err, data.ErrProfileNotFound) {
			http.NotFound(w, r)
			return
		}
		h.fail(w, r, "admin: reply failed", err)
		return
	}
	h.redirectDetail(w, r, id, "saved=1")
}

// adminInboxView is the view model for the contact-form inbox page.
type adminInboxView struct {
	Messages []*model.ContactMessage
	Total    int
	Status   string
	Limit    int
	Offset   int
}

// Inbox handles GET /admin/messages, the contact-form inbox.
func (h *AdminHandlers) Inbox(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, adminDefaultPageSize, adminMaxPageSize)
	opts := model.MessagesListOptions{Limit: limit, Offset: offset}

	statusParam := r.URL.Query().Get("status")
	if statusParam != "" {
		status, ok := model.ParseMessageStatus(statusParam)
		if !ok {
			http.Error(w, "status inválido", http.StatusBadRequest)
			return
		}
		opts.Status = &status
	}

	messages, err := h.contacts.List(r.Context(), opts)
	if err != nil {
		h.fail(w, r, "admin: inbox list failed", err)
		return
	}
	total, err := h.contacts.Count(r.Context(), opts)
	if err != nil {
		h.fail(w, r, "admin: inbox count failed", err)
		return
	}

	h.render(w, r, PageData{
		Page:  PageAdminInbox,
		Title: "Mensagens de Contato",
		Data: adminInboxView{
			Messages: messages,
			Total:    total,
			Status:   statusParam,
			Limit:    limit,
			Offset:   offset,
		},
	})
}

// UpdateMessageStatus handles POST /admin/messages/{id}/status. Notes are
// only overwritten when the form carries an admin_notes field.
func (h *AdminHandlers) UpdateMessageStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin/messages?error=invalid", http.StatusSeeOther)
		return
	}
	status, ok := model.ParseMessageStatus(r.PostFormValue("status"))
	if !ok {
		http.Redirect(w, r, "/admin/messages?error=invalid", http.StatusSeeOther)
		return
	}

	var notes *string
	if _, present := r.PostForm["admin_notes"]; present {
		v := strings.TrimSpace(r.PostFormValue("admin_notes"))
		notes = &v
	}

	if _, err := h.contacts.UpdateStatus(r.Context(), id, status, notes); err != nil {
		if errors.Is(err, data.ErrContactMessageNotFound) {
			http.NotFound(w, r)
			return
		}
		h.fail(w, r, "admin: message status update failed", err)
		return
	}
	http.Redirect(w, r, "/admin/messages?saved=1", http.StatusSeeOther)
}

func (h *AdminHandlers) render(w http.ResponseWriter, r *http.Request, data PageData) {
	if session, ok := GetSessionFromContext(r.Context()); ok {
		data.Session = session
	}
	if err := h.renderer.RenderFull(w, r, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *AdminHandlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err), slog.String("path", r.URL.Path))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *AdminHandlers) redirectDetail(w http.ResponseWriter, r *http.Request, id, query string) {
	http.Redirect(w, r, "/admin/users/"+id+"?"+query, http.StatusSeeOther)
}

// parseFormDate parses a yyyy-mm-dd date input value. Empty or malformed
// values are treated as absent.
func parseFormDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
