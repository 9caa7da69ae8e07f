package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crednova/crednova-api/internal/domain/model"
)

// ContactMessageCreator stores a submitted contact-form message.
type ContactMessageCreator interface {
	Create(ctx context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error)
}

// PublicHandlers serves the marketing pages, the auth forms, and the contact
// form submission. All of these are reachable signed out.
type PublicHandlers struct {
	renderer *TemplateRenderer
	contacts ContactMessageCreator
	logger   *slog.Logger
}

// NewPublicHandlers constructs the public page handlers.
func NewPublicHandlers(renderer *TemplateRenderer, contacts ContactMessageCreator, logger *slog.Logger) *PublicHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandlers{renderer: renderer, contacts: contacts, logger: logger}
}

func (h *PublicHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageData{Page: PageHome, Title: "CredNova"})
}

func (h *PublicHandlers) Benefits(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageData{Page: PageBenefits, Title: "Benefícios"})
}

func (h *PublicHandlers) Privacy(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageData{Page: PagePrivacy, Title: "Política de Privacidade"})
}

func (h *PublicHandlers) Terms(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageData{Page: PageTerms, Title: "Termos de Uso"})
}

// Contact serves the contact page. ?sent=1 after a successful submission
// shows the confirmation banner; ?error carries a failed submission back.
func (h *PublicHandlers) Contact(w http.ResponseWriter, r *http.Request) {
	data := PageData{Page: PageContact, Title: "Contato"}
	if r.URL.Query().Get("sent") == "1" {
		data.Flash = "Mensagem enviada. Entraremos em contato em breve."
	}
	if r.URL.Query().Get("error") != "" {
		data.Error = "Não foi possível enviar sua mensagem. Verifique os campos e tente novamente."
	}
	h.render(w, r, data)
}

// ContactSubmit handles POST /contato.
func (h *PublicHandlers) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/contato?error=invalid", http.StatusSeeOther)
		return
	}
	req := &model.CreateContactMessageRequest{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Message: strings.TrimSpace(r.PostFormValue("message")),
	}
	if phone := strings.TrimSpace(r.PostFormValue("phone")); phone != "" {
		req.Phone = &phone
	}
	if err := req.Validate(); err != nil {
		http.Redirect(w, r, "/contato?error=invalid", http.StatusSeeOther)
		return
	}

	if _, err := h.contacts.Create(r.Context(), req); err != nil {
		h.logger.Error("contact message create failed", slog.Any("error", err))
		http.Redirect(w, r, "/contato?error=internal", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/contato?sent=1", http.StatusSeeOther)
}

// LoginPage serves the login form. Signed-in visitors are sent to their
// landing page instead of seeing the form again.
func (h *PublicHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if session, ok := GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, landingFor(session.Role), http.StatusSeeOther)
		return
	}
	data := PageData{Page: PageLogin, Title: "Entrar"}
	if r.URL.Query().Get("registered") == "1" {
		data.Flash = "Cadastro realizado. Entre com seu e-mail e senha."
	}
	data.Error = loginErrorMessage(r.URL.Query().Get("error"))
	h.render(w, r, data)
}

// RegisterPage serves the registration form.
func (h *PublicHandlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if session, ok := GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, landingFor(session.Role), http.StatusSeeOther)
		return
	}
	data := PageData{Page: PageRegister, Title: "Cadastro"}
	data.Error = registerErrorMessage(r.URL.Query().Get("error"))
	h.render(w, r, data)
}

func (h *PublicHandlers) render(w http.ResponseWriter, r *http.Request, data PageData) {
	if session, ok := GetSessionFromContext(r.Context()); ok {
		data.Session = session
	}
	if err := h.renderer.RenderFull(w, r, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func loginErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "invalid_credentials":
		return "E-mail ou senha inválidos."
	case "missing_credentials":
		return "Informe e-mail e senha."
	case "timeout":
		return "O login demorou demais. Tente novamente."
	default:
		return "Não foi possível entrar. Tente novamente."
	}
}

func registerErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "missing_credentials", "missing_profile":
		return "Preencha todos os campos obrigatórios."
	case "sign_up_rejected":
		return "Não foi possível criar a conta com esses dados."
	default:
		return "Não foi possível concluir o cadastro. Tente novamente."
	}
}
