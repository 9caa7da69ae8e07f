package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/ports"
)

// PageData is the envelope every page template receives. Page selects the
// content template; Data holds the page-specific view model.
type PageData struct {
	Page    string
	Title   string
	Session *ports.BrowserSession
	Error   string
	Flash   string
	Data    any
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the
// provided filesystem.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}

	renderer := &TemplateRenderer{logger: cfg.Logger}

	var t *template.Template
	t, err := template.New("root").Funcs(templateFuncs(&t)).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("template parsing failed", slog.Any("error", err))
		}
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data PageData) error {
	return r.renderTemplate(w, "layout", data)
}

// RenderError renders an error page using the error template.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, _ *http.Request, data PageData) error {
	return r.renderTemplate(w, "error-layout", data)
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, templateName string, data PageData) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		if r.logger != nil {
			r.logger.Error("template execution failed",
				slog.String("template", templateName),
				slog.Any("error", err))
		}
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		if r.logger != nil {
			r.logger.Error("failed to write rendered template",
				slog.String("template", templateName),
				slog.Any("error", err))
		}
		return err
	}
	return nil
}

// templateFuncs builds the FuncMap. The template pointer is filled in after
// parsing, so the content dispatcher sees the fully parsed set.
func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		// content dispatches to the page's content template, so the layout
		// stays a single template shared by every page.
		"content": func(data PageData) (template.HTML, error) {
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, ContentTemplateFor(data.Page), data); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil
		},
		"formatCents":     formatCents,
		"formatDate":      formatDate,
		"add":             func(a, b int) int { return a + b },
		"caseStatuses":    model.AllCaseStatuses,
		"debtStatuses":    model.AllDebtStatuses,
		"messageStatuses": model.AllMessageStatuses,
	}
}

// formatCents renders an integer amount of centavos as Brazilian currency.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	reais := cents / 100
	rest := cents % 100

	digits := fmt.Sprintf("%d", reais)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("R$ %s%s,%02d", sign, b.String(), rest)
}

// formatDate renders a time in the dd/mm/yyyy form used across the site.
// Nil and zero times render as a dash.
func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
