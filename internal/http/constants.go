package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
// These constants ensure consistency across handlers and template mapping.
const (
	// Public marketing pages.
	PageHome     = "home"
	PageBenefits = "beneficios"
	PageContact  = "contato"
	PagePrivacy  = "privacidade"
	PageTerms    = "termos"

	// Auth pages.
	PageLogin    = "login"
	PageRegister = "cadastro"

	// Customer area.
	PageDashboard = "dashboard"

	// Admin area.
	PageAdminUsers      = "admin-users"
	PageAdminUserDetail = "admin-user"
	PageAdminInbox      = "admin-inbox"
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageHome:            "home-content",
	PageBenefits:        "beneficios-content",
	PageContact:         "contato-content",
	PagePrivacy:         "privacidade-content",
	PageTerms:           "termos-content",
	PageLogin:           "login-content",
	PageRegister:        "cadastro-content",
	PageDashboard:       "dashboard-content",
	PageAdminUsers:      "admin-users-content",
	PageAdminUserDetail: "admin-user-content",
	PageAdminInbox:      "admin-inbox-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "home-content"
}

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)
