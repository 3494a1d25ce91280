package httpx

// CurrentPage constants identify pages in templates and navigation.
const (
	PageLogin       = "login"
	PageDashboard   = "dashboard"
	PageMe          = "me"
	PageAdmin       = "admin"
	PageWorkflows   = "workflows"
	PageWorkflowRun = "workflow-run"
	PageError       = "error"
)

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// NextParam carries the post-login destination through the login redirect.
const NextParam = "next"

//nolint:gochecknoglobals // static read-only lookup, avoids per-call allocations
var contentTemplates = map[string]string{
	PageLogin:       "login-content",
	PageDashboard:   "dashboard-content",
	PageMe:          "me-content",
	PageAdmin:       "admin-content",
	PageWorkflows:   "workflows-content",
	PageWorkflowRun: "workflow-run-content",
	PageError:       "error-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to dashboard-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "dashboard-content"
}
