package httpx

import (
	"net/http"

	domainauth "github.com/comfykit/studio-ui/internal/domain/auth"
)

// TemplateData is the payload handed to the layout template. Page-specific
// values go in Data; everything else is shared chrome.
type TemplateData struct {
	CurrentPage string
	Title       string
	Claims      *domainauth.Claims
	Error       string
	Data        map[string]any
}

// NewTemplateData builds the base payload for a page, picking up verified
// claims from the request context when the guard has run.
func NewTemplateData(r *http.Request, currentPage, title string) *TemplateData {
	claims, _ := GetClaimsFromContext(r.Context())
	return &TemplateData{
		CurrentPage: currentPage,
		Title:       title,
		Claims:      claims,
		Data:        map[string]any{},
	}
}

// SignedIn reports whether the page renders for a verified identity.
func (d *TemplateData) SignedIn() bool { return d.Claims != nil }

// IsAdmin reports whether the identity carries the admin role, synthesized
// or explicit. Display-only; the backend still authorizes admin calls.
func (d *TemplateData) IsAdmin() bool {
	return domainauth.HasAnyRole(d.Claims, []string{domainauth.RoleAdmin})
}

// ContentTemplate names the content block the layout should render.
func (d *TemplateData) ContentTemplate() string { return ContentTemplateFor(d.CurrentPage) }

// With adds a page-specific value and returns the data for chaining.
func (d *TemplateData) With(key string, value any) *TemplateData {
	d.Data[key] = value
	return d
}

// WithError sets the page-level error banner.
func (d *TemplateData) WithError(msg string) *TemplateData {
	d.Error = msg
	return d
}
