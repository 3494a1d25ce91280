package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/comfykit/studio-ui/internal/apiclient"
	domainauth "github.com/comfykit/studio-ui/internal/domain/auth"
	"github.com/comfykit/studio-ui/internal/service"
)

// PageHandlers serves the server-rendered pages. Protected pages run inside
// the guard, so claims are already verified and in context by the time a
// handler executes.
type PageHandlers struct {
	Auth      *service.AuthService
	Workflows *service.WorkflowService
	Health    *service.HealthService
	Admin     *service.AdminService
	Renderer  *TemplateRenderer
	Logger    *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Dashboard handles GET /. Public: renders sign-in chrome for guests and
// backend health for everyone.
func (h *PageHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	overview := h.Health.Check(r.Context())
	data := NewTemplateData(r, PageDashboard, "Studio").
		With("Health", overview)
	h.Renderer.RenderPage(w, data) //nolint:errcheck
}

// Me handles GET /me. Shows the verified identity plus the display-only
// claims decoded from the token itself.
func (h *PageHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := GetClaimsFromContext(r.Context())
	roles := make([]string, 0, 4)
	for role := range domainauth.EffectiveRoles(claims) {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	data := NewTemplateData(r, PageMe, "My account").
		With("EffectiveRoles", roles)

	if token, ok := apiclient.FromRequest(r).Token(); ok {
		if decoded, err := domainauth.DecodeToken(token); err == nil {
			data.With("TokenExpiry", decoded.Expiry())
		}
	}
	h.Renderer.RenderPage(w, data) //nolint:errcheck
}

// AdminHome handles GET /admin. The backend's ping is the real admin check;
// a 401/403 from it renders the page in denied state rather than erroring,
// so a user whose role list looks right locally still sees the truth.
func (h *PageHandlers) AdminHome(w http.ResponseWriter, r *http.Request) {
	token := apiclient.FromRequest(r)
	data := NewTemplateData(r, PageAdmin, "Administration")

	ping, err := h.Auth.PingAdmin(r.Context(), token)
	if err != nil {
		h.logger().Warn("admin ping refused", "error", err)
		data.WithError("The backend refused admin access for this account.")
		h.Renderer.RenderError(w, http.StatusForbidden, data) //nolint:errcheck
		return
	}
	data.With("Ping", ping)

	if users, err := h.Admin.ListUsers(r.Context(), token); err == nil {
		data.With("Users", decodeForTemplate(users))
	} else {
		h.logger().Warn("admin user list failed", "error", err)
	}
	if codes, err := h.Admin.ListCodes(r.Context(), token); err == nil {
		data.With("Codes", decodeForTemplate(codes))
	} else {
		h.logger().Warn("admin code list failed", "error", err)
	}
	h.Renderer.RenderPage(w, data) //nolint:errcheck
}

// WorkflowsPage handles GET /workflows.
func (h *PageHandlers) WorkflowsPage(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.Workflows.List(r.Context(), apiclient.FromRequest(r))
	if err != nil {
		h.renderBackendFailure(w, r, "Workflows", err)
		return
	}
	data := NewTemplateData(r, PageWorkflows, "Workflows").
		With("Workflows", workflows)
	h.Renderer.RenderPage(w, data) //nolint:errcheck
}

// WorkflowRun handles GET /workflows/{id}: the run form for one workflow.
func (h *PageHandlers) WorkflowRun(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("id")
	schema, err := h.Workflows.Schema(r.Context(), apiclient.FromRequest(r), workflowID)
	if err != nil {
		h.renderBackendFailure(w, r, "Workflow", err)
		return
	}
	params, err := schema.Params()
	if err != nil {
		h.renderBackendFailure(w, r, "Workflow", err)
		return
	}

	data := NewTemplateData(r, PageWorkflowRun, schema.Title).
		With("WorkflowID", workflowID).
		With("Schema", schema).
		With("Params", params)
	h.Renderer.RenderPage(w, data) //nolint:errcheck
}

func (h *PageHandlers) renderBackendFailure(w http.ResponseWriter, r *http.Request, title string, err error) {
	h.logger().Error("page data fetch failed", "path", r.URL.Path, "error", err)
	data := NewTemplateData(r, PageError, title).
		WithError("The workflow backend did not answer. Try again shortly.")
	h.Renderer.RenderError(w, http.StatusBadGateway, data) //nolint:errcheck
}

// decodeForTemplate turns raw backend JSON into a value html/template can
// range over. Invalid JSON renders as nothing rather than failing the page.
func decodeForTemplate(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
