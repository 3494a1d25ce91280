package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"

	studioui "github.com/comfykit/studio-ui"
	domainauth "github.com/comfykit/studio-ui/internal/domain/auth"
	"github.com/comfykit/studio-ui/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth      *service.AuthService
	Workflows *service.WorkflowService
	Health    *service.HealthService
	Admin     *service.AdminService

	CookieDomain string
	CookieSecure bool
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP handler tree.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, err := fs.Sub(studioui.TemplateFS, "web/templates")
	if err != nil {
		return nil, err
	}
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, err
	}

	guard := NewGuard(GuardOptions{
		Auth:         services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Renderer:     renderer,
		CookieDomain: services.CookieDomain,
		CookieSecure: services.CookieSecure,
		Logger:       logger,
	}
	pageHandlers := &PageHandlers{
		Auth:      services.Auth,
		Workflows: services.Workflows,
		Health:    services.Health,
		Admin:     services.Admin,
		Renderer:  renderer,
		Logger:    logger,
	}
	proxyHandlers := &ProxyHandlers{
		Workflows: services.Workflows,
		Admin:     services.Admin,
		Logger:    logger,
	}
	healthHandlers := &HealthHandlers{Svc: services.Health}

	mux := http.NewServeMux()

	// Service health, no backend involved.
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	// Auth flows.
	mux.HandleFunc("GET /login", authHandlers.LoginPage)
	mux.HandleFunc("POST /login", authHandlers.LoginPassword)
	mux.HandleFunc("POST /login/code", authHandlers.LoginCode)
	mux.HandleFunc("POST /logout", authHandlers.Logout)

	// Pages. The verified-identity pages run inside the guard.
	mux.HandleFunc("GET /{$}", pageHandlers.Dashboard)
	withMe := guard.EnsureMe()
	mux.Handle("GET /me", withMe(http.HandlerFunc(pageHandlers.Me)))
	mux.Handle("GET /me/{$}", withMe(http.HandlerFunc(pageHandlers.Me)))
	mux.Handle("GET /admin", withMe(http.HandlerFunc(pageHandlers.AdminHome)))
	mux.Handle("GET /workflows", withMe(http.HandlerFunc(pageHandlers.WorkflowsPage)))
	mux.Handle("GET /workflows/{id}", withMe(http.HandlerFunc(pageHandlers.WorkflowRun)))

	// JSON endpoints for the browser.
	withJSON := guard.EnsureMeJSON()
	adminOnly := guard.RequireRoles(Requirement{Any: []string{domainauth.RoleAdmin}})
	mux.Handle("GET /api/health", http.HandlerFunc(healthHandlers.Backend))
	mux.Handle("POST /api/workflows/{id}/execute", withJSON(http.HandlerFunc(proxyHandlers.ExecuteWorkflow)))
	mux.Handle("GET /api/executions/{id}/status", withJSON(http.HandlerFunc(proxyHandlers.ExecutionStatus)))
	mux.Handle("DELETE /api/executions/{id}", withJSON(http.HandlerFunc(proxyHandlers.CancelExecution)))

	mux.Handle("GET /api/admin/users", withJSON(adminOnly(http.HandlerFunc(proxyHandlers.ListUsers))))
	mux.Handle("POST /api/admin/users", withJSON(adminOnly(http.HandlerFunc(proxyHandlers.CreateUser))))
	mux.Handle("DELETE /api/admin/users/{username}", withJSON(adminOnly(http.HandlerFunc(proxyHandlers.DeleteUser))))
	mux.Handle("GET /api/admin/codes", withJSON(adminOnly(http.HandlerFunc(proxyHandlers.ListCodes))))
	mux.Handle("POST /api/admin/codes", withJSON(adminOnly(http.HandlerFunc(proxyHandlers.CreateCode))))
	mux.Handle("DELETE /api/admin/codes/{id}", withJSON(adminOnly(http.HandlerFunc(proxyHandlers.RevokeCode))))

	// Static assets from the embedded filesystem.
	staticFS, err := fs.Sub(studioui.StaticFS, "web/static")
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Outermost first: request id, logging, panic recovery, then the cookie
	// gate in front of the whole tree.
	var handler http.Handler = mux
	handler = TokenGate()(handler)
	handler = Recover(logger)(handler)
	handler = Logging(logger)(handler)
	handler = RequestID()(handler)
	return handler, nil
}
