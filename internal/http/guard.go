package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/comfykit/studio-ui/internal/apiclient"
	domainauth "github.com/comfykit/studio-ui/internal/domain/auth"
	apierrors "github.com/comfykit/studio-ui/internal/errors"
	"github.com/comfykit/studio-ui/internal/session"
)

// IdentityService is the minimal auth behavior the guard needs. Satisfied by
// *service.AuthService; tests substitute fakes.
type IdentityService interface {
	GetMe(ctx context.Context, token apiclient.TokenSource) (*domainauth.Claims, error)
}

// GuardOptions groups dependencies for Guard.
type GuardOptions struct {
	Auth         IdentityService
	CookieDomain string
	Logger       *slog.Logger
}

// Guard resolves the request's cookie token into backend-verified claims and
// enforces page access. It never trusts claims decoded locally: the backend's
// /auth/me answer is the authority, so a revoked or expired token fails here
// even though the cookie gate upstream let it through.
type Guard struct {
	auth         IdentityService
	cookieDomain string
	logger       *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	if opts.Auth == nil {
		panic("httpx: Guard requires an identity service")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{auth: opts.Auth, cookieDomain: opts.CookieDomain, logger: logger}
}

// EnsureMe returns a middleware that verifies the cookie token against the
// backend and stores the resulting claims in the request context. Page
// requests with a dead token get their cookies cleared and are redirected to
// login; other backend failures surface as a 502.
func (g *Guard) EnsureMe() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.auth.GetMe(r.Context(), apiclient.FromRequest(r))
			if err != nil {
				g.failPage(w, r, err)
				return
			}
			ctx := SetClaimsInContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EnsureMeJSON is EnsureMe for JSON endpoints: failures answer in JSON and
// never redirect, but a dead token still clears the cookie pair.
func (g *Guard) EnsureMeJSON() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.auth.GetMe(r.Context(), apiclient.FromRequest(r))
			if err != nil {
				if apierrors.IsAuth(err) {
					session.ClearAuthCookies(w, g.cookieDomain)
				}
				WriteBackendError(w, err)
				return
			}
			ctx := SetClaimsInContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Requirement describes the roles or groups a route demands. Any grants on
// the first match; All demands every entry. Both empty means only a verified
// identity is required.
type Requirement struct {
	Any []string
	All []string
}

// RequireRoles returns a middleware enforcing role membership on top of
// EnsureMe. It must run inside EnsureMe; absent claims fail closed.
func (g *Guard) RequireRoles(req Requirement) func(http.Handler) http.Handler {
	return g.require(req, domainauth.HasAnyRole, domainauth.HasAllRoles)
}

// RequireGroups returns a middleware enforcing group membership on top of
// EnsureMe. Group checks never synthesize admin.
func (g *Guard) RequireGroups(req Requirement) func(http.Handler) http.Handler {
	return g.require(req, domainauth.HasAnyGroup, domainauth.HasAllGroups)
}

func (g *Guard) require(
	req Requirement,
	hasAny func(*domainauth.Claims, []string) bool,
	hasAll func(*domainauth.Claims, []string) bool,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaimsFromContext(r.Context())
			if !ok {
				g.failPage(w, r, apierrors.NewAuthError())
				return
			}
			if len(req.Any) > 0 && !hasAny(claims, req.Any) {
				g.forbidden(w, claims)
				return
			}
			if len(req.All) > 0 && !hasAll(claims, req.All) {
				g.forbidden(w, claims)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) failPage(w http.ResponseWriter, r *http.Request, err error) {
	if apierrors.IsAuth(err) {
		session.ClearAuthCookies(w, g.cookieDomain)
		http.Redirect(w, r, loginRedirectURL(r.URL.RequestURI()), http.StatusFound)
		return
	}
	g.logger.Error("identity check failed", "path", r.URL.Path, "error", err)
	WriteError(w, ErrorParams{
		Code:    http.StatusBadGateway,
		ErrCode: "backend_unavailable",
		Err:     errors.New("identity service unavailable"),
	})
}

func (g *Guard) forbidden(w http.ResponseWriter, claims *domainauth.Claims) {
	g.logger.Warn("access denied", "sub", claims.Subject)
	WriteError(w, ErrorParams{
		Code:    http.StatusForbidden,
		ErrCode: "insufficient_permissions",
		Err:     errors.New("insufficient permissions"),
	})
}
