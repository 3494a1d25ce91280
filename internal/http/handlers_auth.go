package httpx

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/comfykit/studio-ui/internal/errors"
	"github.com/comfykit/studio-ui/internal/service"
	"github.com/comfykit/studio-ui/internal/session"
)

// LoginService is the slice of the auth service the login handlers need.
type LoginService interface {
	LoginPassword(ctx context.Context, username, password string) (*service.AuthResult, error)
	LoginCode(ctx context.Context, code string) (*service.AuthResult, error)
}

// AuthHandlers serves the login and logout flows. A successful login writes
// the cookie pair and bounces to the "next" destination; failures re-render
// the form with the backend's message.
type AuthHandlers struct {
	Svc          LoginService
	Renderer     *TemplateRenderer
	CookieDomain string
	CookieSecure bool
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginPage handles GET /login.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageLogin, "Sign in").
		With("Next", safeRedirectPath(r.URL.Query().Get(NextParam)))
	h.Renderer.RenderPage(w, data) //nolint:errcheck // renderer logs and answers 500
}

// LoginPassword handles POST /login.
func (h *AuthHandlers) LoginPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, http.StatusBadRequest, "Could not read the form.")
		return
	}
	result, err := h.Svc.LoginPassword(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	h.completeLogin(w, r, result)
}

// LoginCode handles POST /login/code.
func (h *AuthHandlers) LoginCode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, http.StatusBadRequest, "Could not read the form.")
		return
	}
	result, err := h.Svc.LoginCode(r.Context(), r.PostFormValue("code"))
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	h.completeLogin(w, r, result)
}

// Logout handles POST /logout. Bearer tokens have no server-side session to
// revoke; dropping the cookies ends the session.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	session.ClearAuthCookies(w, h.CookieDomain)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (h *AuthHandlers) completeLogin(w http.ResponseWriter, r *http.Request, result *service.AuthResult) {
	session.SetAuthCookies(w, result.Token, session.CookieOptions{
		ExpiresIn: result.ExpiresIn,
		Secure:    h.CookieSecure,
		Domain:    h.CookieDomain,
	})
	next := safeRedirectPath(r.PostFormValue(NextParam))
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *AuthHandlers) failLogin(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apierrors.IsAuth(err):
		h.renderLoginError(w, r, http.StatusUnauthorized, "Invalid credentials.")
	default:
		if validation, ok := apierrors.AsValidation(err); ok {
			h.renderLoginError(w, r, http.StatusUnprocessableEntity, validation.Message())
			return
		}
		h.logger().Error("login failed", "error", err)
		h.renderLoginError(w, r, http.StatusBadGateway, "Sign-in is unavailable right now.")
	}
}

func (h *AuthHandlers) renderLoginError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	data := NewTemplateData(r, PageLogin, "Sign in").
		With("Next", safeRedirectPath(r.PostFormValue(NextParam))).
		WithError(msg)
	h.Renderer.RenderError(w, code, data) //nolint:errcheck // renderer logs and answers 500
}
