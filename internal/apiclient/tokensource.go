package apiclient

import (
	"net/http"

	"github.com/comfykit/studio-ui/internal/session"
)

// TokenSource supplies the bearer token for a single backend call. It is the
// explicit session context passed into the client: a server handler derives
// one from the incoming request's cookies, login flows construct one from a
// token that has not been persisted yet. The client itself never consults
// ambient state.
type TokenSource interface {
	// Token returns the bearer token and whether one is available.
	Token() (string, bool)
}

type staticSource string

func (s staticSource) Token() (string, bool) { return string(s), s != "" }

// Static returns a TokenSource for an already-known token.
func Static(token string) TokenSource { return staticSource(token) }

type cookieHeaderSource string

func (c cookieHeaderSource) Token() (string, bool) {
	return session.TokenFromCookieHeader(string(c))
}

// CookieHeader returns a TokenSource that extracts the token from a raw
// cookie header string.
func CookieHeader(header string) TokenSource { return cookieHeaderSource(header) }

// FromRequest returns a TokenSource backed by the request's cookie header.
func FromRequest(r *http.Request) TokenSource {
	return CookieHeader(r.Header.Get("Cookie"))
}

type noneSource struct{}

func (noneSource) Token() (string, bool) { return "", false }

// None is a TokenSource that never yields a token, for unauthenticated calls.
var None TokenSource = noneSource{}
