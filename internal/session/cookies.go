package session

// Package session owns the cookie-based session artifacts. The bearer token
// lives in an HttpOnly cookie that browser script can never read; the only
// session fact exposed to script is the companion expiry timestamp cookie.

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// TokenCookie holds the JWT bearer token. Server-only.
	TokenCookie = "auth_token"

	// ExpiresCookie holds the session expiry as an ISO-8601 timestamp.
	// Script-readable so the UI can display expiry without the token.
	ExpiresCookie = "auth_expires"
)

// ParseCookieHeader decodes a raw "k1=v1; k2=v2" cookie header into a map.
// Keys and values are percent-decoded, pairs without "=" are skipped, and
// later duplicate keys overwrite earlier ones. It never fails; unparseable
// input yields an empty map.
func ParseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	if header == "" {
		return out
	}
	for _, part := range strings.Split(header, ";") {
		idx := strings.Index(part, "=")
		if idx < 0 {
			continue
		}
		key := decodeComponent(strings.TrimSpace(part[:idx]))
		value := decodeComponent(strings.TrimSpace(part[idx+1:]))
		if key != "" {
			out[key] = value
		}
	}
	return out
}

// decodeComponent percent-decodes s, returning it unchanged when malformed.
// PathUnescape is used instead of QueryUnescape so "+" stays literal.
func decodeComponent(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

// TokenFromCookieHeader extracts the auth token from a raw cookie header.
func TokenFromCookieHeader(header string) (string, bool) {
	token, ok := ParseCookieHeader(header)[TokenCookie]
	return token, ok && token != ""
}

// TokenFromRequest extracts the auth token from the request's cookie header.
func TokenFromRequest(r *http.Request) (string, bool) {
	return TokenFromCookieHeader(r.Header.Get("Cookie"))
}

// CookieOptions controls the attributes of the auth cookie pair.
type CookieOptions struct {
	// ExpiresIn is the cookie lifetime in seconds, floored to 1 so a
	// freshly-set cookie is never already expired.
	ExpiresIn int

	// Secure marks the cookies TLS-only. True in production.
	Secure bool

	// Domain scopes the cookies; empty uses the request domain.
	Domain string
}

// SetAuthCookies writes the HttpOnly token cookie and the script-readable
// expiry cookie, both scoped to the whole site with SameSite=Lax. It returns
// the computed expiry instant in ISO-8601 form (the value of the expiry
// cookie).
func SetAuthCookies(w http.ResponseWriter, token string, opts CookieOptions) string {
	maxAge := opts.ExpiresIn
	if maxAge < 1 {
		maxAge = 1
	}
	expiresAt := time.Now().Add(time.Duration(maxAge) * time.Second).UTC()
	expiresAtISO := expiresAt.Format(time.RFC3339)

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    url.PathEscape(token),
		Path:     "/",
		Domain:   opts.Domain,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  expiresAt,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     ExpiresCookie,
		Value:    expiresAtISO,
		Path:     "/",
		Domain:   opts.Domain,
		HttpOnly: false,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  expiresAt,
	})

	return expiresAtISO
}

// ClearAuthCookies removes both auth cookies unconditionally. Calling it on
// a response that never had them is a no-op for the client, so it is
// idempotent.
func ClearAuthCookies(w http.ResponseWriter, domain string) {
	for _, name := range []string{TokenCookie, ExpiresCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   domain,
			HttpOnly: name == TokenCookie,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0).UTC(),
		})
	}
}
