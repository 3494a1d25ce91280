package httpx

import (
	"net/url"
	"strings"
)

// safeRedirectPath ensures the provided redirect is a same-origin relative
// path starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// loginRedirectURL builds the login URL carrying the current location so the
// user lands back where they started after signing in.
func loginRedirectURL(next string) string {
	next = safeRedirectPath(next)
	if next == "/" {
		return LoginPath
	}
	return LoginPath + "?" + NextParam + "=" + url.QueryEscape(next)
}
