package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCookieHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single pair", "a=1", map[string]string{"a": "1"}},
		{"multiple pairs", "a=1; b=2;c=3", map[string]string{"a": "1", "b": "2", "c": "3"}},
		{"percent decoding", "token=abc%2Fdef; path=%2Fadmin%3Fpage%3D2", map[string]string{"token": "abc/def", "path": "/admin?page=2"}},
		{"plus stays literal", "v=a+b", map[string]string{"v": "a+b"}},
		{"malformed segment skipped", "a=1; garbage; b=2", map[string]string{"a": "1", "b": "2"}},
		{"later duplicate wins", "a=1; a=2", map[string]string{"a": "2"}},
		{"empty key skipped", "=1; a=2", map[string]string{"a": "2"}},
		{"value with equals kept", "a=b=c", map[string]string{"a": "b=c"}},
		{"only garbage", ";;; ;", map[string]string{}},
		{"malformed escape kept verbatim", "a=%zz", map[string]string{"a": "%zz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCookieHeader(tt.header))
		})
	}
}

func TestTokenFromCookieHeader(t *testing.T) {
	token, ok := TokenFromCookieHeader("auth_token=abc.def.ghi; auth_expires=2026-01-01T00%3A00%3A00Z")
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = TokenFromCookieHeader("other=1")
	assert.False(t, ok)

	_, ok = TokenFromCookieHeader("auth_token=")
	assert.False(t, ok)

	_, ok = TokenFromCookieHeader("")
	assert.False(t, ok)
}

func TestSetAuthCookiesRoundTrip(t *testing.T) {
	const token = "eyJhbGciOiJIUzI1NiJ9.payload/with+chars.sig"

	w := httptest.NewRecorder()
	expiresISO := SetAuthCookies(w, token, CookieOptions{ExpiresIn: 3600, Secure: true})

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}

	tokenCookie := byName[TokenCookie]
	require.NotNil(t, tokenCookie)
	assert.True(t, tokenCookie.HttpOnly)
	assert.True(t, tokenCookie.Secure)
	assert.Equal(t, "/", tokenCookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, tokenCookie.SameSite)
	assert.Equal(t, 3600, tokenCookie.MaxAge)

	expiresCookie := byName[ExpiresCookie]
	require.NotNil(t, expiresCookie)
	assert.False(t, expiresCookie.HttpOnly)
	assert.Equal(t, expiresISO, expiresCookie.Value)

	parsed, err := time.Parse(time.RFC3339, expiresISO)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), parsed, 5*time.Second)

	// Reconstruct the cookie header a browser would send back and confirm
	// the token value round-trips exactly.
	header := TokenCookie + "=" + tokenCookie.Value + "; " + ExpiresCookie + "=" + expiresCookie.Value
	got, ok := TokenFromCookieHeader(header)
	require.True(t, ok)
	assert.Equal(t, token, got)
}

func TestSetAuthCookiesFloorsExpiry(t *testing.T) {
	for _, expiresIn := range []int{0, -10} {
		w := httptest.NewRecorder()
		SetAuthCookies(w, "tok", CookieOptions{ExpiresIn: expiresIn})
		for _, c := range w.Result().Cookies() {
			assert.Equal(t, 1, c.MaxAge, "ExpiresIn=%d", expiresIn)
		}
	}
}

func TestClearAuthCookiesIdempotent(t *testing.T) {
	clearOnce := func() []string {
		w := httptest.NewRecorder()
		ClearAuthCookies(w, "")
		return w.Header().Values("Set-Cookie")
	}

	first := clearOnce()
	second := clearOnce()
	assert.Equal(t, first, second)

	// Both cookies are expired regardless of prior state.
	w := httptest.NewRecorder()
	ClearAuthCookies(w, "")
	ClearAuthCookies(w, "")
	names := map[string]int{}
	for _, c := range w.Result().Cookies() {
		assert.Less(t, c.MaxAge, 0)
		assert.Empty(t, c.Value)
		names[c.Name]++
	}
	assert.Equal(t, 2, names[TokenCookie])
	assert.Equal(t, 2, names[ExpiresCookie])
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Cookie", "auth_token=tok123")

	token, ok := TokenFromRequest(r)
	require.True(t, ok)
	assert.Equal(t, "tok123", token)

	bare := httptest.NewRequest(http.MethodGet, "/me", nil)
	_, ok = TokenFromRequest(bare)
	assert.False(t, ok)
}

func TestParseCookieHeaderNeverPanics(t *testing.T) {
	inputs := []string{"=", "==", "a==b", strings.Repeat(";", 100), "%%%=%%%"}
	for _, in := range inputs {
		assert.NotNil(t, ParseCookieHeader(in))
	}
}
