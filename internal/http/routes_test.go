package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfykit/studio-ui/internal/apiclient"
	"github.com/comfykit/studio-ui/internal/service"
)

// newTestRouter wires the full handler tree against a fake backend. The
// backend knows two tokens: "user-tok" (operator) and "admin-tok".
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	backend := http.NewServeMux()
	backend.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Username != "alice" || creds.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeBackendJSON(w, `{"access_token":"user-tok","token_type":"bearer","expires_in":3600}`)
	})
	backend.HandleFunc("POST /api/v1/auth/code", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Code != "WELCOME1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			writeBackendJSON(w, `{"detail":[{"loc":["body","code"],"msg":"code expired","type":"expired"}]}`)
			return
		}
		writeBackendJSON(w, `{"access_token":"user-tok","token_type":"bearer","expires_in":600}`)
	})
	backend.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer user-tok":
			writeBackendJSON(w, `{"sub":"alice","login_mode":"password","roles":["operator"]}`)
		case "Bearer admin-tok":
			writeBackendJSON(w, `{"sub":"root","roles":["admin"]}`)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	backend.HandleFunc("GET /api/v1/auth/admin/ping", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer admin-tok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeBackendJSON(w, `{"ok":true,"sub":"root"}`)
	})
	backend.HandleFunc("GET /api/v1/auth/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, `[{"username":"alice"}]`)
	})
	backend.HandleFunc("GET /api/v1/auth/admin/codes", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, `[]`)
	})
	backend.HandleFunc("GET /api/v1/forms/workflows", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, `[{"id":"sdxl-basic","name":"SDXL Basic","description":"text to image"}]`)
	})
	backend.HandleFunc("POST /api/v1/forms/workflows/sdxl-basic/execute", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, `{"execution_id":"exec-1","status":"queued"}`)
	})
	backend.HandleFunc("GET /api/v1/health/", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, `{"status":"ok"}`)
	})
	backend.HandleFunc("GET /api/v1/health/comfyui", func(w http.ResponseWriter, r *http.Request) {
		writeBackendJSON(w, `{"status":"connected"}`)
	})

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api/v1"})
	router, err := NewRouter(RouterServices{
		Auth:      service.NewAuthService(service.AuthServiceOptions{Client: client}),
		Workflows: service.NewWorkflowService(service.WorkflowServiceOptions{Client: client}),
		Health:    service.NewHealthService(service.HealthServiceOptions{Client: client}),
		Admin:     service.NewAdminService(service.AdminServiceOptions{Client: client}),
	})
	require.NoError(t, err)
	return router
}

func writeBackendJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body)) //nolint:errcheck
}

func TestLoginFlowSetsCookiesAndRedirects(t *testing.T) {
	router := newTestRouter(t)

	form := strings.NewReader("username=alice&password=s3cret&next=%2Fworkflows")
	r := httptest.NewRequest(http.MethodPost, "/login", form)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/workflows", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}
	require.NotNil(t, byName["auth_token"])
	assert.True(t, byName["auth_token"].HttpOnly)
	assert.Equal(t, "user-tok", byName["auth_token"].Value)
	require.NotNil(t, byName["auth_expires"])
	assert.False(t, byName["auth_expires"].HttpOnly)
}

func TestLoginRejectionRendersForm(t *testing.T) {
	router := newTestRouter(t)

	form := strings.NewReader("username=alice&password=wrong")
	r := httptest.NewRequest(http.MethodPost, "/login", form)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
	assert.Empty(t, w.Result().Cookies())
}

func TestMePageWithoutCookieRedirects(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fme", w.Header().Get("Location"))
}

func TestMePageRendersVerifiedIdentity(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Cookie", "auth_token=user-tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
	assert.Contains(t, w.Body.String(), "operator")
}

func TestMePageStaleTokenClearsAndRedirects(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Cookie", "auth_token=revoked-tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fme", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestWorkflowsPageLists(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/workflows", nil)
	r.Header.Set("Cookie", "auth_token=user-tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SDXL Basic")
	assert.Contains(t, w.Body.String(), "/workflows/sdxl-basic")
}

func TestExecuteProxyEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body := strings.NewReader(`{"nodes":{"4":{"text":"a cat"}}}`)
	r := httptest.NewRequest(http.MethodPost, "/api/workflows/sdxl-basic/execute", body)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Cookie", "auth_token=user-tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "exec-1")
}

func TestAdminJSONRequiresAdminRole(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	r.Header.Set("Cookie", "auth_token=user-tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	r.Header.Set("Cookie", "auth_token=admin-tok")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestDashboardIsPublic(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sign in")
	assert.Contains(t, w.Body.String(), "connected")
}

func TestHealthzAndStatic(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/js/theme.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginCodeFlow(t *testing.T) {
	router := newTestRouter(t)

	form := strings.NewReader("code=WELCOME1")
	r := httptest.NewRequest(http.MethodPost, "/login/code", form)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Len(t, w.Result().Cookies(), 2)
}

func TestLoginCodeValidationMessageShown(t *testing.T) {
	router := newTestRouter(t)

	form := strings.NewReader("code=EXPIRED9")
	r := httptest.NewRequest(http.MethodPost, "/login/code", form)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "code expired")
}

func TestLogoutClearsCookies(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.Header.Set("Cookie", "auth_token=user-tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Less(t, c.MaxAge, 0)
	}
}
