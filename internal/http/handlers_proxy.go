package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/comfykit/studio-ui/internal/apiclient"
	"github.com/comfykit/studio-ui/internal/service"
)

// maxProxyBody bounds JSON bodies accepted on the proxy endpoints.
const maxProxyBody = 1 << 20

// ProxyHandlers serves the JSON endpoints the pages call from the browser:
// execution control for the run page and the admin management calls. Each
// call re-presents the caller's cookie token to the backend, which stays the
// authority on what the token may do.
type ProxyHandlers struct {
	Workflows *service.WorkflowService
	Admin     *service.AdminService
	Logger    *slog.Logger
}

// ExecuteWorkflow handles POST /api/workflows/{id}/execute.
func (h *ProxyHandlers) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Nodes map[string]any `json:"nodes"`
	}
	if !decodeProxyBody(w, r, &body) {
		return
	}

	ref, err := h.Workflows.Execute(r.Context(), apiclient.FromRequest(r), r.PathValue("id"), body.Nodes)
	if err != nil {
		WriteBackendError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, ref)
}

// ExecutionStatus handles GET /api/executions/{id}/status.
func (h *ProxyHandlers) ExecutionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Workflows.Status(r.Context(), apiclient.FromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteBackendError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// CancelExecution handles DELETE /api/executions/{id}.
func (h *ProxyHandlers) CancelExecution(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflows.Cancel(r.Context(), apiclient.FromRequest(r), r.PathValue("id")); err != nil {
		WriteBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles GET /api/admin/users.
func (h *ProxyHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.passThrough(w, func() (json.RawMessage, error) {
		return h.Admin.ListUsers(r.Context(), apiclient.FromRequest(r))
	}, http.StatusOK)
}

// CreateUser handles POST /api/admin/users.
func (h *ProxyHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	payload, ok := readProxyPayload(w, r)
	if !ok {
		return
	}
	h.passThrough(w, func() (json.RawMessage, error) {
		return h.Admin.CreateUser(r.Context(), apiclient.FromRequest(r), payload)
	}, http.StatusCreated)
}

// DeleteUser handles DELETE /api/admin/users/{username}.
func (h *ProxyHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteUser(r.Context(), apiclient.FromRequest(r), r.PathValue("username")); err != nil {
		WriteBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCodes handles GET /api/admin/codes.
func (h *ProxyHandlers) ListCodes(w http.ResponseWriter, r *http.Request) {
	h.passThrough(w, func() (json.RawMessage, error) {
		return h.Admin.ListCodes(r.Context(), apiclient.FromRequest(r))
	}, http.StatusOK)
}

// CreateCode handles POST /api/admin/codes.
func (h *ProxyHandlers) CreateCode(w http.ResponseWriter, r *http.Request) {
	payload, ok := readProxyPayload(w, r)
	if !ok {
		return
	}
	h.passThrough(w, func() (json.RawMessage, error) {
		return h.Admin.CreateCode(r.Context(), apiclient.FromRequest(r), payload)
	}, http.StatusCreated)
}

// RevokeCode handles DELETE /api/admin/codes/{id}.
func (h *ProxyHandlers) RevokeCode(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.RevokeCode(r.Context(), apiclient.FromRequest(r), r.PathValue("id")); err != nil {
		WriteBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProxyHandlers) passThrough(w http.ResponseWriter, call func() (json.RawMessage, error), code int) {
	raw, err := call()
	if err != nil {
		WriteBackendError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(raw) //nolint:errcheck // client disconnects can't be recovered
}

func decodeProxyBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxProxyBody))
	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

func readProxyPayload(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBody))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "unreadable_body", Err: err})
		return nil, false
	}
	if !json.Valid(raw) {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_json",
			Err:     errors.New("request body is not valid JSON"),
		})
		return nil, false
	}
	return raw, true
}
