package httpx

import (
	"io"
	"net/http"

	"github.com/comfykit/studio-ui/internal/service"
)

const healthResponse = `{"status":"ok"}`

// healthHandler answers readiness/liveness checks for this service itself,
// without touching the backend.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// HealthHandlers exposes the backend probes as JSON for the dashboard.
type HealthHandlers struct {
	Svc *service.HealthService
}

// Backend handles GET /api/health: both probes in one response.
func (h *HealthHandlers) Backend(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.Check(r.Context()))
}
