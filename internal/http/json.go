package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apierrors "github.com/comfykit/studio-ui/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Client disconnects can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteBackendError maps a failed backend call onto a JSON error response,
// preserving the backend's status and, for validation failures, its field
// detail.
func WriteBackendError(w http.ResponseWriter, err error) {
	if validation, ok := apierrors.AsValidation(err); ok {
		WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation_failed",
			"detail": validation.Detail,
		})
		return
	}

	code := apierrors.StatusOf(err)
	if code == 0 {
		code = http.StatusBadGateway
	}
	errCode := "backend_error"
	if apierrors.IsAuth(err) {
		errCode = "authentication_required"
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: err})
}
