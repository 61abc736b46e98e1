package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/conectados420/storefront/internal/api/problem"
)

var errEmptyBody = errors.New("request body is empty")

func writeJSON(w http.ResponseWriter, status int, payload any, contentType string) {
	if contentType == "" || !strings.HasPrefix(contentType, "application/") {
		contentType = "application/json"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}

// decodeJSON reads a JSON body into dst. On failure it writes the problem
// response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "Request body too large", err, env)
	case errors.Is(err, io.EOF):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", errEmptyBody, env)
	default:
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid JSON", err, env)
	}
	return false
}

// idsRequest is the body of admin bulk actions.
type idsRequest struct {
	IDs []string `json:"ids"`
}

func (req idsRequest) clean() []string {
	out := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

type countResponse struct {
	Count int64 `json:"count"`
}

func serverError(w http.ResponseWriter, r *http.Request, err error, env string) {
	problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
}

func notFound(w http.ResponseWriter, r *http.Request, title string, err error, env string) {
	problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, title, err, env)
}

func validationFailed(w http.ResponseWriter, r *http.Request, field, message string, err error, env string) {
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
		problem.WithDetail(message),
		problem.WithErrors(map[string]interface{}{field: message}),
	)
}
