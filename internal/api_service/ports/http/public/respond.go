package public

import (
	"encoding/json"
	"github.com/andesco/odata-valet/internal/entities"
	"github.com/pkg/errors"
	"log/slog"
	"net/http"
)

const (
	codeUpstreamError   = "upstream_error"
	codeUpstreamTimeout = "upstream_timeout"
	codeRateLimited     = "rate_limited"
	codeInternal        = "internal_error"
	codeNotFound        = "not_found"
)

type ErrorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code,omitempty"`
	Parameter string   `json:"parameter,omitempty"`
	Message   string   `json:"message,omitempty"`
	Example   string   `json:"example,omitempty"`
	Examples  []string `json:"examples,omitempty"`
}

func RespondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func RespondWithError(w http.ResponseWriter, code int, errCode string, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message, Code: errCode})
}

func respondXML(w http.ResponseWriter, code int, contentType, version string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if version != "" {
		w.Header().Set("DataServiceVersion", version)
	}

	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// respondError maps service errors onto status codes and JSON bodies.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *entities.ValidationError
	switch {
	case errors.As(err, &vErr):
		slog.Debug("rejected request", "path", r.URL.Path, "code", vErr.Code, "error", err)
		RespondWithJSON(w, http.StatusBadRequest, validationResponse(vErr))

	case errors.Is(err, entities.ErrUpstreamTimeout):
		slog.Error("upstream timed out", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusGatewayTimeout, codeUpstreamTimeout, err.Error())

	case errors.Is(err, entities.ErrUpstream):
		slog.Error("upstream failed", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusInternalServerError, codeUpstreamError, err.Error())

	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

func validationResponse(e *entities.ValidationError) ErrorResponse {
	resp := ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Parameter: e.Parameter,
		Message:   e.Detail,
	}

	if len(e.Examples) == 1 {
		resp.Example = e.Examples[0]
	} else {
		resp.Examples = e.Examples
	}

	return resp
}
