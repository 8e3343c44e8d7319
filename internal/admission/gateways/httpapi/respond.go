package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
	"github.com/maegy2011/yt-sub000/internal/admission/services/importer"
)

type apiError struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Fields    []domain.FieldError `json:"fields,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) errorResponse {
	return errorResponse{Error: apiError{
		Code:      code,
		Message:   message,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}}
}

// writeError maps domain errors onto status codes. Anything unrecognised
// is logged and reported as a 500 without its message.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := errorResp("VALIDATION_ERROR", "validation failed", r)
		resp.Error.Fields = verr.Fields
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", err.Error(), r))
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", err.Error(), r))
	case errors.Is(err, importer.ErrClosed):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("UNAVAILABLE", err.Error(), r))
	default:
		a.logger.Error(map[string]any{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestId": chimiddleware.GetReqID(r.Context()),
			"error":     err,
		}, "request_failed")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "internal error", r))
	}
}

func badRequest(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", fmt.Sprintf(format, args...), r))
}

// decodeJSON reads one JSON document into dst and validates it. It writes
// the 400 itself and reports whether the handler should continue.
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", err.Error(), r))
			return false
		}
		badRequest(w, r, "invalid request body: %v", err)
		return false
	}
	if err := a.check(dst); err != nil {
		a.writeError(w, r, err)
		return false
	}
	return true
}
