package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"pressroom/internal/compiler"
	"pressroom/internal/diag"
	"pressroom/internal/engine"
	"pressroom/internal/inject"
)

// timeFormat renders timestamps in API responses.
const timeFormat = "2006-01-02T15:04:05Z"

// errorResponse is the JSON envelope for failed requests.
type errorResponse struct {
	Error       string           `json:"error"`
	Diagnostics []diagnosticJSON `json:"diagnostics,omitempty"`
}

// diagnosticJSON is the wire form of a parser or compiler diagnostic.
type diagnosticJSON struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// diagsJSON converts diagnostics to their wire form, preserving order.
func diagsJSON(ds []diag.Diagnostic) []diagnosticJSON {
	out := make([]diagnosticJSON, 0, len(ds))
	for _, d := range ds {
		out = append(out, diagnosticJSON{
			Line:     d.Line,
			Column:   d.Col,
			Severity: d.Severity.String(),
			Message:  d.Message,
		})
	}
	return out
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a JSON request body of at most limit bytes into dst.
// It answers the request itself on failure and reports whether the caller
// should proceed.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return false
	}
	if int64(len(body)) > limit {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body is not valid JSON: " + err.Error()})
		return false
	}
	return true
}

// decodeModel turns a raw JSON model into the value handed to a render.
// Absent and null models both render as nil, matching templates that
// declare no model type.
func decodeModel(w http.ResponseWriter, raw json.RawMessage) (any, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	var model any
	if err := json.Unmarshal(raw, &model); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "model is not valid JSON: " + err.Error()})
		return nil, false
	}
	return model, true
}

// writeEngineError maps engine failures onto HTTP statuses: unknown keys
// are 404, source errors are 422 with their diagnostics attached, model
// mismatches are 400, and everything else is a 500.
func writeEngineError(w http.ResponseWriter, err error) {
	var (
		notFound   *engine.TemplateNotFoundError
		genErr     *engine.TemplateGenerationError
		compErr    *compiler.CompilationError
		mismatch   *engine.ModelTypeMismatchError
		resolveErr *inject.ServiceResolutionError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &genErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:       err.Error(),
			Diagnostics: diagsJSON(genErr.Diagnostics),
		})
	case errors.As(err, &compErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:       err.Error(),
			Diagnostics: diagsJSON(compErr.Diagnostics),
		})
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &resolveErr):
		slog.Error("service resolution failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		slog.Error("render failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
