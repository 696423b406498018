package handler

// RESPONSE HELPERS:
// Every handler sends JSON through writeJSON and every failure through
// writeError, so clients always see the same shapes:
//
//	writeJSON(w, http.StatusOK, data)
//	writeError(w, err)
//
// ERROR FORMAT:
//
//	{"error": "validation_error", "message": "title: This field is required.",
//	 "fields": {"title": ["This field is required."]}}
//
// "fields" only appears on validation errors.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
)

// maxBodyBytes caps request bodies. Recipe and user payloads are tiny.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string              `json:"error"`            // Machine-readable error type (e.g., "not_found")
	Message string              `json:"message"`          // Human-readable description
	Fields  map[string][]string `json:"fields,omitempty"` // Per-field validation messages
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set BEFORE the body: once Encode writes, the
// headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
// The service layer returns apperror.ErrValidation, apperror.ErrNotFound,
// etc. and knows nothing about HTTP. errors.Is walks the wrap chain, so
// fmt.Errorf("...: %w", apperror.NotFound(...)) still maps to 404.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"
		var fields map[string][]string

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			errorType = "validation_error"
			fields = appErr.Fields
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
			errorType = "unauthorized"
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		}

		if status == http.StatusInternalServerError {
			writeInternalError(w)
			return
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Fields:  fields,
		})
		return
	}

	// NEVER expose internal error details to the client. The raw message
	// might contain SQL or file paths; the service has already logged it.
	writeInternalError(w)
}

func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Syntax and type errors come back as validation errors, so a malformed
// payload is a 400 like any other bad input. Unknown fields are ignored:
// a client sending "id" or "user" gets them dropped, not rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed(apperror.NonFieldErrors, "Request body is empty.")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return apperror.ValidationFailed(typeErr.Field, invalidTypeMessage(typeErr))
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed(apperror.NonFieldErrors,
				fmt.Sprintf("Request body must not exceed %d bytes.", maxErr.Limit))
		default:
			return apperror.ValidationFailed(apperror.NonFieldErrors, "JSON parse error - "+err.Error())
		}
	}

	if dec.More() {
		return apperror.ValidationFailed(apperror.NonFieldErrors, "Request body must contain a single JSON object.")
	}
	return nil
}

func invalidTypeMessage(e *json.UnmarshalTypeError) string {
	switch e.Type.Kind() {
	case reflect.Int, reflect.Int64:
		return "A valid integer is required."
	case reflect.String:
		return "Not a valid string."
	}
	return "Invalid value."
}
