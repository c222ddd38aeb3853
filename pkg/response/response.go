package response

import (
	"encoding/json"
	"net/http"
)

// Error kinds carried in every error body.
const (
	KindValidation       = "validation_error"
	KindNotFound         = "not_found"
	KindStore            = "store_error"
	KindMethodNotAllowed = "method_not_allowed"
	KindUnauthorized     = "unauthorized"
	KindForbidden        = "forbidden"
	KindConflict         = "conflict"
)

// ErrorBody is the shape of every non-2xx response.
type ErrorBody struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, statusCode int, kind, message string, details interface{}) {
	JSON(w, statusCode, ErrorBody{
		Kind:    kind,
		Message: message,
		Details: details,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, KindValidation, message, nil)
}

func ValidationError(w http.ResponseWriter, message string, details interface{}) {
	if message == "" {
		message = "Validation failed"
	}
	Error(w, http.StatusBadRequest, KindValidation, message, details)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Error(w, http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, KindNotFound, message, nil)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, KindConflict, message, nil)
}

// InternalServerError never carries the underlying cause; callers log it.
func InternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, KindStore, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	Error(w, http.StatusForbidden, KindForbidden, message, nil)
}

func MethodNotAllowed(w http.ResponseWriter, method string) {
	Error(w, http.StatusMethodNotAllowed, KindMethodNotAllowed, "Method "+method+" not allowed", nil)
}
