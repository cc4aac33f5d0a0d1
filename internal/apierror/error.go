// Package apierror provides the JSON error envelope returned by mwpipe
// endpoints and pipelines.
//
// Every error body has the shape {"error": {"message", "type", "code"}}.
package apierror

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Type constants classify errors for clients.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeAuthentication = "authentication_error"
	TypeRateLimit      = "rate_limit_error"
	TypeNotFound       = "not_found_error"
	TypeServer         = "server_error"
)

// Error is an API error with an HTTP status.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Envelope wraps an Error for the wire.
type Envelope struct {
	Error *Error `json:"error"`
}

// Write sends an Error as a JSON HTTP response.
func Write(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)

	if encErr := json.NewEncoder(w).Encode(Envelope{Error: err}); encErr != nil {
		slog.Error("failed to encode error response", "err", encErr)
	}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr, true
	}
	return nil, false
}

// InvalidRequest returns a 400 error for malformed requests.
func InvalidRequest(msg string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: msg,
		Type:    TypeInvalidRequest,
	}
}

// InvalidParam returns a 400 error for a specific invalid parameter.
func InvalidParam(param, msg string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: msg,
		Type:    TypeInvalidRequest,
		Param:   param,
	}
}

// Unauthorized returns a 401 error for authentication failures.
func Unauthorized(msg string) *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Message: msg,
		Type:    TypeAuthentication,
		Code:    "invalid_api_key",
	}
}

// RateLimited returns a 429 error when rate limits are exceeded.
func RateLimited() *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Message: "Rate limit exceeded. Please retry after a brief wait.",
		Type:    TypeRateLimit,
		Code:    "rate_limit_exceeded",
	}
}

// NotFound returns a 404 error for requests nothing handled.
func NotFound(msg string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Message: msg,
		Type:    TypeNotFound,
		Code:    "not_found",
	}
}

// Internal returns a 500 error for unexpected server failures.
func Internal(msg string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: msg,
		Type:    TypeServer,
	}
}
