// Package api defines the JSON wire types of the ausweis HTTP surface:
// structured error responses and the login token response.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType categorizes an API error.
type ErrorType string

const (
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeForbidden      ErrorType = "forbidden"
)

// Error represents a structured API error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an Error as the top-level error response body.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// NewUnauthorizedError creates an Error for rejected credentials.
func NewUnauthorizedError(message string) *Error {
	return &Error{Type: ErrorTypeUnauthorized, Message: message}
}

// NewForbiddenError creates an Error for insufficient permissions.
func NewForbiddenError(message string) *Error {
	return &Error{Type: ErrorTypeForbidden, Message: message}
}

// NewServerError creates an Error for internal faults.
func NewServerError(message string) *Error {
	return &Error{Type: ErrorTypeServerError, Message: message}
}

// WriteError serializes an Error as JSON with the given HTTP status.
func WriteError(w http.ResponseWriter, status int, apiErr *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: apiErr})
}

// WriteJSON serializes v as JSON with the given HTTP status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
