// Package errors defines the typed failures of the users backend. Each one knows the
// HTTP status it is reported with, so handlers map them with errors.As.
package errors

import (
	"fmt"
	"net/http"
)

// HTTPStatuser is implemented by errors that map to an HTTP status
type HTTPStatuser interface {
	HTTPStatus() int
}

// ValidationError is a rejected request field. Field is the JSON name and may be empty
// when the whole request is at fault.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
}

// HTTPStatus implements HTTPStatuser
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// NotFoundError reports a missing resource. Message, when set, is shown to clients as is.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

func (e *NotFoundError) Error() string {
	return messageOr(e.Message, e.Resource+" not found")
}

// HTTPStatus implements HTTPStatuser
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// AlreadyExistsError reports a uniqueness conflict such as a duplicate email.
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, Message: message}
}

func (e *AlreadyExistsError) Error() string {
	return messageOr(e.Message, e.Resource+" already exists")
}

// HTTPStatus implements HTTPStatuser
func (e *AlreadyExistsError) HTTPStatus() int { return http.StatusConflict }

// InternalError wraps a storage or cache failure. Its text is logged, never sent to
// clients.
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// HTTPStatus implements HTTPStatuser
func (e *InternalError) HTTPStatus() int { return http.StatusInternalServerError }

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
