// Package errors defines the service error taxonomy shared by the domain
// services and the HTTP boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of service failure.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeRateLimited  ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// ServiceError is an error carrying the HTTP status it should surface as.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches service errors by code so callers can test with a template,
// e.g. errors.Is(err, &ServiceError{Code: CodeNotFound}).
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails attaches a key/value pair to the error and returns it.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFound reports that no entity matched the given identifier. The message
// reads like "Order with ID 42 not found".
func NotFound(entity, field string, value interface{}) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound,
		fmt.Sprintf("%s with %s %v not found", entity, field, value), nil).
		WithDetails("entity", entity)
}

// Unauthorized reports a missing or unusable credential.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Not authenticated"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken reports a token that failed verification.
func InvalidToken(err error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "Invalid token or expired", err)
}

// Forbidden reports an authenticated caller lacking the required role.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "Access not permitted"
	}
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// Validation reports a request that does not satisfy the wire contract.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, http.StatusUnprocessableEntity, message, nil)
}

// RateLimitExceeded reports a caller over its request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return newError(CodeRateLimited, http.StatusTooManyRequests,
		fmt.Sprintf("rate limit of %d requests per %s exceeded", limit, window), nil)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, err)
}

// GetServiceError returns the first ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// HTTPStatus maps any error to the status it surfaces as. Errors outside the
// taxonomy are internal.
func HTTPStatus(err error) int {
	if se := GetServiceError(err); se != nil {
		return se.HTTPStatus
	}
	return http.StatusInternalServerError
}
