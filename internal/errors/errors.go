package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindValidation   Kind = "VALIDATION"
	KindNotFound     Kind = "NOT_FOUND"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindConflict     Kind = "CONFLICT"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindInternal     Kind = "INTERNAL"
)

// Codes used where a kind alone is too coarse for clients.
const (
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeTooManyPending    = "TOO_MANY_PENDING_ORDERS"
	CodeBotChallenge      = "BOT_CHALLENGE_FAILED"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeLookupFailed      = "LOOKUP_FAILED"
)

// AppError is a classified error carrying a client-safe message.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCode returns a copy of e with a specific code.
func (e *AppError) WithCode(code string) *AppError {
	cp := *e
	cp.Code = code
	return &cp
}

func newError(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Code: string(kind), Message: message}
}

// Unauthorized reports a missing or invalid admin session.
func Unauthorized(message string) *AppError { return newError(KindUnauthorized, message) }

// Validation reports malformed input, optionally with field level details.
func Validation(message string, details map[string]string) *AppError {
	e := newError(KindValidation, message)
	e.Details = details
	return e
}

// NotFound reports a missing product, order or card.
func NotFound(message string) *AppError { return newError(KindNotFound, message) }

// BadRequest reports a business rule violation.
func BadRequest(message string) *AppError { return newError(KindBadRequest, message) }

// Conflict reports an illegal state transition.
func Conflict(message string) *AppError { return newError(KindConflict, message) }

// RateLimited reports a throttled caller.
func RateLimited(message string) *AppError { return newError(KindRateLimited, message) }

// Internal wraps an unexpected failure. The cause is never shown to clients.
func Internal(message string, err error) *AppError {
	e := newError(KindInternal, message)
	e.Err = err
	return e
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
}

// Public drops field level details for buyer facing endpoints.
func (e *HTTPError) Public() *HTTPError {
	cp := *e
	cp.Details = nil
	return &cp
}

var statusByKind = map[Kind]int{
	KindUnauthorized: http.StatusUnauthorized,
	KindValidation:   http.StatusUnprocessableEntity,
	KindNotFound:     http.StatusNotFound,
	KindBadRequest:   http.StatusBadRequest,
	KindConflict:     http.StatusConflict,
	KindRateLimited:  http.StatusTooManyRequests,
	KindInternal:     http.StatusInternalServerError,
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
	httpErr := NewHTTPError(statusByKind[appErr.Kind], appErr.Message, appErr.Code)
	httpErr.Details = appErr.Details
	return httpErr
}
