package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error with the HTTP status it maps to.
// Message is what the caller sees; Err is the cause and is only logged.
type Error struct {
	Code    int
	Message string
	Err     error
	Details gin.H
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetails returns a copy of e whose body carries extra fields.
func (e *Error) WithDetails(details gin.H) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, message, nil)
}

// Internal wraps an unexpected failure. message is the generic text shown
// to the caller.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

func Unavailable(message string, err error) *Error {
	return New(http.StatusServiceUnavailable, message, err)
}

// Body renders the JSON body for e. verbose adds the cause of server errors.
func (e *Error) Body(verbose bool) gin.H {
	body := gin.H{"error": e.Message}
	for k, v := range e.Details {
		body[k] = v
	}
	if verbose && e.Code >= http.StatusInternalServerError && e.Err != nil {
		body["details"] = e.Err.Error()
		body["type"] = fmt.Sprintf("%T", e.Err)
	}
	return body
}

// From converts any error into an *Error, treating unknown errors as
// internal failures.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// Respond aborts the request with the JSON body for err.
func Respond(c *gin.Context, err error, verbose bool) {
	appErr := From(err)
	c.AbortWithStatusJSON(appErr.Code, appErr.Body(verbose))
}
