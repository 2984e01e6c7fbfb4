package http

import (
	"fmt"
	"net/http"
)

// AppError is a failure rendered to clients inside the error envelope.
type AppError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + " " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError builds an error answered with status.
func NewAppError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// OnField names the request field the error refers to.
func (e *AppError) OnField(field string) *AppError {
	e.Field = field
	return e
}

// WithError keeps the cause for logs; it is never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestError(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, message)
}

func BadGatewayError(code, message string) *AppError {
	return NewAppError(http.StatusBadGateway, code, message)
}

func ServiceUnavailableError(code, message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, code, message)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, "ERR_RATE_LIMITED", message)
}

func InternalError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, "ERR_INTERNAL", message)
}
