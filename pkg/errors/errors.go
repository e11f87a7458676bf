package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Match them with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrOutOfStock     = errors.New("out of stock")
)

// kind ties a sentinel to its public code, status and generic message.
type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// kinds is consulted in order; the first sentinel matched by errors.Is wins.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrAlreadyExists, "ALREADY_EXISTS", http.StatusConflict, "resource already exists"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, "invalid input"},
	{ErrOutOfStock, "OUT_OF_STOCK", http.StatusConflict, "requested quantity is not available"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "resource was modified concurrently"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "a dependency is unavailable"},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "access denied"},
}

var internalKind = kind{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"}

func kindOf(err error) kind {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k
		}
	}
	return internalKind
}

// AppError is an error with a public code, a message safe to show clients
// and an HTTP status. Err is the sentinel it matches.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(sentinel error, message string) *AppError {
	k := kindOf(sentinel)
	return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return newAppError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newAppError(ErrInvalidInput, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return newAppError(ErrUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return newAppError(ErrForbidden, message)
}

// Conflict creates a 409 error for a lost optimistic-locking race.
func Conflict(message string) *AppError {
	return newAppError(ErrConflict, message)
}

// OutOfStock creates a 409 error for a quantity above the stock ceiling. The
// message is shown to shoppers as-is, e.g. "Only 5 in stock.".
func OutOfStock(message string) *AppError {
	return newAppError(ErrOutOfStock, message)
}

// ServiceUnavailable creates a 503 error for an unreachable dependency.
func ServiceUnavailable(message string) *AppError {
	return newAppError(ErrServiceUnavail, message)
}

// Classify returns the public code, status and message for err. AppErrors
// report their own; bare or wrapped sentinels get a generic message; anything
// else is an internal error.
func Classify(err error) (code string, status int, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Status, appErr.Message
	}
	k := kindOf(err)
	return k.code, k.status, k.message
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	_, status, _ := Classify(err)
	return status
}
