package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindInvalidFile        Kind = "invalid_file"
	KindFileTooLarge       Kind = "file_too_large"
	KindNotFound           Kind = "not_found"
	KindUnavailable        Kind = "unavailable"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindUnknown            Kind = "unknown"
)

// Error is the single error type crossing package boundaries in this service.
type Error struct {
	Kind    Kind
	Message string
	// Field is set for validation errors and names the first failing input.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrInvalidFile        = &Error{Kind: KindInvalidFile}
	ErrFileTooLarge       = &Error{Kind: KindFileTooLarge}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnavailable        = &Error{Kind: KindUnavailable}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func InvalidFile(message string) *Error {
	return &Error{Kind: KindInvalidFile, Message: message}
}

func FileTooLarge(message string) *Error {
	return &Error{Kind: KindFileTooLarge, Message: message}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a transport failure and keeps the upstream message visible to operators.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

func StorageUnavailable(message string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: message, Err: err}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Unknown(err error) *Error {
	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Status maps a kind onto the HTTP status the API answers with.
func Status(kind Kind) int {
	switch kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindInvalidFile:
		return fiber.StatusUnsupportedMediaType
	case KindFileTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnavailable, KindStorageUnavailable:
		return fiber.StatusServiceUnavailable
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}
