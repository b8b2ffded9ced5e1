// Package errors defines the service's sentinel errors, the AppError type
// carried to HTTP edges, and the mapping from errors to status codes and
// machine-readable codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrQueryTooLong         = errors.New("query too long")
	ErrLanguageNotSupported = language.ErrLanguageNotSupported
	ErrUnknownVersion       = language.ErrUnknownVersion
	ErrInternal             = errors.New("internal error")
	ErrTimeout              = errors.New("operation timed out")
	ErrUnavailable          = errors.New("dependency unavailable")
	ErrRateLimited          = errors.New("rate limit exceeded")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrLanguageNotSupported),
		errors.Is(err, ErrUnknownVersion):
		return http.StatusBadRequest
	case errors.Is(err, ErrQueryTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine-readable name for err, used in API error
// bodies and as a metrics label.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrLanguageNotSupported):
		return "language_not_supported"
	case errors.Is(err, ErrUnknownVersion):
		return "unknown_version"
	case errors.Is(err, ErrQueryTooLong):
		return "query_too_long"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}

// FromCode maps a Code value back to its sentinel, so errors that crossed
// the RPC boundary still satisfy errors.Is. Unknown codes map to ErrInternal.
func FromCode(code string) error {
	switch code {
	case "ok", "":
		return nil
	case "language_not_supported":
		return ErrLanguageNotSupported
	case "unknown_version":
		return ErrUnknownVersion
	case "query_too_long":
		return ErrQueryTooLong
	case "invalid_input":
		return ErrInvalidInput
	case "timeout":
		return ErrTimeout
	case "unavailable":
		return ErrUnavailable
	case "rate_limited":
		return ErrRateLimited
	default:
		return ErrInternal
	}
}
