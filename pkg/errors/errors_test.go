package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/fts/language"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"language", fmt.Errorf("parsing query: %w", language.ErrLanguageNotSupported), http.StatusBadRequest},
		{"version", language.ErrUnknownVersion, http.StatusBadRequest},
		{"invalid", ErrInvalidInput, http.StatusBadRequest},
		{"too long", ErrQueryTooLong, http.StatusRequestEntityTooLarge},
		{"timeout", ErrTimeout, http.StatusGatewayTimeout},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"app error", Newf(ErrInvalidInput, http.StatusTeapot, "x=%d", 1), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := New(ErrInvalidInput, http.StatusBadRequest, "q is required")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid input: q is required", err.Error())
}

func TestCode(t *testing.T) {
	assert.Equal(t, "ok", Code(nil))
	assert.Equal(t, "language_not_supported", Code(fmt.Errorf("x: %w", language.ErrLanguageNotSupported)))
	assert.Equal(t, "query_too_long", Code(ErrQueryTooLong))
	assert.Equal(t, "internal", Code(errors.New("boom")))
}

func TestFromCodeRoundTrip(t *testing.T) {
	for _, sentinel := range []error{
		ErrLanguageNotSupported,
		ErrUnknownVersion,
		ErrQueryTooLong,
		ErrInvalidInput,
		ErrTimeout,
		ErrUnavailable,
		ErrRateLimited,
	} {
		assert.ErrorIs(t, FromCode(Code(sentinel)), sentinel)
	}
	assert.NoError(t, FromCode("ok"))
	assert.ErrorIs(t, FromCode("something_new"), ErrInternal)
}
