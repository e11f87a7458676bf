package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func structuredError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_Structured(t *testing.T) {
	tests := []struct {
		status   int
		code     string
		sentinel error
	}{
		{http.StatusNotFound, "NOT_FOUND", apperrors.ErrNotFound},
		{http.StatusBadRequest, "INVALID_INPUT", apperrors.ErrInvalidInput},
		{http.StatusConflict, "CONFLICT", apperrors.ErrConflict},
		{http.StatusUnauthorized, "UNAUTHORIZED", apperrors.ErrUnauthorized},
		{http.StatusForbidden, "FORBIDDEN", apperrors.ErrForbidden},
		{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", apperrors.ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, structuredError(tt.code, "product p1")), "inventory")
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr), "got %T: %v", err, err)
			assert.Equal(t, tt.status, appErr.Status)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_ServerErrorIsPlain(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadGateway, structuredError("BAD_GATEWAY", "upstream")), "inventory")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "inventory server error (502/BAD_GATEWAY)")
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	for _, body := range []string{"", "<html>oops</html>", `{"error":null}`} {
		err := ParseResponseError(makeResponse(http.StatusInternalServerError, body), "inventory")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inventory returned status 500")
	}
}

func TestParseResponseError_OtherStatusKeepsCode(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusTooManyRequests, structuredError("RATE_LIMITED", "slow down")), "inventory")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RATE_LIMITED", appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "inventory: slow down", appErr.Message)
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Available int `json:"available"`
	}
	require.NoError(t, DecodeJSON(makeResponse(http.StatusOK, `{"available":4}`), &out, "inventory"))
	assert.Equal(t, 4, out.Available)

	err := DecodeJSON(makeResponse(http.StatusOK, `not json`), &out, "inventory")
	assert.ErrorContains(t, err, "decode inventory response")

	err = DecodeJSON(makeResponse(http.StatusNotFound, structuredError("NOT_FOUND", "p9")), &out, "inventory")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
