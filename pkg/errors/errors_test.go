package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrInvalidInput, ErrServiceUnavail, ErrBadUpstream}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j], "sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: fmt.Errorf("connection reset")}
	assert.Equal(t, "INTERNAL_ERROR: something broke: connection reset", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "product not found"}
	assert.Equal(t, "NOT_FOUND: product not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("elasticsearch search: dial tcp: connection refused")

	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"invalid input", InvalidInput("size must be between 1 and 100"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"gateway unavailable", GatewayUnavailable(cause), "GATEWAY_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
		{"mapping failed", MappingFailed(cause), "MAPPING_ERROR", http.StatusBadGateway, ErrBadUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestGatewayUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("breaker open")
	err := GatewayUnavailable(cause)

	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Message, "breaker open")
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("op: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("op: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("op: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{fmt.Errorf("op: %w", ErrBadUpstream), http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestHTTPStatus_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("handler: %w", InvalidInput("bad"))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}
