package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	err := NewDomainError(KindValidation, CodeValidation, "invalid request", "missing required field")

	assert.NotNil(t, err)
	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "invalid request", err.Message)
	assert.Equal(t, "missing required field", err.Details)
}

func TestDomainError_Error(t *testing.T) {
	err := NewValidationError("missing field")

	errorMsg := err.Error()

	assert.Contains(t, errorMsg, "70001")
	assert.Contains(t, errorMsg, "invalid request")
	assert.Contains(t, errorMsg, "missing field")
}

func TestDomainError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := NewDomainError(KindInternal, CodeInternal, "internal error", "").WithCause(originalErr)

	assert.Equal(t, originalErr, err.Cause)
	assert.ErrorIs(t, err, originalErr)
}

func TestNewTransportError_Timeout(t *testing.T) {
	err := NewTransportError(fmt.Errorf("do: %w", context.DeadlineExceeded), "POST /v1/payments/pay")

	assert.Equal(t, KindTransport, err.Kind)
	assert.Equal(t, CodeGatewayTimeout, err.Code)
	assert.Equal(t, 504, GetHTTPStatus(err))
}

func TestNewTransportError_ConnectionRefused(t *testing.T) {
	err := NewTransportError(errors.New("connection refused"), "")

	assert.Equal(t, CodeGatewayTransport, err.Code)
	assert.Equal(t, 502, GetHTTPStatus(err))
}

func TestTokenKindOf(t *testing.T) {
	err := fmt.Errorf("auth: %w", NewTokenError(TokenDecrypt, errors.New("bad tag")))

	assert.True(t, IsKind(err, KindToken))
	assert.Equal(t, TokenDecrypt, TokenKindOf(err))
	assert.Equal(t, TokenNone, TokenKindOf(errors.New("plain")))
	assert.Equal(t, TokenNone, TokenKindOf(NewValidationError("x")))
}

func TestIsDomainError(t *testing.T) {
	domainErr := NewValidationError("")
	regularErr := errors.New("regular error")

	assert.True(t, IsDomainError(domainErr))
	assert.True(t, IsDomainError(fmt.Errorf("wrapped: %w", domainErr)))
	assert.False(t, IsDomainError(regularErr))
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"Validation", NewValidationError("x"), 400},
		{"Token", NewTokenError(TokenMalformed, nil), 401},
		{"Config", NewConfigError(nil, "x"), 500},
		{"Transport", NewTransportError(errors.New("reset"), ""), 502},
		{"Internal", NewDomainError(KindInternal, CodeInternal, "internal", ""), 500},
		{"Plain error", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.err))
		})
	}
}

func TestNewResponseError(t *testing.T) {
	err := NewResponseError(errors.New("cannot unmarshal array"), "/v1/payments/pay")

	assert.True(t, IsKind(err, KindTransport))
	assert.Equal(t, CodeGatewayResponse, err.Code)
	assert.Equal(t, 502, GetHTTPStatus(err))
}

func TestAsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("refund: %w", NewValidationError("paymentId is required"))

	de, ok := AsDomainError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, de.Kind)

	_, ok = AsDomainError(errors.New("plain"))
	assert.False(t, ok)
}
