package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

// Kind classifies a DomainError for the boundary layer.
type Kind int

const (
	KindInternal Kind = iota
	KindConfig
	KindValidation
	KindTransport
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindToken:
		return "token"
	default:
		return "internal"
	}
}

// TokenSubKind distinguishes why a claims token could not be opened.
// All three are reported to end callers as "invalid token".
type TokenSubKind int

const (
	TokenNone TokenSubKind = iota
	TokenMalformed
	TokenDecrypt
	TokenClaims
)

func (t TokenSubKind) String() string {
	switch t {
	case TokenMalformed:
		return "malformed"
	case TokenDecrypt:
		return "decrypt"
	case TokenClaims:
		return "claims"
	default:
		return "none"
	}
}

// Error codes
const (
	CodeValidation       = 70001
	CodeInvalidToken     = 70002
	CodeConfig           = 70003
	CodeGatewayTimeout   = 70010
	CodeGatewayTransport = 70011
	CodeGatewayResponse  = 70012
	CodeInternal         = 70020
)

type DomainError struct {
	Kind     Kind
	Code     int
	Message  string
	Details  string
	TokenSub TokenSubKind
	Cause    error
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

func NewDomainError(kind Kind, code int, message, details string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func WrapDomainError(err error, kind Kind, code int, message, details string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: details,
		Cause:   err,
	}
}

// NewValidationError reports a missing or malformed caller input.
func NewValidationError(details string) *DomainError {
	return NewDomainError(KindValidation, CodeValidation, "invalid request", details)
}

// NewConfigError reports missing configuration or unusable key material.
func NewConfigError(err error, details string) *DomainError {
	return WrapDomainError(err, KindConfig, CodeConfig, "invalid configuration", details)
}

// NewTransportError wraps a failure to reach the gateway or to read its reply.
// Timeouts get their own code so the boundary can answer 504.
func NewTransportError(err error, details string) *DomainError {
	code := CodeGatewayTransport
	if isTimeout(err) {
		code = CodeGatewayTimeout
	}
	return WrapDomainError(err, KindTransport, code, "gateway unreachable", details)
}

// NewResponseError reports a JSON reply that does not fit the expected
// envelope. It is a transport failure as far as callers are concerned.
func NewResponseError(err error, details string) *DomainError {
	return WrapDomainError(err, KindTransport, CodeGatewayResponse, "unexpected gateway response", details)
}

// NewTokenError reports a claims token that could not be opened.
func NewTokenError(sub TokenSubKind, err error) *DomainError {
	e := WrapDomainError(err, KindToken, CodeInvalidToken, "invalid token", sub.String())
	e.TokenSub = sub
	return e
}

func IsDomainError(err error) bool {
	var de *DomainError
	return stderrors.As(err, &de)
}

// AsDomainError returns the first DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := stderrors.As(err, &de)
	return de, ok
}

// IsKind reports whether any DomainError in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// TokenKindOf returns the token sub-kind carried by err, or TokenNone.
func TokenKindOf(err error) TokenSubKind {
	var de *DomainError
	if stderrors.As(err, &de) && de.Kind == KindToken {
		return de.TokenSub
	}
	return TokenNone
}

func GetHTTPStatus(err error) int {
	var domainErr *DomainError
	if !stderrors.As(err, &domainErr) {
		return 500
	}

	switch domainErr.Kind {
	case KindValidation:
		return 400
	case KindToken:
		return 401
	case KindTransport:
		if domainErr.Code == CodeGatewayTimeout {
			return 504
		}
		return 502
	default:
		return 500
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}
