package ovirt

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

type ErrorKind string

const (
	ErrAuthFailed  ErrorKind = "auth_failed"
	ErrUnreachable ErrorKind = "unreachable"
	ErrTLSConfig   ErrorKind = "tls_config"
	ErrBadQuery    ErrorKind = "bad_query"
	ErrBadResponse ErrorKind = "bad_response"
	ErrUnknown     ErrorKind = "unknown"
)

// APIError is a classified engine failure: connection level (auth_failed,
// unreachable, tls_config) or request level (bad_query, bad_response).
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case ErrAuthFailed:
		return "ovirt authentication failed"
	case ErrUnreachable:
		return fmt.Sprintf("ovirt engine unreachable: %v", e.Err)
	case ErrTLSConfig:
		return fmt.Sprintf("ovirt TLS configuration: %v", e.Err)
	case ErrBadQuery:
		return fmt.Sprintf("ovirt rejected search query: %v", e.Err)
	case ErrBadResponse:
		return fmt.Sprintf("ovirt response not understood: %v", e.Err)
	default:
		if e.StatusCode > 0 {
			return fmt.Sprintf("ovirt API error (status %d)", e.StatusCode)
		}
		return fmt.Sprintf("ovirt API error: %v", e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func classifyTransportError(err error) *APIError {
	if isUnreachable(err) {
		return &APIError{Kind: ErrUnreachable, Err: err}
	}
	return &APIError{Kind: ErrUnknown, Err: err}
}

func isUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"no such host",
		"i/o timeout",
		"context deadline exceeded",
	} {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}
