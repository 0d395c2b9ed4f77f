// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package privategpt

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the PrivateGPT client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeHTTP
	ErrTypeDecode
	ErrTypeCancelled
	ErrTypeConfig
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeHTTP:
		return "http"
	case ErrTypeDecode:
		return "decode"
	case ErrTypeCancelled:
		return "cancelled"
	case ErrTypeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrNotHealthy   = &ClientError{Type: ErrTypeConnection, Message: "the PrivateGPT instance is not healthy"}
	ErrEmptyBaseURL = &ClientError{Type: ErrTypeConfig, Message: "no PrivateGPT URL configured"}
	ErrTruncated    = &ClientError{Type: ErrTypeConnection, Message: "stream ended before completion"}
)

// transportError classifies an error returned by http.Client.Do or while
// reading a response body.
func transportError(op string, err error) *ClientError {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeCancelled, Message: op + " cancelled", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: op + " timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: op + " timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: op + " failed", Cause: err}
}

func statusError(op string, status int, detail string) *ClientError {
	msg := fmt.Sprintf("%s: unexpected status %d", op, status)
	if detail != "" {
		msg += ": " + detail
	}
	return &ClientError{Type: ErrTypeHTTP, Message: msg, StatusCode: status}
}

func isType(err error, t ErrorType) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return isType(err, ErrTypeTimeout)
}

// IsCancelled checks if an error came from a cancelled context.
func IsCancelled(err error) bool {
	return isType(err, ErrTypeCancelled) || errors.Is(err, context.Canceled)
}

// IsConnection checks if an error indicates the service is unreachable.
func IsConnection(err error) bool {
	return isType(err, ErrTypeConnection)
}

// IsHTTPStatus reports whether err is an HTTP error with the given status.
func IsHTTPStatus(err error, status int) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeHTTP && ce.StatusCode == status
}
