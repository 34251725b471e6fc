package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotConfigured = "NOT_CONFIGURED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeLinkAceError  = "LINKACE_ERROR"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeTimeout       = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapLinkAceError converts a lookup failure to a coded error.
func WrapLinkAceError(err error) error {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	coded = classify(err)
	slog.Warn("linkace API error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)
	return coded
}

func classify(err error) *CodedError {
	if errors.Is(err, client.ErrUnconfigured) {
		return errNotConfigured()
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		code := ErrCodeLinkAceError
		if apiErr.StatusCode == http.StatusNotFound {
			code = ErrCodeNotFound
		}
		return &CodedError{Code: code, Message: apiErr.Message, Cause: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	}

	return &CodedError{Code: ErrCodeLinkAceError, Message: err.Error(), Cause: err}
}

func errNotConfigured() *CodedError {
	return &CodedError{
		Code:    ErrCodeNotConfigured,
		Message: "LinkAce API URL and token are not set (LINKACE_API_URL, LINKACE_API_TOKEN)",
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
