// Package relay holds the error taxonomy shared by both relay services.
package relay

import (
	"errors"
	"fmt"
	"net/http"
)

// Error standardizes relay-facing errors. Message is what the client sees;
// Details optionally carries the raw vendor payload for upstream failures.
type Error struct {
	Code    string
	Message string
	Details string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest flags a client-contract violation. Not retried, not
// logged as a failure.
func NewInvalidRequest(message string) *Error {
	return &Error{Code: "invalid_request", Message: message, Status: http.StatusBadRequest}
}

// NewNotConfigured flags missing vendor credentials, detected per-request.
func NewNotConfigured(message string) *Error {
	return &Error{Code: "not_configured", Message: message, Status: http.StatusInternalServerError}
}

// NewUpstream propagates a vendor non-2xx response with its status code and
// raw error body.
func NewUpstream(status int, message, details string) *Error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return &Error{Code: "upstream_error", Message: message, Details: details, Status: status}
}

// NewVendorContract flags a 2xx vendor response missing an expected field.
// The relay cannot recover from it, so it surfaces as a server error.
func NewVendorContract(message string) *Error {
	return &Error{Code: "vendor_contract", Message: message, Status: http.StatusInternalServerError}
}

// NewInternal wraps an unexpected failure (network, parse) as a server error.
func NewInternal(err error) *Error {
	return &Error{Code: "server_error", Message: err.Error(), Status: http.StatusInternalServerError}
}

// AsError unwraps err into *Error, wrapping unknown errors as internal ones
// so handlers always have a status to respond with.
func AsError(err error) *Error {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr
	}
	return NewInternal(err)
}
