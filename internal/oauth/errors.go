package oauth

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Token after the manager has been closed.
var ErrClosed = errors.New("token manager is closed")

// ExchangeError indicates that the token endpoint was reached but did not
// yield a usable token: the exchange was rejected, the response carried no
// access token, or the advertised lifetime was too short to cache.
type ExchangeError struct {
	// Message describes why no usable token was obtained.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth token exchange failed: %s: %v", e.Message, e.Err)
	}
	return "oauth token exchange failed: " + e.Message
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// TransportError indicates that the token endpoint could not be reached or
// the exchange exceeded its timeout.
type TransportError struct {
	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("token endpoint unreachable: %v", e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TransportError) Unwrap() error {
	return e.Err
}
