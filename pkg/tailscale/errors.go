package tailscale

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError indicates that no usable credential configuration was
// supplied: neither an API key nor a complete OAuth client ID/secret pair,
// or an internally inconsistent combination of the two.
type ConfigurationError struct {
	// Message describes the configuration problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return e.Message
}

// IsConfigurationError checks if an error is a ConfigurationError using
// error unwrapping.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// AuthenticationError indicates that the Tailscale API rejected the
// credentials: the OAuth exchange failed or returned no usable token, or a
// request was answered with HTTP 401/403.
type AuthenticationError struct {
	// Message describes the authentication failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain inspection.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError checks if an error is an AuthenticationError using
// error unwrapping.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// ConnectionError indicates that the Tailscale API could not be reached:
// the request exceeded its timeout or a lower-level network failure
// occurred.
type ConnectionError struct {
	// Message describes the connection failure.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError checks if an error is a ConnectionError using error
// unwrapping.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// RequestError indicates a non-2xx response from the Tailscale API that is
// not an authentication failure, such as a 404 or a validation error.
type RequestError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Body is the raw response body, usually a short error message.
	Body string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("unexpected response from the Tailscale API (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("unexpected response from the Tailscale API (status %d): %s", e.StatusCode, body)
}

// IsRequestError checks if an error is a RequestError using error
// unwrapping.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
