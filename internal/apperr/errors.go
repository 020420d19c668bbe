// Package apperr defines the error kinds shared by adapters, the poller and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

const maxBodyInMessage = 2048

// ConfigurationError reports a credential or setting that is required for an
// operation but absent. It is fatal to the operation, not the process.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

// ValidationError reports missing or invalid input, detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UpstreamError reports a failed third-party call or an unusable response.
// Body holds the raw response body for diagnostics.
type UpstreamError struct {
	Provider   string
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		body := e.Body
		if len(body) > maxBodyInMessage {
			body = body[:maxBodyInMessage] + "..."
		}
		msg += ": " + body
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Validation is a shorthand for &ValidationError{Field: field, Reason: reason}.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Upstream builds an UpstreamError for provider/op with an underlying cause.
func Upstream(provider, op string, err error) error {
	return &UpstreamError{Provider: provider, Op: op, Err: err}
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
