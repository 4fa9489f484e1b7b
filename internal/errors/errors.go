package errors

import "fmt"

// ErrAuthentication represents a webhook authentication failure
// This is fatal for the request: bad or missing signature
var ErrAuthentication = &AuthenticationError{}

// AuthenticationError is a sentinel error for signature verification failures
type AuthenticationError struct {
	Reason string
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return "authentication failed"
}

// Is implements the error interface for error comparison
func (e *AuthenticationError) Is(target error) bool {
	_, ok := target.(*AuthenticationError)
	return ok
}

// NewAuthenticationError creates a new AuthenticationError with a reason
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{Reason: reason}
}

// ErrMalformedPayload represents an invalid or incomplete webhook payload
// This is fatal for the request: invalid JSON or missing required top-level keys
var ErrMalformedPayload = &MalformedPayloadError{}

// MalformedPayloadError is a sentinel error for unparsable payloads
type MalformedPayloadError struct {
	Detail string
}

// Error implements the error interface
func (e *MalformedPayloadError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("malformed payload: %s", e.Detail)
	}
	return "malformed payload"
}

// Is implements the error interface for error comparison
func (e *MalformedPayloadError) Is(target error) bool {
	_, ok := target.(*MalformedPayloadError)
	return ok
}

// NewMalformedPayloadError creates a new MalformedPayloadError with a detail message
func NewMalformedPayloadError(detail string) *MalformedPayloadError {
	return &MalformedPayloadError{Detail: detail}
}

// ErrExternalService represents a failure calling an outbound collaborator
// (record store or AI service). Caught at the point of use; triggers a
// rule-based fallback where one exists, otherwise recorded as a per-record error.
var ErrExternalService = &ExternalServiceError{}

// ExternalServiceError is a sentinel error for outbound call failures
type ExternalServiceError struct {
	Service string
	Message string
}

// Error implements the error interface
func (e *ExternalServiceError) Error() string {
	if e.Message != "" && e.Service != "" {
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	}
	if e.Service != "" {
		return fmt.Sprintf("%s call failed", e.Service)
	}
	return "external service call failed"
}

// Is implements the error interface for error comparison
func (e *ExternalServiceError) Is(target error) bool {
	_, ok := target.(*ExternalServiceError)
	return ok
}

// NewExternalServiceError creates a new ExternalServiceError with a custom message
func NewExternalServiceError(service, message string) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Message: message}
}

// ErrValidation represents a validation error
// This should be used when client input fails validation
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field: %s", e.Field)
	}
	return "validation error"
}

// Is implements the error interface for error comparison
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError with a custom message
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
