// Package apperrors provides sentinel and custom error types for the application.
package apperrors

// ErrConfiguration represents a missing-credential or bad-setup error.
// Fatal to the operation, never to the process.
var ErrConfiguration = &ConfigurationError{}

// ConfigurationError is a sentinel error for missing or invalid configuration.
type ConfigurationError struct {
	Setting string
	Message string
}

// NewConfigurationError creates a new ConfigurationError with a custom message.
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{
		Setting: setting,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Setting != "" {
		return e.Setting + " is not configured"
	}

	return "configuration error"
}

// Is implements the error interface for error comparison.
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)

	return ok
}

// ErrUpstream represents a failure against an external source (network, HTTP
// status, parse). Callers recover by returning an empty or partial result.
var ErrUpstream = &UpstreamError{}

// UpstreamError is a sentinel error for external-source failures.
type UpstreamError struct {
	Source     string
	StatusCode int
	Message    string
}

// NewUpstreamError creates a new UpstreamError with a custom message.
func NewUpstreamError(source, message string) *UpstreamError {
	return &UpstreamError{
		Source:  source,
		Message: message,
	}
}

// NewUpstreamStatusError creates an UpstreamError carrying the HTTP status code.
func NewUpstreamStatusError(source string, statusCode int, message string) *UpstreamError {
	return &UpstreamError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Message != "" {
		if e.Source != "" {
			return e.Source + ": " + e.Message
		}

		return e.Message
	}

	if e.Source != "" {
		return e.Source + ": upstream failure"
	}

	return "upstream failure"
}

// Is implements the error interface for error comparison.
func (e *UpstreamError) Is(target error) bool {
	_, ok := target.(*UpstreamError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrMerge represents a failed duplicate-merge transaction. The transaction is
// rolled back before this is returned; partial merges are never observable.
var ErrMerge = &MergeError{}

// MergeError is a sentinel error for duplicate-resolution failures.
type MergeError struct {
	Step    string
	Message string
}

// NewMergeError creates a new MergeError with a custom message.
func NewMergeError(step, message string) *MergeError {
	return &MergeError{
		Step:    step,
		Message: message,
	}
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	if e.Message != "" {
		if e.Step != "" {
			return "merge failed at " + e.Step + ": " + e.Message
		}

		return e.Message
	}

	return "duplicate merge failed"
}

// Is implements the error interface for error comparison.
func (e *MergeError) Is(target error) bool {
	_, ok := target.(*MergeError)

	return ok
}

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}
