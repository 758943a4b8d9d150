package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the core taxonomy. Validation and conflict errors are
// surfaced to the caller immediately; upstream and generation errors are
// retried per policy before being surfaced.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConflict            = "CONFLICT"
	CodeInvalidState        = "INVALID_STATE"
	CodeInsufficientHistory = "INSUFFICIENT_HISTORY"
	CodeUpstream            = "UPSTREAM_ERROR"
	CodeGeneration          = "GENERATION_ERROR"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientHistory = NewDomainError(CodeInsufficientHistory, "No historical statements available")
)

// NewValidationError creates a validation error carrying the offending field
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}

// NewConflictError creates a conflict error for duplicate submissions
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewInvalidStateError marks an illegal state transition
func NewInvalidStateError(entity, from, to string) *DomainError {
	return NewDomainError(CodeInvalidState, "Cannot move "+entity+" from "+from+" to "+to)
}

// NewUpstreamError wraps a failure from an external collaborator
func NewUpstreamError(message string) *DomainError {
	return NewDomainError(CodeUpstream, message)
}

// NewGenerationError marks a malformed narrative-generation response
func NewGenerationError(message string) *DomainError {
	return NewDomainError(CodeGeneration, message)
}

// HasCode reports whether err is a DomainError with the given code
func HasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation)
}

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool {
	return HasCode(err, CodeConflict)
}

// IsUpstream reports whether err is an upstream failure
func IsUpstream(err error) bool {
	return HasCode(err, CodeUpstream)
}
