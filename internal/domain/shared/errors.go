package shared

import "errors"

// CodedError is implemented by every error that carries a stable machine-readable code.
// The HTTP layer maps codes to status codes.
type CodedError interface {
	error
	ErrorCode() string
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// ErrorCode implements CodedError
func (e *DomainError) ErrorCode() string {
	return e.Code
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// CodeOf returns the code of the first CodedError in err's chain, or "" if none.
func CodeOf(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}
