package shared

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Every failure of an engine operation maps to one of them.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so errors.Is(err, ErrNotFound) holds for any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
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
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// NotFoundError builds a NOT_FOUND error naming the missing entity.
func NotFoundError(entity string, id fmt.Stringer) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", entity, id))
}

// InvalidStateError builds an INVALID_STATE error.
func InvalidStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// ValidationError builds a VALIDATION_ERROR error.
func ValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// ConflictError builds a CONCURRENCY_CONFLICT error.
func ConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConcurrencyConflict, fmt.Sprintf(format, args...))
}

// CodeOf returns the domain error code carried by err, or "" for infrastructure errors.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsNotFound(err error) bool            { return CodeOf(err) == CodeNotFound }
func IsInvalidState(err error) bool        { return CodeOf(err) == CodeInvalidState }
func IsValidation(err error) bool          { return CodeOf(err) == CodeValidation }
func IsConcurrencyConflict(err error) bool { return CodeOf(err) == CodeConcurrencyConflict }
