package shared

import "errors"

// ErrorKind classifies domain errors for transport mapping and retry policy
type ErrorKind int

const (
	// KindValidation marks user-correctable input errors; never retried
	KindValidation ErrorKind = iota
	// KindConflict marks concurrent-mutation errors; the caller may
	// re-fetch and retry once
	KindConflict
	// KindIntegrity marks should-never-happen conditions that indicate a
	// bug elsewhere; they must be logged loudly, never swallowed
	KindIntegrity
	// KindNotFound covers both genuinely missing records and records
	// outside the caller's tenant (no tenant-leak disclosure)
	KindNotFound
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

// NewConflictError creates a retryable concurrency-conflict error
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindConflict}
}

// NewIntegrityError creates an integrity-violation error
func NewIntegrityError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindIntegrity}
}

// AsDomainError extracts a *DomainError from an error chain, if present
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsNotFound reports whether the error is a not-found error
func IsNotFound(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == KindNotFound
}

// IsConflict reports whether the error is a retryable concurrency conflict
func IsConflict(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == KindConflict
}

// IsIntegrity reports whether the error is an integrity violation
func IsIntegrity(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == KindIntegrity
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Code: "NOT_FOUND", Message: "Resource not found", Kind: KindNotFound}
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInconsistentState   = NewIntegrityError("INCONSISTENT_STATE", "Stored amounts disagree with derived amounts")
)
