package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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

// Common domain errors. Backend-specific driver codes are mapped onto these
// before they cross the repository boundary.
var (
	// ErrBackendUnavailable signals transient connectivity loss; retryable.
	ErrBackendUnavailable = NewDomainError("BACKEND_UNAVAILABLE", "Storage backend is unavailable")
	// ErrInvalidQuery signals a malformed query specification (caller bug); not retryable.
	ErrInvalidQuery = NewDomainError("INVALID_QUERY", "Query specification is invalid")
	// ErrPermissionDenied signals the backend rejected the credentials; not retryable.
	ErrPermissionDenied = NewDomainError("PERMISSION_DENIED", "Backend rejected the request credentials")
	// ErrNotFound is used internally between adapter and repository. The repository
	// API itself reports simple absence as a nil entity or false, never as an error.
	ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")
)

// InvalidQueryError wraps ErrInvalidQuery with detail about the offending field.
func InvalidQueryError(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, detail)
}

// PartialAggregationError reports that an aggregate completed with one or more
// dependent fetches substituted by zero contributions. It is informational:
// callers receive it alongside a usable result, never instead of one.
type PartialAggregationError struct {
	Warnings int
}

func (e *PartialAggregationError) Error() string {
	return fmt.Sprintf("aggregation completed with %d zero-substituted dependents", e.Warnings)
}
