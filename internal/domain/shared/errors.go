package shared

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

// Error codes used across the fulfillment engine
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeApprovalRequired    = "APPROVAL_REQUIRED"
	CodeFulfillmentPending  = "FULFILLMENT_PENDING"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeExternalFailure     = "EXTERNAL_FAILURE"
	CodeForbidden           = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}
