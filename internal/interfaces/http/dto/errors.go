package dto

import (
	"net/http"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from the shared package and
// pass through unchanged.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,

	shared.CodeValidation:    http.StatusBadRequest,
	shared.CodeNotFound:      http.StatusNotFound,
	shared.CodeAlreadyExists: http.StatusConflict,
	shared.CodeForbidden:     http.StatusForbidden,

	// state machine violations are well-formed requests the current state
	// cannot accept
	shared.CodeInvalidTransition:  http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:  http.StatusUnprocessableEntity,
	shared.CodeApprovalRequired:   http.StatusUnprocessableEntity,
	shared.CodeFulfillmentPending: http.StatusUnprocessableEntity,

	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeExternalFailure:     http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
