package dto

import (
	"net/http"

	"github.com/pix/backend/internal/domain/shared"
)

// Transport-level error codes for failures that never reach the domain
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = shared.CodeNotFound
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = shared.CodeValidation
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps domain and transport error codes to HTTP status
// codes. Conflicts that a retry can win map to 409; protocol violations that
// a retry cannot fix map to 422.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeRateLimited:  http.StatusTooManyRequests,

	shared.CodeValidation: http.StatusBadRequest,
	shared.CodeNotFound:   http.StatusNotFound,

	shared.CodeKeyAlreadyExists:       http.StatusConflict,
	shared.CodeClaimAlreadyInProgress: http.StatusConflict,
	shared.CodeConcurrentModification: http.StatusConflict,
	shared.CodeStaleNotification:      http.StatusConflict,

	shared.CodeInvalidState:      http.StatusUnprocessableEntity,
	shared.CodeKeyNotClaimable:   http.StatusUnprocessableEntity,
	shared.CodeKeyHasActiveClaim: http.StatusUnprocessableEntity,

	shared.CodeUnauthorizedClaimAction: http.StatusForbidden,

	shared.CodeDirectoryUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
