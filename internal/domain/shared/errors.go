package shared

import "errors"

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

// Error codes shared across the key and claim lifecycle
const (
	CodeValidation              = "VALIDATION"
	CodeNotFound                = "NOT_FOUND"
	CodeKeyAlreadyExists        = "KEY_ALREADY_EXISTS"
	CodeKeyNotClaimable         = "KEY_NOT_CLAIMABLE"
	CodeKeyHasActiveClaim       = "KEY_HAS_ACTIVE_CLAIM"
	CodeClaimAlreadyInProgress  = "CLAIM_ALREADY_IN_PROGRESS"
	CodeInvalidState            = "INVALID_STATE"
	CodeUnauthorizedClaimAction = "UNAUTHORIZED_CLAIM_ACTION"
	CodeConcurrentModification  = "CONCURRENT_MODIFICATION"
	CodeDirectoryUnavailable    = "DIRECTORY_UNAVAILABLE"
	CodeStaleNotification       = "STALE_NOTIFICATION"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput           = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrDirectoryUnavailable   = NewDomainError(CodeDirectoryUnavailable, "Directory is temporarily unavailable")
	ErrStaleNotification      = NewDomainError(CodeStaleNotification, "Notification is older than the current state")
)

// IsRetryable reports whether the error is transient and the caller may
// safely retry the operation.
func IsRetryable(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == CodeConcurrentModification || de.Code == CodeDirectoryUnavailable
}
