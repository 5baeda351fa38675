package pix

import "github.com/pix/backend/internal/domain/shared"

// Errors specific to the key and claim lifecycle
var (
	ErrKeyNotFound             = shared.NewDomainError(shared.CodeNotFound, "Pix key not found")
	ErrClaimNotFound           = shared.NewDomainError(shared.CodeNotFound, "Claim not found")
	ErrKeyAlreadyExists        = shared.NewDomainError(shared.CodeKeyAlreadyExists, "An active key with this alias already exists")
	ErrKeyNotClaimable         = shared.NewDomainError(shared.CodeKeyNotClaimable, "Key is not in a claimable state")
	ErrKeyHasActiveClaim       = shared.NewDomainError(shared.CodeKeyHasActiveClaim, "Key has an active claim and cannot be deleted")
	ErrClaimAlreadyInProgress  = shared.NewDomainError(shared.CodeClaimAlreadyInProgress, "Key already has a claim in progress")
	ErrUnauthorizedClaimAction = shared.NewDomainError(shared.CodeUnauthorizedClaimAction, "Actor is neither the key owner nor the claimant")
)
