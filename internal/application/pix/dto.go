package pix

import (
	"time"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/pix"
)

// AccountRequest identifies a bank account party in a request
type AccountRequest struct {
	Participant string    `json:"participant" binding:"required"`
	Branch      string    `json:"branch" binding:"required"`
	Number      string    `json:"number" binding:"required"`
	Type        string    `json:"type" binding:"required,oneof=CHECKING SAVINGS PAYMENT SALARY"`
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	UserTaxID   string    `json:"user_tax_id"`
}

// ToAccount converts the request into a domain account reference
func (r AccountRequest) ToAccount() pix.Account {
	return pix.Account{
		Participant: r.Participant,
		Branch:      r.Branch,
		Number:      r.Number,
		Type:        pix.AccountType(r.Type),
		UserID:      r.UserID,
		UserTaxID:   r.UserTaxID,
	}
}

// AccountResponse mirrors an account reference in responses
type AccountResponse struct {
	Participant string    `json:"participant"`
	Branch      string    `json:"branch"`
	Number      string    `json:"number"`
	Type        string    `json:"type"`
	UserID      uuid.UUID `json:"user_id"`
	UserTaxID   string    `json:"user_tax_id,omitempty"`
}

func toAccountResponse(a pix.Account) AccountResponse {
	return AccountResponse{
		Participant: a.Participant,
		Branch:      a.Branch,
		Number:      a.Number,
		Type:        string(a.Type),
		UserID:      a.UserID,
		UserTaxID:   a.UserTaxID,
	}
}

// RegisterKeyRequest registers a new key for an account.
// KeyValue is left empty for EVP keys; a random alias is generated.
type RegisterKeyRequest struct {
	KeyType  string         `json:"key_type" binding:"required,oneof=CPF CNPJ PHONE EMAIL EVP"`
	KeyValue string         `json:"key_value"`
	Owner    AccountRequest `json:"owner" binding:"required"`
}

// KeyResponse represents a key in API responses
type KeyResponse struct {
	ID        uuid.UUID       `json:"id"`
	KeyType   string          `json:"key_type"`
	KeyValue  string          `json:"key_value"`
	State     string          `json:"state"`
	Owner     AccountResponse `json:"owner"`
	ClaimID   *uuid.UUID      `json:"claim_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToKeyResponse converts a key aggregate to its response representation
func ToKeyResponse(k *pix.PixKey) KeyResponse {
	return KeyResponse{
		ID:        k.ID,
		KeyType:   string(k.KeyType),
		KeyValue:  k.KeyValue,
		State:     string(k.State),
		Owner:     toAccountResponse(k.Owner),
		ClaimID:   k.ClaimID,
		CreatedAt: k.CreatedAt,
		UpdatedAt: k.UpdatedAt,
	}
}

// StartClaimRequest opens a claim against a key held elsewhere
type StartClaimRequest struct {
	KeyValue  string         `json:"key_value" binding:"required"`
	ClaimType string         `json:"claim_type" binding:"required,oneof=OWNERSHIP PORTABILITY"`
	Reason    string         `json:"reason" binding:"required"`
	Claimant  AccountRequest `json:"claimant" binding:"required"`
}

// ClaimActionRequest carries the acting party for confirm/cancel operations
type ClaimActionRequest struct {
	Actor AccountRequest `json:"actor" binding:"required"`
}

// ClaimResponse represents a claim in API responses
type ClaimResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ExternalID         *string         `json:"external_id,omitempty"`
	KeyID              uuid.UUID       `json:"key_id"`
	KeyValue           string          `json:"key_value"`
	ClaimType          string          `json:"claim_type"`
	Status             string          `json:"status"`
	Reason             string          `json:"reason"`
	Owner              AccountResponse `json:"owner"`
	Claimant           AccountResponse `json:"claimant"`
	OpeningDate        time.Time       `json:"opening_date"`
	LastChangeDate     time.Time       `json:"last_change_date"`
	ResolutionDeadline time.Time       `json:"resolution_deadline"`
	CompletionDeadline time.Time       `json:"completion_deadline"`
	ClosingDate        *time.Time      `json:"closing_date,omitempty"`
	CompleteDate       *time.Time      `json:"complete_date,omitempty"`
}

// ToClaimResponse converts a claim aggregate to its response representation
func ToClaimResponse(c *pix.Claim) ClaimResponse {
	return ClaimResponse{
		ID:                 c.ID,
		ExternalID:         c.ExternalID,
		KeyID:              c.KeyID,
		KeyValue:           c.KeyValue,
		ClaimType:          string(c.Type),
		Status:             string(c.Status),
		Reason:             string(c.Reason),
		Owner:              toAccountResponse(c.Owner),
		Claimant:           toAccountResponse(c.Claimant),
		OpeningDate:        c.OpeningDate,
		LastChangeDate:     c.LastChangeDate,
		ResolutionDeadline: c.ResolutionDeadline,
		CompletionDeadline: c.CompletionDeadline,
		ClosingDate:        c.ClosingDate,
		CompleteDate:       c.CompleteDate,
	}
}

// WaitResult is returned by WaitForResolution. Pending reports that the
// caller's timeout elapsed before the claim reached a terminal status.
type WaitResult struct {
	Claim   ClaimResponse `json:"claim"`
	Pending bool          `json:"pending"`
}
