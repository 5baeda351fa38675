package pix

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/shared"
)

// KeyType represents the kind of alias a Pix key carries
type KeyType string

const (
	KeyTypeCPF   KeyType = "CPF"
	KeyTypeCNPJ  KeyType = "CNPJ"
	KeyTypePhone KeyType = "PHONE"
	KeyTypeEmail KeyType = "EMAIL"
	KeyTypeEVP   KeyType = "EVP"
)

// IsValid checks if the key type is a valid KeyType
func (t KeyType) IsValid() bool {
	switch t {
	case KeyTypeCPF, KeyTypeCNPJ, KeyTypePhone, KeyTypeEmail, KeyTypeEVP:
		return true
	}
	return false
}

// String returns the string representation of KeyType
func (t KeyType) String() string {
	return string(t)
}

// SingleOwnership reports whether the alias is bound to exactly one stored
// record at a time. EVP aliases are Directory-generated and never transfer
// in place; completing a claim over one retires the donor's record and
// issues a fresh record for the claimant.
func (t KeyType) SingleOwnership() bool {
	return t == KeyTypeEVP
}

var (
	cpfPattern   = regexp.MustCompile(`^\d{11}$`)
	cnpjPattern  = regexp.MustCompile(`^\d{14}$`)
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	evpPattern   = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// ValidateAlias checks the alias value against the format of its key type
func ValidateAlias(keyType KeyType, value string) error {
	if value == "" {
		return shared.NewDomainError(shared.CodeValidation, "Key value cannot be empty")
	}
	var ok bool
	switch keyType {
	case KeyTypeCPF:
		ok = cpfPattern.MatchString(value)
	case KeyTypeCNPJ:
		ok = cnpjPattern.MatchString(value)
	case KeyTypePhone:
		ok = phonePattern.MatchString(value)
	case KeyTypeEmail:
		ok = emailPattern.MatchString(strings.ToLower(value)) && len(value) <= 77
	case KeyTypeEVP:
		ok = evpPattern.MatchString(strings.ToLower(value))
	default:
		return shared.NewDomainError(shared.CodeValidation, "Invalid key type: "+string(keyType))
	}
	if !ok {
		return shared.NewDomainError(shared.CodeValidation, "Key value does not match the format for type "+string(keyType))
	}
	return nil
}

// KeyState represents the lifecycle state of a Pix key
type KeyState string

const (
	KeyStatePending      KeyState = "PENDING"
	KeyStateAdded        KeyState = "ADDED"
	KeyStateClaimPending KeyState = "CLAIM_PENDING"
	KeyStateClaimClosing KeyState = "CLAIM_CLOSING"
	KeyStateCanceled     KeyState = "CANCELED"
	KeyStateDeleted      KeyState = "DELETED"
)

// IsValid checks if the state is a valid KeyState
func (s KeyState) IsValid() bool {
	switch s {
	case KeyStatePending, KeyStateAdded, KeyStateClaimPending, KeyStateClaimClosing, KeyStateCanceled, KeyStateDeleted:
		return true
	}
	return false
}

// String returns the string representation of KeyState
func (s KeyState) String() string {
	return string(s)
}

// IsTerminal reports whether the state admits no further transitions
func (s KeyState) IsTerminal() bool {
	return s == KeyStateCanceled || s == KeyStateDeleted
}

// CanTransitionTo checks if the state can transition to the target state
func (s KeyState) CanTransitionTo(target KeyState) bool {
	switch s {
	case KeyStatePending:
		return target == KeyStateAdded || target == KeyStateCanceled
	case KeyStateAdded:
		return target == KeyStateClaimPending || target == KeyStateDeleted
	case KeyStateClaimPending:
		return target == KeyStateClaimClosing || target == KeyStateAdded || target == KeyStateDeleted
	case KeyStateClaimClosing:
		return target == KeyStateAdded || target == KeyStateDeleted
	case KeyStateCanceled, KeyStateDeleted:
		return false // Terminal states
	}
	return false
}

// PixKey represents a payment alias bound to a bank account.
// Records are never physically deleted; terminal rows are retained for audit.
type PixKey struct {
	shared.BaseAggregateRoot
	KeyType  KeyType
	KeyValue string
	State    KeyState
	Owner    Account
	ClaimID  *uuid.UUID
}

// NewPixKey creates a new key in PENDING state, awaiting Directory confirmation
func NewPixKey(keyType KeyType, value string, owner Account) (*PixKey, error) {
	if err := ValidateAlias(keyType, value); err != nil {
		return nil, err
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	key := &PixKey{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		KeyType:           keyType,
		KeyValue:          value,
		State:             KeyStatePending,
		Owner:             owner,
	}

	key.AddDomainEvent(NewKeyRegisteredEvent(key))
	return key, nil
}

// IsActive reports whether the key occupies its alias. Only terminal keys
// free the alias for re-registration.
func (k *PixKey) IsActive() bool {
	return !k.State.IsTerminal()
}

// Confirm applies the Directory's registration confirmation.
// A duplicate confirmation of an already ADDED key is a no-op so that
// redelivered notifications do not fail.
func (k *PixKey) Confirm() error {
	if k.State == KeyStateAdded {
		return nil
	}
	if !k.State.CanTransitionTo(KeyStateAdded) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot confirm key in state "+k.State.String())
	}
	k.State = KeyStateAdded
	k.UpdatedAt = time.Now()
	k.AddDomainEvent(NewKeyConfirmedEvent(k))
	return nil
}

// CancelRegistration withdraws a registration that was never confirmed
func (k *PixKey) CancelRegistration() error {
	if !k.State.CanTransitionTo(KeyStateCanceled) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot cancel key registration in state "+k.State.String())
	}
	k.State = KeyStateCanceled
	k.ClaimID = nil
	k.UpdatedAt = time.Now()
	return nil
}

// AttachClaim links an in-flight claim to the key and marks it contested
func (k *PixKey) AttachClaim(claimID uuid.UUID) error {
	if k.ClaimID != nil {
		return ErrKeyNotClaimable
	}
	if !k.State.CanTransitionTo(KeyStateClaimPending) {
		return ErrKeyNotClaimable
	}
	k.ClaimID = &claimID
	k.State = KeyStateClaimPending
	k.UpdatedAt = time.Now()
	k.AddDomainEvent(NewKeyClaimOpenedEvent(k, claimID))
	return nil
}

// BeginClaimClosing marks that the attached claim's resolution is being applied
func (k *PixKey) BeginClaimClosing() error {
	if k.State == KeyStateClaimClosing {
		return nil
	}
	if !k.State.CanTransitionTo(KeyStateClaimClosing) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot begin claim closing in state "+k.State.String())
	}
	k.State = KeyStateClaimClosing
	k.UpdatedAt = time.Now()
	return nil
}

// ResolveClaim applies a claim outcome to the key.
//
// COMPLETED transfers the binding: the owner reference is replaced with the
// claimant's and the key returns to ADDED under new ownership. For
// single-ownership key types the donor record moves to DELETED instead, and
// the caller issues a fresh record for the claimant.
// CANCELED restores ADDED under the original owner with the claim link cleared.
func (k *PixKey) ResolveClaim(outcome ClaimStatus, claimant Account) error {
	if k.State != KeyStateClaimPending && k.State != KeyStateClaimClosing {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot resolve claim for key in state "+k.State.String())
	}

	switch outcome {
	case ClaimStatusCompleted:
		if k.KeyType.SingleOwnership() {
			k.State = KeyStateDeleted
		} else {
			k.Owner = claimant
			k.State = KeyStateAdded
		}
	case ClaimStatusCanceled:
		k.State = KeyStateAdded
	default:
		return shared.NewDomainError(shared.CodeValidation,
			"Claim outcome must be terminal, got "+outcome.String())
	}

	k.ClaimID = nil
	k.UpdatedAt = time.Now()
	return nil
}

// Delete releases the key at the owner's request
func (k *PixKey) Delete() error {
	if k.ClaimID != nil {
		return ErrKeyHasActiveClaim
	}
	if k.State != KeyStateAdded {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot delete key in state "+k.State.String())
	}
	k.State = KeyStateDeleted
	k.UpdatedAt = time.Now()
	k.AddDomainEvent(NewKeyDeletedEvent(k))
	return nil
}

// TransferredCopy builds the claimant's replacement record for a
// single-ownership key whose claim completed.
func (k *PixKey) TransferredCopy(claimant Account) *PixKey {
	copy := &PixKey{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		KeyType:           k.KeyType,
		KeyValue:          k.KeyValue,
		State:             KeyStateAdded,
		Owner:             claimant,
	}
	copy.AddDomainEvent(NewKeyConfirmedEvent(copy))
	return copy
}
