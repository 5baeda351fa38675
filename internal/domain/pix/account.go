package pix

import (
	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/shared"
)

// AccountType represents the kind of bank account a key is bound to
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypePayment  AccountType = "PAYMENT"
	AccountTypeSalary   AccountType = "SALARY"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypePayment, AccountTypeSalary:
		return true
	}
	return false
}

// Account identifies the bank account side of a key or claim party.
// Participant is the institution's ISPB.
type Account struct {
	Participant string      `json:"participant"`
	Branch      string      `json:"branch"`
	Number      string      `json:"number"`
	Type        AccountType `json:"type"`
	UserID      uuid.UUID   `json:"user_id"`
	UserTaxID   string      `json:"user_tax_id"`
}

// Validate checks the account reference is complete
func (a Account) Validate() error {
	if a.Participant == "" {
		return shared.NewDomainError(shared.CodeValidation, "Participant ISPB is required")
	}
	if a.Branch == "" || a.Number == "" {
		return shared.NewDomainError(shared.CodeValidation, "Branch and account number are required")
	}
	if !a.Type.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Invalid account type: "+string(a.Type))
	}
	return nil
}

// SameAccount reports whether both references point at the same account.
// User metadata is not compared; the participant/branch/number triplet is
// what addresses an account in the Directory.
func (a Account) SameAccount(other Account) bool {
	return a.Participant == other.Participant &&
		a.Branch == other.Branch &&
		a.Number == other.Number
}
