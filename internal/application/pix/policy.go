package pix

import (
	"github.com/pix/backend/internal/domain/pix"
)

// ClaimPolicy carries the regulatory claim parameters resolved from
// configuration: per-type resolution/completion windows and the outcome
// applied when a claim expires without action.
type ClaimPolicy struct {
	Ownership   pix.ClaimWindows
	Portability pix.ClaimWindows

	// Expiry outcomes; zero values fall back to the protocol defaults
	// (OWNERSHIP -> CANCELED, PORTABILITY -> COMPLETED)
	OwnershipExpiryOutcome   pix.ClaimStatus
	PortabilityExpiryOutcome pix.ClaimStatus
}

// WindowsFor returns the deadline windows for a claim type
func (p ClaimPolicy) WindowsFor(claimType pix.ClaimType) pix.ClaimWindows {
	if claimType == pix.ClaimTypeOwnership {
		return p.Ownership
	}
	return p.Portability
}

// ExpiryOutcomeFor returns the terminal status applied to an expired claim
func (p ClaimPolicy) ExpiryOutcomeFor(claimType pix.ClaimType) pix.ClaimStatus {
	var outcome pix.ClaimStatus
	if claimType == pix.ClaimTypeOwnership {
		outcome = p.OwnershipExpiryOutcome
	} else {
		outcome = p.PortabilityExpiryOutcome
	}
	if outcome != pix.ClaimStatusCompleted && outcome != pix.ClaimStatusCanceled {
		return pix.DefaultExpiryOutcome(claimType)
	}
	return outcome
}

// Validate checks both window pairs
func (p ClaimPolicy) Validate() error {
	if err := p.Ownership.Validate(); err != nil {
		return err
	}
	return p.Portability.Validate()
}
