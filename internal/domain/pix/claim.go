package pix

import (
	"time"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/shared"
)

// ClaimType represents the kind of claim negotiation
type ClaimType string

const (
	ClaimTypeOwnership   ClaimType = "OWNERSHIP"
	ClaimTypePortability ClaimType = "PORTABILITY"
)

// IsValid checks if the claim type is a valid ClaimType
func (t ClaimType) IsValid() bool {
	return t == ClaimTypeOwnership || t == ClaimTypePortability
}

// String returns the string representation of ClaimType
func (t ClaimType) String() string {
	return string(t)
}

// ClaimReason represents the requester-supplied justification for a claim
type ClaimReason string

const (
	ClaimReasonUserRequested    ClaimReason = "USER_REQUESTED"
	ClaimReasonAccountClosure   ClaimReason = "ACCOUNT_CLOSURE"
	ClaimReasonFraud            ClaimReason = "FRAUD"
	ClaimReasonDefaultOperation ClaimReason = "DEFAULT_OPERATION"
	ClaimReasonReconciliation   ClaimReason = "RECONCILIATION"
)

// IsValid checks if the reason is a valid ClaimReason
func (r ClaimReason) IsValid() bool {
	switch r {
	case ClaimReasonUserRequested, ClaimReasonAccountClosure, ClaimReasonFraud,
		ClaimReasonDefaultOperation, ClaimReasonReconciliation:
		return true
	}
	return false
}

// ClaimStatus represents the status of a claim negotiation
type ClaimStatus string

const (
	ClaimStatusOpen              ClaimStatus = "OPEN"
	ClaimStatusWaitingResolution ClaimStatus = "WAITING_RESOLUTION"
	ClaimStatusConfirmed         ClaimStatus = "CONFIRMED"
	ClaimStatusClosing           ClaimStatus = "CLOSING"
	ClaimStatusCompleted         ClaimStatus = "COMPLETED"
	ClaimStatusCanceled          ClaimStatus = "CANCELED"
)

// IsValid checks if the status is a valid ClaimStatus
func (s ClaimStatus) IsValid() bool {
	switch s {
	case ClaimStatusOpen, ClaimStatusWaitingResolution, ClaimStatusConfirmed,
		ClaimStatusClosing, ClaimStatusCompleted, ClaimStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of ClaimStatus
func (s ClaimStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status admits no further transitions
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimStatusCompleted || s == ClaimStatusCanceled
}

// Rank orders statuses by how far the negotiation has advanced.
// CONFIRMED and CLOSING share a rank: both mean the outcome is decided and
// only Directory finalization is outstanding.
func (s ClaimStatus) Rank() int {
	switch s {
	case ClaimStatusOpen:
		return 1
	case ClaimStatusWaitingResolution:
		return 2
	case ClaimStatusConfirmed, ClaimStatusClosing:
		return 3
	case ClaimStatusCompleted, ClaimStatusCanceled:
		return 4
	}
	return 0
}

// CanTransitionTo checks if the status can transition to the target status.
// Progression is strictly monotonic by Rank, with the single lateral move
// CONFIRMED -> CLOSING.
func (s ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if s == ClaimStatusConfirmed && target == ClaimStatusClosing {
		return true
	}
	return target.Rank() > s.Rank()
}

// Claim represents a time-boxed negotiation to transfer a key's binding
// from its current owner to a requesting participant.
type Claim struct {
	shared.BaseAggregateRoot
	ExternalID         *string
	KeyID              uuid.UUID
	KeyValue           string
	Type               ClaimType
	Status             ClaimStatus
	Reason             ClaimReason
	Owner              Account
	Claimant           Account
	OpeningDate        time.Time
	LastChangeDate     time.Time
	ResolutionDeadline time.Time
	CompletionDeadline time.Time
	ClosingDate        *time.Time
	CompleteDate       *time.Time
}

// ClaimWindows carries the regulatory windows used to fix a claim's
// deadlines at creation. Both deadlines are immutable afterwards.
type ClaimWindows struct {
	Resolution time.Duration
	Completion time.Duration
}

// Validate checks the windows are positive and ordered
func (w ClaimWindows) Validate() error {
	if w.Resolution <= 0 || w.Completion <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "Claim windows must be positive")
	}
	if w.Resolution > w.Completion {
		return shared.NewDomainError(shared.CodeValidation, "Resolution window cannot exceed completion window")
	}
	return nil
}

// NewClaim creates a claim in OPEN status against the given key.
// Deadlines are computed from the windows and never mutated afterwards.
func NewClaim(key *PixKey, claimant Account, claimType ClaimType, reason ClaimReason, windows ClaimWindows) (*Claim, error) {
	if !claimType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid claim type: "+string(claimType))
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid claim reason: "+string(reason))
	}
	if err := claimant.Validate(); err != nil {
		return nil, err
	}
	if err := windows.Validate(); err != nil {
		return nil, err
	}
	if claimant.SameAccount(key.Owner) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Claimant already owns this key")
	}

	now := time.Now()
	claim := &Claim{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		KeyID:              key.ID,
		KeyValue:           key.KeyValue,
		Type:               claimType,
		Status:             ClaimStatusOpen,
		Reason:             reason,
		Owner:              key.Owner,
		Claimant:           claimant,
		OpeningDate:        now,
		LastChangeDate:     now,
		ResolutionDeadline: now.Add(windows.Resolution),
		CompletionDeadline: now.Add(windows.Completion),
	}

	claim.AddDomainEvent(NewClaimOpenedEvent(claim))
	return claim, nil
}

// SetExternalID records the Directory-assigned identifier after the claim
// request is accepted
func (c *Claim) SetExternalID(externalID string) {
	c.ExternalID = &externalID
	c.UpdatedAt = time.Now()
}

// AuthorizeActor checks the acting account is one of the claim's parties
func (c *Claim) AuthorizeActor(actor Account) error {
	if actor.SameAccount(c.Owner) || actor.SameAccount(c.Claimant) {
		return nil
	}
	return ErrUnauthorizedClaimAction
}

// transitionTo applies a forward transition and stamps the change time
func (c *Claim) transitionTo(target ClaimStatus, at time.Time) error {
	if !c.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot transition claim from "+c.Status.String()+" to "+target.String())
	}
	c.Status = target
	c.LastChangeDate = at
	c.UpdatedAt = time.Now()

	switch target {
	case ClaimStatusClosing:
		if c.ClosingDate == nil {
			closed := at
			c.ClosingDate = &closed
		}
	case ClaimStatusCompleted:
		done := at
		c.CompleteDate = &done
	case ClaimStatusCanceled:
		if c.ClosingDate == nil {
			closed := at
			c.ClosingDate = &closed
		}
	}
	return nil
}

// MarkWaitingResolution records that the current owner has been notified
// and the resolution window is running
func (c *Claim) MarkWaitingResolution(at time.Time) error {
	if c.Status == ClaimStatusWaitingResolution {
		return nil
	}
	return c.transitionTo(ClaimStatusWaitingResolution, at)
}

// Confirm records that a party accepted the claim. The status moves through
// CONFIRMED into CLOSING; the Directory's finalization notification later
// drives COMPLETED.
func (c *Claim) Confirm(actor Account, at time.Time) error {
	if err := c.AuthorizeActor(actor); err != nil {
		return err
	}
	if c.Status != ClaimStatusOpen && c.Status != ClaimStatusWaitingResolution {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot confirm claim in status "+c.Status.String())
	}
	if err := c.transitionTo(ClaimStatusConfirmed, at); err != nil {
		return err
	}
	return c.transitionTo(ClaimStatusClosing, at)
}

// Cancel cancels an open claim. Canceling an already canceled claim is a
// no-op so retried cancellations do not fail.
func (c *Claim) Cancel(actor Account, at time.Time) error {
	if c.Status == ClaimStatusCanceled {
		return nil
	}
	if err := c.AuthorizeActor(actor); err != nil {
		return err
	}
	if c.Status != ClaimStatusOpen && c.Status != ClaimStatusWaitingResolution {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot cancel claim in status "+c.Status.String())
	}
	if err := c.transitionTo(ClaimStatusCanceled, at); err != nil {
		return err
	}
	c.AddDomainEvent(NewClaimResolvedEvent(c))
	return nil
}

// ApplyDirectoryStatus reconciles an inbound Directory-reported status.
//
// Notifications arrive at-least-once and unordered. A notification older
// than the last recorded change is rejected as stale. A fresh notification
// that would move the claim to a less advanced status is absorbed as a
// no-op; the status never regresses. The returned bool reports whether the
// claim actually changed.
func (c *Claim) ApplyDirectoryStatus(status ClaimStatus, eventTimestamp time.Time) (bool, error) {
	if !status.IsValid() {
		return false, shared.NewDomainError(shared.CodeValidation, "Invalid directory status: "+string(status))
	}
	if eventTimestamp.Before(c.LastChangeDate) {
		return false, shared.ErrStaleNotification
	}
	if c.Status.IsTerminal() {
		return false, nil
	}
	if status.Rank() <= c.Status.Rank() {
		// Lateral CONFIRMED -> CLOSING is the only same-rank move
		if !(c.Status == ClaimStatusConfirmed && status == ClaimStatusClosing) {
			return false, nil
		}
	}

	if err := c.transitionTo(status, eventTimestamp); err != nil {
		return false, err
	}
	if status.IsTerminal() {
		c.AddDomainEvent(NewClaimResolvedEvent(c))
	}
	return true, nil
}

// DefaultExpiryOutcome returns the deterministic outcome for a claim whose
// deadline elapsed without action. Expired ownership claims benefit the
// incumbent owner; expired portability claims benefit the claimant. The
// asymmetry encodes the Directory protocol rule.
func DefaultExpiryOutcome(claimType ClaimType) ClaimStatus {
	if claimType == ClaimTypeOwnership {
		return ClaimStatusCanceled
	}
	return ClaimStatusCompleted
}

// IsExpired reports whether the claim is past a deadline that still matters:
// the resolution deadline while unresolved, or the completion deadline while
// awaiting Directory finalization.
func (c *Claim) IsExpired(now time.Time) bool {
	if c.Status.IsTerminal() {
		return false
	}
	switch c.Status {
	case ClaimStatusOpen, ClaimStatusWaitingResolution:
		return now.After(c.ResolutionDeadline)
	case ClaimStatusConfirmed, ClaimStatusClosing:
		return now.After(c.CompletionDeadline)
	}
	return false
}
