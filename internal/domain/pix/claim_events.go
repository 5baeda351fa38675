package pix

import (
	"time"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeClaim = "Claim"

// Event type constants
const (
	EventTypeClaimOpened     = "ClaimOpened"
	EventTypeClaimResolved   = "ClaimResolved"
	EventTypeDirectoryNotice = "DirectoryNotificationReceived"
)

// ClaimOpenedEvent is raised when a claim negotiation starts
type ClaimOpenedEvent struct {
	shared.BaseDomainEvent
	ClaimID   uuid.UUID   `json:"claim_id"`
	KeyID     uuid.UUID   `json:"key_id"`
	KeyValue  string      `json:"key_value"`
	ClaimType ClaimType   `json:"claim_type"`
	Reason    ClaimReason `json:"reason"`
	Owner     Account     `json:"owner"`
	Claimant  Account     `json:"claimant"`
	Deadline  time.Time   `json:"resolution_deadline"`
}

// NewClaimOpenedEvent creates a new ClaimOpenedEvent
func NewClaimOpenedEvent(claim *Claim) *ClaimOpenedEvent {
	return &ClaimOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimOpened, AggregateTypeClaim, claim.ID),
		ClaimID:         claim.ID,
		KeyID:           claim.KeyID,
		KeyValue:        claim.KeyValue,
		ClaimType:       claim.Type,
		Reason:          claim.Reason,
		Owner:           claim.Owner,
		Claimant:        claim.Claimant,
		Deadline:        claim.ResolutionDeadline,
	}
}

// EventType returns the event type name
func (e *ClaimOpenedEvent) EventType() string {
	return EventTypeClaimOpened
}

// ClaimResolvedEvent is raised when a claim reaches a terminal status
type ClaimResolvedEvent struct {
	shared.BaseDomainEvent
	ClaimID   uuid.UUID   `json:"claim_id"`
	KeyID     uuid.UUID   `json:"key_id"`
	KeyValue  string      `json:"key_value"`
	ClaimType ClaimType   `json:"claim_type"`
	Outcome   ClaimStatus `json:"outcome"`
	NewOwner  *Account    `json:"new_owner,omitempty"`
}

// NewClaimResolvedEvent creates a new ClaimResolvedEvent
func NewClaimResolvedEvent(claim *Claim) *ClaimResolvedEvent {
	evt := &ClaimResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimResolved, AggregateTypeClaim, claim.ID),
		ClaimID:         claim.ID,
		KeyID:           claim.KeyID,
		KeyValue:        claim.KeyValue,
		ClaimType:       claim.Type,
		Outcome:         claim.Status,
	}
	if claim.Status == ClaimStatusCompleted {
		newOwner := claim.Claimant
		evt.NewOwner = &newOwner
	}
	return evt
}

// EventType returns the event type name
func (e *ClaimResolvedEvent) EventType() string {
	return EventTypeClaimResolved
}

// DirectoryNotificationEvent wraps an inbound Directory status notification
// for dispatch on the event bus. The event ID is derived deterministically
// from the notification content so redelivered notifications share an ID and
// are deduplicated by the idempotency store.
type DirectoryNotificationEvent struct {
	shared.BaseDomainEvent
	ExternalID string      `json:"external_id"`
	Status     ClaimStatus `json:"status"`
	EventTime  time.Time   `json:"event_time"`
}

// NewDirectoryNotificationEvent creates a new DirectoryNotificationEvent
func NewDirectoryNotificationEvent(n DirectoryNotification) *DirectoryNotificationEvent {
	base := shared.NewBaseDomainEvent(EventTypeDirectoryNotice, AggregateTypeClaim, uuid.Nil)
	base.ID = n.DeduplicationID()
	return &DirectoryNotificationEvent{
		BaseDomainEvent: base,
		ExternalID:      n.ExternalID,
		Status:          n.Status,
		EventTime:       n.Timestamp,
	}
}

// EventType returns the event type name
func (e *DirectoryNotificationEvent) EventType() string {
	return EventTypeDirectoryNotice
}
