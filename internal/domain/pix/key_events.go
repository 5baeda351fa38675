package pix

import (
	"time"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePixKey = "PixKey"

// Event type constants
const (
	EventTypeKeyRegistered = "PixKeyRegistered"
	EventTypeKeyConfirmed  = "PixKeyConfirmed"
	EventTypeKeyClaimOpen  = "PixKeyClaimOpened"
	EventTypeKeyDeleted    = "PixKeyDeleted"
	EventTypeKeyNotice     = "DirectoryKeyNotificationReceived"
)

// KeyRegisteredEvent is raised when a key registration is submitted
type KeyRegisteredEvent struct {
	shared.BaseDomainEvent
	KeyID    uuid.UUID `json:"key_id"`
	KeyType  KeyType   `json:"key_type"`
	KeyValue string    `json:"key_value"`
	Owner    Account   `json:"owner"`
}

// NewKeyRegisteredEvent creates a new KeyRegisteredEvent
func NewKeyRegisteredEvent(key *PixKey) *KeyRegisteredEvent {
	return &KeyRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeKeyRegistered, AggregateTypePixKey, key.ID),
		KeyID:           key.ID,
		KeyType:         key.KeyType,
		KeyValue:        key.KeyValue,
		Owner:           key.Owner,
	}
}

// EventType returns the event type name
func (e *KeyRegisteredEvent) EventType() string {
	return EventTypeKeyRegistered
}

// KeyConfirmedEvent is raised when the Directory confirms a registration
type KeyConfirmedEvent struct {
	shared.BaseDomainEvent
	KeyID    uuid.UUID `json:"key_id"`
	KeyValue string    `json:"key_value"`
	Owner    Account   `json:"owner"`
}

// NewKeyConfirmedEvent creates a new KeyConfirmedEvent
func NewKeyConfirmedEvent(key *PixKey) *KeyConfirmedEvent {
	return &KeyConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeKeyConfirmed, AggregateTypePixKey, key.ID),
		KeyID:           key.ID,
		KeyValue:        key.KeyValue,
		Owner:           key.Owner,
	}
}

// EventType returns the event type name
func (e *KeyConfirmedEvent) EventType() string {
	return EventTypeKeyConfirmed
}

// KeyClaimOpenedEvent is raised when a claim is attached to a key
type KeyClaimOpenedEvent struct {
	shared.BaseDomainEvent
	KeyID    uuid.UUID `json:"key_id"`
	KeyValue string    `json:"key_value"`
	ClaimID  uuid.UUID `json:"claim_id"`
	Owner    Account   `json:"owner"`
}

// NewKeyClaimOpenedEvent creates a new KeyClaimOpenedEvent
func NewKeyClaimOpenedEvent(key *PixKey, claimID uuid.UUID) *KeyClaimOpenedEvent {
	return &KeyClaimOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeKeyClaimOpen, AggregateTypePixKey, key.ID),
		KeyID:           key.ID,
		KeyValue:        key.KeyValue,
		ClaimID:         claimID,
		Owner:           key.Owner,
	}
}

// EventType returns the event type name
func (e *KeyClaimOpenedEvent) EventType() string {
	return EventTypeKeyClaimOpen
}

// KeyDeletedEvent is raised when a key moves to its terminal DELETED state
type KeyDeletedEvent struct {
	shared.BaseDomainEvent
	KeyID    uuid.UUID `json:"key_id"`
	KeyValue string    `json:"key_value"`
	Owner    Account   `json:"owner"`
}

// NewKeyDeletedEvent creates a new KeyDeletedEvent
func NewKeyDeletedEvent(key *PixKey) *KeyDeletedEvent {
	return &KeyDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeKeyDeleted, AggregateTypePixKey, key.ID),
		KeyID:           key.ID,
		KeyValue:        key.KeyValue,
		Owner:           key.Owner,
	}
}

// EventType returns the event type name
func (e *KeyDeletedEvent) EventType() string {
	return EventTypeKeyDeleted
}

// DirectoryKeyNotificationEvent wraps the Directory's registration verdict
// for dispatch on the event bus. The event ID is derived deterministically
// from the notification content so redeliveries are deduplicated.
type DirectoryKeyNotificationEvent struct {
	shared.BaseDomainEvent
	KeyID     uuid.UUID `json:"key_id"`
	Accepted  bool      `json:"accepted"`
	EventTime time.Time `json:"event_time"`
}

// NewDirectoryKeyNotificationEvent creates a new DirectoryKeyNotificationEvent
func NewDirectoryKeyNotificationEvent(n KeyNotification) *DirectoryKeyNotificationEvent {
	base := shared.NewBaseDomainEvent(EventTypeKeyNotice, AggregateTypePixKey, n.KeyID)
	base.ID = n.DeduplicationID()
	return &DirectoryKeyNotificationEvent{
		BaseDomainEvent: base,
		KeyID:           n.KeyID,
		Accepted:        n.Accepted,
		EventTime:       n.Timestamp,
	}
}

// EventType returns the event type name
func (e *DirectoryKeyNotificationEvent) EventType() string {
	return EventTypeKeyNotice
}
