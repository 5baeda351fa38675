package event

import (
	"github.com/pix/backend/internal/domain/pix"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Key lifecycle events
	serializer.Register(pix.EventTypeKeyRegistered, &pix.KeyRegisteredEvent{})
	serializer.Register(pix.EventTypeKeyConfirmed, &pix.KeyConfirmedEvent{})
	serializer.Register(pix.EventTypeKeyClaimOpen, &pix.KeyClaimOpenedEvent{})
	serializer.Register(pix.EventTypeKeyDeleted, &pix.KeyDeletedEvent{})

	// Claim lifecycle events
	serializer.Register(pix.EventTypeClaimOpened, &pix.ClaimOpenedEvent{})
	serializer.Register(pix.EventTypeClaimResolved, &pix.ClaimResolvedEvent{})

	// Directory webhook events
	serializer.Register(pix.EventTypeDirectoryNotice, &pix.DirectoryNotificationEvent{})
	serializer.Register(pix.EventTypeKeyNotice, &pix.DirectoryKeyNotificationEvent{})
}
