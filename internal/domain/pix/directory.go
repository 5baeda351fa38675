package pix

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DirectoryNotification is the payload the Directory delivers asynchronously
// when a claim's status changes on its side. Delivery is at-least-once and
// unordered across retries.
type DirectoryNotification struct {
	ExternalID string      `json:"external_id"`
	Status     ClaimStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
}

// DeduplicationID derives a stable identifier from the notification content.
// Redeliveries of the same notification produce the same ID.
func (n DirectoryNotification) DeduplicationID() uuid.UUID {
	seed := fmt.Sprintf("%s|%s|%d", n.ExternalID, n.Status, n.Timestamp.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
}

// KeyNotification is the Directory's asynchronous answer to a key
// registration request.
type KeyNotification struct {
	KeyID     uuid.UUID `json:"key_id"`
	Accepted  bool      `json:"accepted"`
	Timestamp time.Time `json:"timestamp"`
}

// DeduplicationID derives a stable identifier from the notification content
func (n KeyNotification) DeduplicationID() uuid.UUID {
	seed := fmt.Sprintf("%s|%t|%d", n.KeyID, n.Accepted, n.Timestamp.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
}

// DirectoryGateway is the outbound port to the Central-Bank Directory.
//
// All methods are blocking I/O; callers must not hold a per-claim lock
// across them. Transport failures surface as a retryable
// DIRECTORY_UNAVAILABLE domain error, never as a terminal claim failure.
type DirectoryGateway interface {
	// RequestKeyRegistration asks the Directory to bind the alias. The
	// confirmation arrives later as a notification, not a return value.
	RequestKeyRegistration(ctx context.Context, key *PixKey) error

	// RemoveKey releases the alias binding in the Directory
	RemoveKey(ctx context.Context, key *PixKey) error

	// RequestClaim opens the claim in the Directory and returns its
	// Directory-assigned identifier
	RequestClaim(ctx context.Context, claim *Claim) (string, error)

	// CancelClaim cancels the claim in the Directory
	CancelClaim(ctx context.Context, externalID string, reason ClaimReason) error

	// ConfirmClaim confirms the claim in the Directory
	ConfirmClaim(ctx context.Context, externalID string) error
}
