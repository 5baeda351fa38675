package pix

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/shared"
)

// KeyRepository defines persistence for Pix keys
type KeyRepository interface {
	// FindByID retrieves a key by its internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*PixKey, error)

	// FindActiveByValue retrieves the non-terminal key holding the alias.
	// Returns NOT_FOUND when every record for the alias is terminal.
	FindActiveByValue(ctx context.Context, value string) (*PixKey, error)

	// FindByOwnerUser lists keys belonging to a user, newest first
	FindByOwnerUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]PixKey, int64, error)

	// Save persists a new key
	Save(ctx context.Context, key *PixKey) error

	// SaveWithLock persists the key with an optimistic version check.
	// Returns a CONCURRENT_MODIFICATION error when the stored version moved.
	SaveWithLock(ctx context.Context, key *PixKey) error

	// SaveWithLockAndEvents persists the key and stores its domain events in
	// the outbox within one transaction (transactional outbox)
	SaveWithLockAndEvents(ctx context.Context, key *PixKey, events []shared.DomainEvent) error
}

// ClaimRepository defines persistence for claims
type ClaimRepository interface {
	// FindByID retrieves a claim by its internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*Claim, error)

	// FindByExternalID retrieves a claim by its Directory-assigned ID
	FindByExternalID(ctx context.Context, externalID string) (*Claim, error)

	// FindActiveByKeyID retrieves the non-terminal claim referencing a key,
	// if any. At most one such claim exists per key.
	FindActiveByKeyID(ctx context.Context, keyID uuid.UUID) (*Claim, error)

	// FindExpired retrieves non-terminal claims whose relevant deadline has
	// passed, oldest deadline first, up to limit
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*Claim, error)

	// FindAll lists claims matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Claim, int64, error)

	// Save persists a new claim
	Save(ctx context.Context, claim *Claim) error

	// SaveWithLock persists the claim with an optimistic version check.
	// Returns a CONCURRENT_MODIFICATION error when the stored version moved.
	SaveWithLock(ctx context.Context, claim *Claim) error

	// SaveWithLockAndEvents persists the claim and stores the events in the
	// outbox within one transaction (transactional outbox)
	SaveWithLockAndEvents(ctx context.Context, claim *Claim, events []shared.DomainEvent) error

	// SaveResolution persists the claim together with the keys its
	// resolution mutated, all under version checks in one transaction, and
	// stores the events in the outbox. Keys without a stored row are
	// inserted.
	SaveResolution(ctx context.Context, claim *Claim, keys []*PixKey, events []shared.DomainEvent) error
}
