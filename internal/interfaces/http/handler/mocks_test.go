package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

// mockKeyRepository is a mock implementation of pix.KeyRepository
type mockKeyRepository struct {
	mock.Mock
}

func (m *mockKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*pix.PixKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.PixKey), args.Error(1)
}

func (m *mockKeyRepository) FindActiveByValue(ctx context.Context, value string) (*pix.PixKey, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.PixKey), args.Error(1)
}

func (m *mockKeyRepository) FindByOwnerUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]pix.PixKey, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]pix.PixKey), args.Get(1).(int64), args.Error(2)
}

func (m *mockKeyRepository) Save(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockKeyRepository) SaveWithLock(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockKeyRepository) SaveWithLockAndEvents(ctx context.Context, key *pix.PixKey, events []shared.DomainEvent) error {
	args := m.Called(ctx, key, events)
	return args.Error(0)
}

// mockClaimRepository is a mock implementation of pix.ClaimRepository
type mockClaimRepository struct {
	mock.Mock
}

func (m *mockClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*pix.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.Claim), args.Error(1)
}

func (m *mockClaimRepository) FindByExternalID(ctx context.Context, externalID string) (*pix.Claim, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.Claim), args.Error(1)
}

func (m *mockClaimRepository) FindActiveByKeyID(ctx context.Context, keyID uuid.UUID) (*pix.Claim, error) {
	args := m.Called(ctx, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.Claim), args.Error(1)
}

func (m *mockClaimRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*pix.Claim, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pix.Claim), args.Error(1)
}

func (m *mockClaimRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pix.Claim, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]pix.Claim), args.Get(1).(int64), args.Error(2)
}

func (m *mockClaimRepository) Save(ctx context.Context, claim *pix.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *mockClaimRepository) SaveWithLock(ctx context.Context, claim *pix.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *mockClaimRepository) SaveWithLockAndEvents(ctx context.Context, claim *pix.Claim, events []shared.DomainEvent) error {
	args := m.Called(ctx, claim, events)
	return args.Error(0)
}

func (m *mockClaimRepository) SaveResolution(ctx context.Context, claim *pix.Claim, keys []*pix.PixKey, events []shared.DomainEvent) error {
	args := m.Called(ctx, claim, keys, events)
	return args.Error(0)
}

// mockDirectoryGateway is a mock implementation of pix.DirectoryGateway
type mockDirectoryGateway struct {
	mock.Mock
}

func (m *mockDirectoryGateway) RequestKeyRegistration(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockDirectoryGateway) RemoveKey(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockDirectoryGateway) RequestClaim(ctx context.Context, claim *pix.Claim) (string, error) {
	args := m.Called(ctx, claim)
	return args.String(0), args.Error(1)
}

func (m *mockDirectoryGateway) CancelClaim(ctx context.Context, externalID string, reason pix.ClaimReason) error {
	args := m.Called(ctx, externalID, reason)
	return args.Error(0)
}

func (m *mockDirectoryGateway) ConfirmClaim(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

// mockEventPublisher is a mock implementation of shared.EventPublisher
type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
