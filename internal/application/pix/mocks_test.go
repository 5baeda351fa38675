package pix

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

// MockKeyRepository is a mock implementation of pix.KeyRepository
type MockKeyRepository struct {
	mock.Mock
}

func (m *MockKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*pix.PixKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.PixKey), args.Error(1)
}

func (m *MockKeyRepository) FindActiveByValue(ctx context.Context, value string) (*pix.PixKey, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.PixKey), args.Error(1)
}

func (m *MockKeyRepository) FindByOwnerUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]pix.PixKey, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]pix.PixKey), args.Get(1).(int64), args.Error(2)
}

func (m *MockKeyRepository) Save(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockKeyRepository) SaveWithLock(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockKeyRepository) SaveWithLockAndEvents(ctx context.Context, key *pix.PixKey, events []shared.DomainEvent) error {
	args := m.Called(ctx, key, events)
	return args.Error(0)
}

// MockClaimRepository is a mock implementation of pix.ClaimRepository
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*pix.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindByExternalID(ctx context.Context, externalID string) (*pix.Claim, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindActiveByKeyID(ctx context.Context, keyID uuid.UUID) (*pix.Claim, error) {
	args := m.Called(ctx, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pix.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*pix.Claim, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pix.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pix.Claim, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]pix.Claim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) Save(ctx context.Context, claim *pix.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) SaveWithLock(ctx context.Context, claim *pix.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) SaveWithLockAndEvents(ctx context.Context, claim *pix.Claim, events []shared.DomainEvent) error {
	args := m.Called(ctx, claim, events)
	return args.Error(0)
}

func (m *MockClaimRepository) SaveResolution(ctx context.Context, claim *pix.Claim, keys []*pix.PixKey, events []shared.DomainEvent) error {
	args := m.Called(ctx, claim, keys, events)
	return args.Error(0)
}

// MockDirectoryGateway is a mock implementation of pix.DirectoryGateway
type MockDirectoryGateway struct {
	mock.Mock
}

func (m *MockDirectoryGateway) RequestKeyRegistration(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockDirectoryGateway) RemoveKey(ctx context.Context, key *pix.PixKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockDirectoryGateway) RequestClaim(ctx context.Context, claim *pix.Claim) (string, error) {
	args := m.Called(ctx, claim)
	return args.String(0), args.Error(1)
}

func (m *MockDirectoryGateway) CancelClaim(ctx context.Context, externalID string, reason pix.ClaimReason) error {
	args := m.Called(ctx, externalID, reason)
	return args.Error(0)
}

func (m *MockDirectoryGateway) ConfirmClaim(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}
