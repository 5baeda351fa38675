package pix

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

func TestClaimNotificationHandler_EventTypes(t *testing.T) {
	h := NewClaimNotificationHandler(nil, zap.NewNop())
	assert.Equal(t, []string{pix.EventTypeDirectoryNotice}, h.EventTypes())
}

func TestClaimNotificationHandler_Handle(t *testing.T) {
	f := newClaimServiceFixture()
	h := NewClaimNotificationHandler(f.svc, zap.NewNop())

	key := newAddedKey(t, "10000001")
	claim := newWaitingClaim(t, key)

	f.claimRepo.On("FindByExternalID", mock.Anything, "EXT-001").Return(claim, nil)
	f.keyRepo.On("FindByID", mock.Anything, key.ID).Return(key, nil)
	f.claimRepo.On("SaveResolution", mock.Anything, claim, mock.Anything, mock.Anything).Return(nil)

	event := pix.NewDirectoryNotificationEvent(pix.DirectoryNotification{
		ExternalID: "EXT-001",
		Status:     pix.ClaimStatusCanceled,
		Timestamp:  time.Now(),
	})

	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, pix.ClaimStatusCanceled, claim.Status)
	assert.Equal(t, pix.KeyStateAdded, key.State)
}

func TestClaimNotificationHandler_Handle_StaleIsNotAFailure(t *testing.T) {
	f := newClaimServiceFixture()
	h := NewClaimNotificationHandler(f.svc, zap.NewNop())

	key := newAddedKey(t, "10000001")
	claim := newWaitingClaim(t, key)
	f.claimRepo.On("FindByExternalID", mock.Anything, "EXT-001").Return(claim, nil)

	event := pix.NewDirectoryNotificationEvent(pix.DirectoryNotification{
		ExternalID: "EXT-001",
		Status:     pix.ClaimStatusClosing,
		Timestamp:  claim.LastChangeDate.Add(-time.Hour),
	})

	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, pix.ClaimStatusWaitingResolution, claim.Status)
}

func TestClaimNotificationHandler_Handle_UnknownClaim(t *testing.T) {
	f := newClaimServiceFixture()
	h := NewClaimNotificationHandler(f.svc, zap.NewNop())

	f.claimRepo.On("FindByExternalID", mock.Anything, "EXT-404").Return(nil, pix.ErrClaimNotFound)

	event := pix.NewDirectoryNotificationEvent(pix.DirectoryNotification{
		ExternalID: "EXT-404",
		Status:     pix.ClaimStatusCompleted,
		Timestamp:  time.Now(),
	})

	// The Directory may notify before the opening transaction is visible;
	// redelivery handles it, so the bus must not treat this as a failure
	require.NoError(t, h.Handle(context.Background(), event))
}

func TestClaimNotificationHandler_Handle_RetriesVersionConflict(t *testing.T) {
	f := newClaimServiceFixture()
	h := NewClaimNotificationHandler(f.svc, zap.NewNop())

	key := newAddedKey(t, "10000001")
	claim := newWaitingClaim(t, key)

	f.claimRepo.On("FindByExternalID", mock.Anything, "EXT-001").Return(claim, nil)
	f.keyRepo.On("FindByID", mock.Anything, key.ID).Return(key, nil)
	f.claimRepo.On("SaveResolution", mock.Anything, claim, mock.Anything, mock.Anything).
		Return(shared.ErrConcurrentModification).Once()

	event := pix.NewDirectoryNotificationEvent(pix.DirectoryNotification{
		ExternalID: "EXT-001",
		Status:     pix.ClaimStatusCompleted,
		Timestamp:  time.Now(),
	})

	// The retry reloads the claim, finds the status already applied and
	// absorbs the redundant attempt
	require.NoError(t, h.Handle(context.Background(), event))
	f.claimRepo.AssertNumberOfCalls(t, "SaveResolution", 1)
}

func TestKeyNotificationHandler_Handle_Accepted(t *testing.T) {
	keyRepo := new(MockKeyRepository)
	gateway := new(MockDirectoryGateway)
	h := NewKeyNotificationHandler(newKeyService(keyRepo, gateway), zap.NewNop())

	key, err := pix.NewPixKey(pix.KeyTypeEmail, "user@example.com", testAccountRequest("10000001").ToAccount())
	require.NoError(t, err)
	key.ClearDomainEvents()

	keyRepo.On("FindByID", mock.Anything, key.ID).Return(key, nil)
	keyRepo.On("SaveWithLockAndEvents", mock.Anything, key, mock.Anything).Return(nil)

	event := pix.NewDirectoryKeyNotificationEvent(pix.KeyNotification{
		KeyID:     key.ID,
		Accepted:  true,
		Timestamp: time.Now(),
	})

	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, pix.KeyStateAdded, key.State)
}

func TestKeyNotificationHandler_Handle_Rejected(t *testing.T) {
	keyRepo := new(MockKeyRepository)
	gateway := new(MockDirectoryGateway)
	h := NewKeyNotificationHandler(newKeyService(keyRepo, gateway), zap.NewNop())

	key, err := pix.NewPixKey(pix.KeyTypeEmail, "user@example.com", testAccountRequest("10000001").ToAccount())
	require.NoError(t, err)
	key.ClearDomainEvents()

	keyRepo.On("FindByID", mock.Anything, key.ID).Return(key, nil)
	keyRepo.On("SaveWithLock", mock.Anything, key).Return(nil)

	event := pix.NewDirectoryKeyNotificationEvent(pix.KeyNotification{
		KeyID:     key.ID,
		Accepted:  false,
		Timestamp: time.Now(),
	})

	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, pix.KeyStateCanceled, key.State)
}

func TestKeyNotificationHandler_Handle_DuplicateVerdictIgnored(t *testing.T) {
	keyRepo := new(MockKeyRepository)
	gateway := new(MockDirectoryGateway)
	h := NewKeyNotificationHandler(newKeyService(keyRepo, gateway), zap.NewNop())

	// Key already settled in a terminal state
	owner := testAccountRequest("10000001")
	key, err := pix.NewPixKey(pix.KeyTypeEmail, "user@example.com", owner.ToAccount())
	require.NoError(t, err)
	require.NoError(t, key.Confirm())
	require.NoError(t, key.Delete())
	key.ClearDomainEvents()

	keyRepo.On("FindByID", mock.Anything, key.ID).Return(key, nil)

	event := pix.NewDirectoryKeyNotificationEvent(pix.KeyNotification{
		KeyID:     key.ID,
		Accepted:  true,
		Timestamp: time.Now(),
	})

	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, pix.KeyStateDeleted, key.State)
	keyRepo.AssertNotCalled(t, "SaveWithLockAndEvents", mock.Anything, mock.Anything, mock.Anything)
}
