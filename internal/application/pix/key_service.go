package pix

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

// KeyService handles Pix key lifecycle operations
type KeyService struct {
	keyRepo   pix.KeyRepository
	directory pix.DirectoryGateway
	logger    *zap.Logger
}

// NewKeyService creates a new KeyService
func NewKeyService(keyRepo pix.KeyRepository, directory pix.DirectoryGateway, logger *zap.Logger) *KeyService {
	return &KeyService{
		keyRepo:   keyRepo,
		directory: directory,
		logger:    logger,
	}
}

// RegisterKey creates a PENDING key and asks the Directory to confirm the
// binding. The confirmation arrives later as a notification.
//
// If the Directory cannot be reached the tentative registration is rolled
// back to CANCELED so the alias stays free and the caller can retry.
func (s *KeyService) RegisterKey(ctx context.Context, req RegisterKeyRequest) (*KeyResponse, error) {
	keyType := pix.KeyType(req.KeyType)
	value := req.KeyValue
	if keyType == pix.KeyTypeEVP && value == "" {
		value = uuid.NewString()
	}

	existing, err := s.keyRepo.FindActiveByValue(ctx, value)
	if err != nil && !errors.Is(err, pix.ErrKeyNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, pix.ErrKeyAlreadyExists
	}

	key, err := pix.NewPixKey(keyType, value, req.Owner.ToAccount())
	if err != nil {
		return nil, err
	}

	events := key.GetDomainEvents()
	key.ClearDomainEvents()
	if err := s.keyRepo.SaveWithLockAndEvents(ctx, key, events); err != nil {
		return nil, err
	}

	if err := s.directory.RequestKeyRegistration(ctx, key); err != nil {
		s.logger.Warn("Directory registration request failed, rolling back",
			zap.String("key_id", key.ID.String()),
			zap.Error(err))
		if rbErr := key.CancelRegistration(); rbErr == nil {
			if saveErr := s.keyRepo.SaveWithLock(ctx, key); saveErr != nil {
				s.logger.Error("Failed to roll back key registration",
					zap.String("key_id", key.ID.String()),
					zap.Error(saveErr))
			}
		}
		return nil, err
	}

	resp := ToKeyResponse(key)
	return &resp, nil
}

// ConfirmKey applies the Directory's registration confirmation.
// Duplicate confirmations are tolerated.
func (s *KeyService) ConfirmKey(ctx context.Context, keyID uuid.UUID) (*KeyResponse, error) {
	key, err := s.keyRepo.FindByID(ctx, keyID)
	if err != nil {
		return nil, err
	}

	if err := key.Confirm(); err != nil {
		return nil, err
	}

	events := key.GetDomainEvents()
	key.ClearDomainEvents()
	if err := s.keyRepo.SaveWithLockAndEvents(ctx, key, events); err != nil {
		return nil, err
	}

	resp := ToKeyResponse(key)
	return &resp, nil
}

// RejectKey cancels a registration the Directory refused
func (s *KeyService) RejectKey(ctx context.Context, keyID uuid.UUID) (*KeyResponse, error) {
	key, err := s.keyRepo.FindByID(ctx, keyID)
	if err != nil {
		return nil, err
	}

	if err := key.CancelRegistration(); err != nil {
		return nil, err
	}

	if err := s.keyRepo.SaveWithLock(ctx, key); err != nil {
		return nil, err
	}

	resp := ToKeyResponse(key)
	return &resp, nil
}

// DeleteKey releases a key at the owner's request. The Directory entry is
// removed first; a Directory failure leaves the local key untouched so the
// operation can be retried.
func (s *KeyService) DeleteKey(ctx context.Context, keyID uuid.UUID, actor AccountRequest) error {
	key, err := s.keyRepo.FindByID(ctx, keyID)
	if err != nil {
		return err
	}

	actorAccount := actor.ToAccount()
	if !actorAccount.SameAccount(key.Owner) {
		return pix.ErrUnauthorizedClaimAction
	}
	if key.ClaimID != nil {
		return pix.ErrKeyHasActiveClaim
	}
	if key.State != pix.KeyStateAdded {
		return shared.NewDomainError(shared.CodeInvalidState,
			"Cannot delete key in state "+key.State.String())
	}

	if err := s.directory.RemoveKey(ctx, key); err != nil {
		return err
	}

	if err := key.Delete(); err != nil {
		return err
	}

	events := key.GetDomainEvents()
	key.ClearDomainEvents()
	return s.keyRepo.SaveWithLockAndEvents(ctx, key, events)
}

// GetKey retrieves a key by its internal ID
func (s *KeyService) GetKey(ctx context.Context, keyID uuid.UUID) (*KeyResponse, error) {
	key, err := s.keyRepo.FindByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	resp := ToKeyResponse(key)
	return &resp, nil
}

// GetKeyByValue retrieves the active key holding an alias
func (s *KeyService) GetKeyByValue(ctx context.Context, value string) (*KeyResponse, error) {
	key, err := s.keyRepo.FindActiveByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	resp := ToKeyResponse(key)
	return &resp, nil
}

// ListKeys lists a user's keys with pagination
func (s *KeyService) ListKeys(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]KeyResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	keys, total, err := s.keyRepo.FindByOwnerUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]KeyResponse, len(keys))
	for i := range keys {
		responses[i] = ToKeyResponse(&keys[i])
	}
	return responses, total, nil
}
