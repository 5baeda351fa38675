package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
	"github.com/pix/backend/internal/infrastructure/persistence/models"
)

// activeKeyStates are the states in which a key still holds its alias
var activeKeyStates = []pix.KeyState{
	pix.KeyStatePending,
	pix.KeyStateAdded,
	pix.KeyStateClaimPending,
	pix.KeyStateClaimClosing,
}

// GormPixKeyRepository implements pix.KeyRepository using GORM
type GormPixKeyRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormPixKeyRepository creates a new GormPixKeyRepository
func NewGormPixKeyRepository(db *gorm.DB) *GormPixKeyRepository {
	return &GormPixKeyRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormPixKeyRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a key by its ID
func (r *GormPixKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*pix.PixKey, error) {
	var model models.PixKeyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pix.ErrKeyNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByValue finds the key currently holding an alias. Terminal rows
// for the same alias are ignored so a released alias can be re-registered.
func (r *GormPixKeyRepository) FindActiveByValue(ctx context.Context, value string) (*pix.PixKey, error) {
	var model models.PixKeyModel
	if err := r.db.WithContext(ctx).
		Where("key_value = ? AND state IN ?", value, activeKeyStates).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pix.ErrKeyNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwnerUser lists a user's keys with pagination
func (r *GormPixKeyRepository) FindByOwnerUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]pix.PixKey, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.PixKeyModel{}).
		Where("owner_user_id = ?", userID)
	base = applyKeyFilters(base, filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PixKeyModel
	query := applyPagination(base, filter, PixKeySortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	keys := make([]pix.PixKey, len(rows))
	for i := range rows {
		keys[i] = *rows[i].ToDomain()
	}
	return keys, total, nil
}

// Save creates or updates a key without a version check
func (r *GormPixKeyRepository) Save(ctx context.Context, key *pix.PixKey) error {
	model := models.PixKeyModelFromDomain(key)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPixKeyRepository) SaveWithLock(ctx context.Context, key *pix.PixKey) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveKeyWithLock(tx, key)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and persists domain
// events to the outbox in the same transaction
func (r *GormPixKeyRepository) SaveWithLockAndEvents(ctx context.Context, key *pix.PixKey, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveKeyWithLock(tx, key); err != nil {
			return err
		}
		if r.outboxSaver != nil && len(events) > 0 {
			return r.outboxSaver.SaveEvents(ctx, tx, events...)
		}
		return nil
	})
}

// saveKeyWithLock upserts a key row with a version check. A key whose row
// does not yet exist is inserted; an existing row is updated only when the
// stored version matches the aggregate's.
func saveKeyWithLock(tx *gorm.DB, key *pix.PixKey) error {
	var stored models.PixKeyModel
	err := tx.Select("version").
		Where("id = ?", key.ID).
		Take(&stored).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		model := models.PixKeyModelFromDomain(key)
		return tx.Create(model).Error
	}
	if err != nil {
		return err
	}

	currentVersion := stored.Version
	if currentVersion != key.Version {
		return shared.ErrConcurrentModification
	}

	key.Version++
	key.UpdatedAt = time.Now()

	result := tx.Model(&models.PixKeyModel{}).
		Where("id = ? AND version = ?", key.ID, currentVersion).
		Updates(map[string]interface{}{
			"state":             key.State,
			"claim_id":          key.ClaimID,
			"version":           key.Version,
			"updated_at":        key.UpdatedAt,
			"owner_participant": key.Owner.Participant,
			"owner_branch":      key.Owner.Branch,
			"owner_number":      key.Owner.Number,
			"owner_type":        key.Owner.Type,
			"owner_user_id":     key.Owner.UserID,
			"owner_user_tax_id": key.Owner.UserTaxID,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// applyKeyFilters applies the supported filter keys to the query
func applyKeyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "state":
			query = query.Where("state = ?", value)
		case "key_type":
			query = query.Where("key_type = ?", value)
		}
	}
	return query
}

// applyPagination applies pagination and ordering to the query.
// Sort fields are validated against the whitelist before being interpolated.
func applyPagination(query *gorm.DB, filter shared.Filter, allowedFields map[string]bool, defaultField string) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderField := ValidateSortField(filter.OrderBy, allowedFields, defaultField)
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderField + " " + orderDir)
}

// Ensure GormPixKeyRepository implements KeyRepository
var _ pix.KeyRepository = (*GormPixKeyRepository)(nil)
