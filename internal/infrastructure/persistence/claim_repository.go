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

// openClaimStatuses are the statuses in which a claim still blocks its key
var openClaimStatuses = []pix.ClaimStatus{
	pix.ClaimStatusOpen,
	pix.ClaimStatusWaitingResolution,
	pix.ClaimStatusConfirmed,
	pix.ClaimStatusClosing,
}

// GormClaimRepository implements pix.ClaimRepository using GORM
type GormClaimRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormClaimRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a claim by its ID
func (r *GormClaimRepository) FindByID(ctx context.Context, id uuid.UUID) (*pix.Claim, error) {
	var model models.ClaimModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pix.ErrClaimNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a claim by the identifier the Directory assigned
func (r *GormClaimRepository) FindByExternalID(ctx context.Context, externalID string) (*pix.Claim, error) {
	var model models.ClaimModel
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pix.ErrClaimNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByKeyID finds the non-terminal claim attached to a key
func (r *GormClaimRepository) FindActiveByKeyID(ctx context.Context, keyID uuid.UUID) (*pix.Claim, error) {
	var model models.ClaimModel
	if err := r.db.WithContext(ctx).
		Where("key_id = ? AND status IN ?", keyID, openClaimStatuses).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pix.ErrClaimNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindExpired retrieves non-terminal claims whose phase deadline has passed.
// Claims awaiting the owner's answer expire against the resolution deadline;
// confirmed claims expire against the completion deadline.
func (r *GormClaimRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*pix.Claim, error) {
	var rows []models.ClaimModel
	err := r.db.WithContext(ctx).
		Where("(status IN ? AND resolution_deadline < ?) OR (status IN ? AND completion_deadline < ?)",
			[]pix.ClaimStatus{pix.ClaimStatusOpen, pix.ClaimStatusWaitingResolution}, now,
			[]pix.ClaimStatus{pix.ClaimStatusConfirmed, pix.ClaimStatusClosing}, now).
		Order("resolution_deadline ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	claims := make([]*pix.Claim, len(rows))
	for i := range rows {
		claims[i] = rows[i].ToDomain()
	}
	return claims, nil
}

// FindAll lists claims with pagination
func (r *GormClaimRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pix.Claim, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.ClaimModel{})
	base = applyClaimFilters(base, filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ClaimModel
	query := applyPagination(base, filter, ClaimSortFields, "opening_date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	claims := make([]pix.Claim, len(rows))
	for i := range rows {
		claims[i] = *rows[i].ToDomain()
	}
	return claims, total, nil
}

// Save creates or updates a claim without a version check
func (r *GormClaimRepository) Save(ctx context.Context, claim *pix.Claim) error {
	model := models.ClaimModelFromDomain(claim)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormClaimRepository) SaveWithLock(ctx context.Context, claim *pix.Claim) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveClaimWithLock(tx, claim)
	})
}

// SaveWithLockAndEvents saves with optimistic locking and persists domain
// events to the outbox in the same transaction
func (r *GormClaimRepository) SaveWithLockAndEvents(ctx context.Context, claim *pix.Claim, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveClaimWithLock(tx, claim); err != nil {
			return err
		}
		if r.outboxSaver != nil && len(events) > 0 {
			return r.outboxSaver.SaveEvents(ctx, tx, events...)
		}
		return nil
	})
}

// SaveResolution atomically persists a claim transition together with the
// affected key rows and the resulting domain events. All version checks run
// inside one transaction so a competing transition rolls everything back.
func (r *GormClaimRepository) SaveResolution(ctx context.Context, claim *pix.Claim, keys []*pix.PixKey, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveClaimWithLock(tx, claim); err != nil {
			return err
		}
		for _, key := range keys {
			if key == nil {
				continue
			}
			if err := saveKeyWithLock(tx, key); err != nil {
				return err
			}
		}
		if r.outboxSaver != nil && len(events) > 0 {
			return r.outboxSaver.SaveEvents(ctx, tx, events...)
		}
		return nil
	})
}

// saveClaimWithLock upserts a claim row with a version check
func saveClaimWithLock(tx *gorm.DB, claim *pix.Claim) error {
	var stored models.ClaimModel
	err := tx.Select("version").
		Where("id = ?", claim.ID).
		Take(&stored).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		model := models.ClaimModelFromDomain(claim)
		return tx.Create(model).Error
	}
	if err != nil {
		return err
	}

	currentVersion := stored.Version
	if currentVersion != claim.Version {
		return shared.ErrConcurrentModification
	}

	claim.Version++
	claim.UpdatedAt = time.Now()

	result := tx.Model(&models.ClaimModel{}).
		Where("id = ? AND version = ?", claim.ID, currentVersion).
		Updates(map[string]interface{}{
			"external_id":      claim.ExternalID,
			"status":           claim.Status,
			"last_change_date": claim.LastChangeDate,
			"closing_date":     claim.ClosingDate,
			"complete_date":    claim.CompleteDate,
			"version":          claim.Version,
			"updated_at":       claim.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// applyClaimFilters applies the supported filter keys to the query
func applyClaimFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "key_value":
			query = query.Where("key_value = ?", value)
		case "claimant_participant":
			query = query.Where("claimant_participant = ?", value)
		}
	}
	return query
}

// Ensure GormClaimRepository implements ClaimRepository
var _ pix.ClaimRepository = (*GormClaimRepository)(nil)
