package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pix/backend/internal/domain/pix"
)

// AccountModel holds the flattened account reference embedded in key and
// claim rows. Participant/branch/number address the account; user fields
// are carried for auditing.
type AccountModel struct {
	Participant string          `gorm:"type:varchar(8);not null"`
	Branch      string          `gorm:"type:varchar(10);not null"`
	Number      string          `gorm:"type:varchar(20);not null"`
	Type        pix.AccountType `gorm:"type:varchar(20);not null"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null"`
	UserTaxID   string          `gorm:"type:varchar(14);not null"`
}

// ToDomain converts the embedded account columns to a domain Account
func (m AccountModel) ToDomain() pix.Account {
	return pix.Account{
		Participant: m.Participant,
		Branch:      m.Branch,
		Number:      m.Number,
		Type:        m.Type,
		UserID:      m.UserID,
		UserTaxID:   m.UserTaxID,
	}
}

// AccountModelFromDomain creates the embedded account columns from a domain Account
func AccountModelFromDomain(a pix.Account) AccountModel {
	return AccountModel{
		Participant: a.Participant,
		Branch:      a.Branch,
		Number:      a.Number,
		Type:        a.Type,
		UserID:      a.UserID,
		UserTaxID:   a.UserTaxID,
	}
}

// PixKeyModel is the persistence model for the PixKey aggregate root.
// The alias has a partial unique index on active states, enforced in the
// migration rather than through GORM tags.
type PixKeyModel struct {
	AggregateModel
	KeyType  pix.KeyType  `gorm:"type:varchar(10);not null"`
	KeyValue string       `gorm:"type:varchar(100);not null;index:idx_pix_keys_value"`
	State    pix.KeyState `gorm:"type:varchar(20);not null;index"`
	Owner    AccountModel `gorm:"embedded;embeddedPrefix:owner_"`
	ClaimID  *uuid.UUID   `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PixKeyModel) TableName() string {
	return "pix_keys"
}

// ToDomain converts the persistence model to a domain PixKey
func (m *PixKeyModel) ToDomain() *pix.PixKey {
	key := &pix.PixKey{
		KeyType:  m.KeyType,
		KeyValue: m.KeyValue,
		State:    m.State,
		Owner:    m.Owner.ToDomain(),
		ClaimID:  m.ClaimID,
	}
	m.PopulateAggregateRoot(&key.BaseAggregateRoot)
	return key
}

// FromDomain populates the persistence model from a domain PixKey
func (m *PixKeyModel) FromDomain(k *pix.PixKey) {
	m.FromDomainAggregateRoot(k.BaseAggregateRoot)
	m.KeyType = k.KeyType
	m.KeyValue = k.KeyValue
	m.State = k.State
	m.Owner = AccountModelFromDomain(k.Owner)
	m.ClaimID = k.ClaimID
}

// PixKeyModelFromDomain creates a new persistence model from a domain PixKey
func PixKeyModelFromDomain(k *pix.PixKey) *PixKeyModel {
	m := &PixKeyModel{}
	m.FromDomain(k)
	return m
}

// ClaimModel is the persistence model for the Claim aggregate root.
type ClaimModel struct {
	AggregateModel
	ExternalID         *string         `gorm:"type:varchar(100);uniqueIndex:idx_claims_external_id"`
	KeyID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	KeyValue           string          `gorm:"type:varchar(100);not null"`
	Type               pix.ClaimType   `gorm:"type:varchar(20);not null"`
	Status             pix.ClaimStatus `gorm:"type:varchar(30);not null;index:idx_claims_status_deadline,priority:1"`
	Reason             pix.ClaimReason `gorm:"type:varchar(30);not null"`
	Owner              AccountModel    `gorm:"embedded;embeddedPrefix:owner_"`
	Claimant           AccountModel    `gorm:"embedded;embeddedPrefix:claimant_"`
	OpeningDate        time.Time       `gorm:"not null"`
	LastChangeDate     time.Time       `gorm:"not null"`
	ResolutionDeadline time.Time       `gorm:"not null;index:idx_claims_status_deadline,priority:2"`
	CompletionDeadline time.Time       `gorm:"not null"`
	ClosingDate        *time.Time
	CompleteDate       *time.Time
}

// TableName returns the table name for GORM
func (ClaimModel) TableName() string {
	return "claims"
}

// ToDomain converts the persistence model to a domain Claim
func (m *ClaimModel) ToDomain() *pix.Claim {
	claim := &pix.Claim{
		ExternalID:         m.ExternalID,
		KeyID:              m.KeyID,
		KeyValue:           m.KeyValue,
		Type:               m.Type,
		Status:             m.Status,
		Reason:             m.Reason,
		Owner:              m.Owner.ToDomain(),
		Claimant:           m.Claimant.ToDomain(),
		OpeningDate:        m.OpeningDate,
		LastChangeDate:     m.LastChangeDate,
		ResolutionDeadline: m.ResolutionDeadline,
		CompletionDeadline: m.CompletionDeadline,
		ClosingDate:        m.ClosingDate,
		CompleteDate:       m.CompleteDate,
	}
	m.PopulateAggregateRoot(&claim.BaseAggregateRoot)
	return claim
}

// FromDomain populates the persistence model from a domain Claim
func (m *ClaimModel) FromDomain(c *pix.Claim) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.ExternalID = c.ExternalID
	m.KeyID = c.KeyID
	m.KeyValue = c.KeyValue
	m.Type = c.Type
	m.Status = c.Status
	m.Reason = c.Reason
	m.Owner = AccountModelFromDomain(c.Owner)
	m.Claimant = AccountModelFromDomain(c.Claimant)
	m.OpeningDate = c.OpeningDate
	m.LastChangeDate = c.LastChangeDate
	m.ResolutionDeadline = c.ResolutionDeadline
	m.CompletionDeadline = c.CompletionDeadline
	m.ClosingDate = c.ClosingDate
	m.CompleteDate = c.CompleteDate
}

// ClaimModelFromDomain creates a new persistence model from a domain Claim
func ClaimModelFromDomain(c *pix.Claim) *ClaimModel {
	m := &ClaimModel{}
	m.FromDomain(c)
	return m
}
