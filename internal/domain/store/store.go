package store

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/shared"
)

// StoreType represents the role of a store in the marketplace.
// A store's type is immutable for its lifetime.
type StoreType string

const (
	StoreTypeRetailer   StoreType = "RETAILER"   // Sells to customers, may buy from wholesalers
	StoreTypeWholesaler StoreType = "WHOLESALER" // Sells only to retailers
)

// IsValid checks if the type is a valid StoreType
func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypeRetailer, StoreTypeWholesaler:
		return true
	}
	return false
}

// String returns the string representation of StoreType
func (t StoreType) String() string {
	return string(t)
}

// Store represents a marketplace store aggregate root.
// Stores are owned by a single account and are either retailers or wholesalers.
type Store struct {
	shared.BaseAggregateRoot
	Name    string    `gorm:"size:200;not null"`
	Type    StoreType `gorm:"size:20;not null;index"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Active  bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Store) TableName() string {
	return "stores"
}

// NewStore creates a new store
func NewStore(name string, storeType StoreType, ownerID uuid.UUID) (*Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Store name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Store name cannot exceed 200 characters")
	}
	if !storeType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Store type must be RETAILER or WHOLESALER")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Owner ID cannot be empty")
	}

	return &Store{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              storeType,
		OwnerID:           ownerID,
		Active:            true,
	}, nil
}

// Rename changes the store display name
func (s *Store) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeValidation, "Store name cannot be empty")
	}
	s.Name = name
	s.UpdatedAt = time.Now()
	return nil
}

// Deactivate marks the store inactive; it no longer participates in sourcing
func (s *Store) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now()
}

// IsRetailer returns true if the store sells to customers
func (s *Store) IsRetailer() bool {
	return s.Type == StoreTypeRetailer
}

// IsWholesaler returns true if the store sells only to retailers
func (s *Store) IsWholesaler() bool {
	return s.Type == StoreTypeWholesaler
}

// IsOwnedBy returns true if the given user owns this store
func (s *Store) IsOwnedBy(userID uuid.UUID) bool {
	return s.OwnerID == userID
}
