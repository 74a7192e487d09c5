// Package location provides the StorageLocation catalog.
package location

import (
	"context"

	"mercator/internal/core/entity"
)

// StorageLocation represents a physical storage location (warehouse, shelf, store).
type StorageLocation struct {
	entity.Catalog

	// Address is an optional physical address
	Address *string `db:"address" json:"address,omitempty"`
}

// NewStorageLocation creates a new StorageLocation.
func NewStorageLocation(code, name string) *StorageLocation {
	return &StorageLocation{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (l *StorageLocation) Validate(ctx context.Context) error {
	return l.Catalog.Validate(ctx)
}
