package item

import (
	"context"

	"mercator/internal/core/id"
	"mercator/internal/domain"
)

// Repository defines the interface for InventoryItem persistence.
type Repository interface {
	domain.CatalogRepository[*InventoryItem]

	// FindByBarcode retrieves item by barcode.
	FindByBarcode(ctx context.Context, barcode string) (*InventoryItem, error)

	// FindByCategory retrieves items belonging to a category.
	FindByCategory(ctx context.Context, categoryID id.ID, filter domain.ListFilter) (domain.ListResult[*InventoryItem], error)
}
