package location

import (
	"mercator/internal/domain"
)

// Repository defines the interface for StorageLocation persistence.
type Repository interface {
	domain.CatalogRepository[*StorageLocation]
}
