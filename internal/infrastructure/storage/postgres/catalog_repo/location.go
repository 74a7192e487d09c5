package catalog_repo

import (
	"mercator/internal/domain/catalogs/location"
	"mercator/internal/infrastructure/storage/postgres"
)

const locationsTable = "cat_locations"

// LocationRepo implements location.Repository.
type LocationRepo struct {
	*BaseCatalogRepo[*location.StorageLocation]
}

// NewLocationRepo creates a new storage location repository.
func NewLocationRepo(txm *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			locationsTable,
			postgres.ExtractDBColumns[location.StorageLocation](),
			func() *location.StorageLocation { return &location.StorageLocation{} },
		),
	}
}

// Ensure interface compliance.
var _ location.Repository = (*LocationRepo)(nil)
