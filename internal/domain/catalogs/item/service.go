package item

import (
	"context"
	"fmt"
	"time"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/tx"
	"mercator/internal/domain"
	"mercator/pkg/numerator"
)

// Service provides business logic for the InventoryItem catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*InventoryItem]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new InventoryItem service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*InventoryItem]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "inventory item",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)
	base.Hooks().On(domain.BeforeUpdate, svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, it *InventoryItem) error {
	if it.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("ITM"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		it.Code = code
	}

	if exists, _ := s.repo.ExistsByCode(ctx, it.Code); exists {
		return apperror.NewConflict("item with this supplier code already exists").
			WithDetail("code", it.Code)
	}

	return s.checkBarcode(ctx, it)
}

// prepareForUpdate handles barcode uniqueness.
func (s *Service) prepareForUpdate(ctx context.Context, it *InventoryItem) error {
	return s.checkBarcode(ctx, it)
}

func (s *Service) checkBarcode(ctx context.Context, it *InventoryItem) error {
	if it.Barcode == nil || *it.Barcode == "" {
		return nil
	}
	existing, err := s.repo.FindByBarcode(ctx, *it.Barcode)
	if err != nil {
		return nil // not found is fine
	}
	if existing.ID != it.ID {
		return apperror.NewConflict("item with this barcode already exists").
			WithDetail("barcode", *it.Barcode)
	}
	return nil
}

// FindByBarcode retrieves item by barcode.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*InventoryItem, error) {
	return s.repo.FindByBarcode(ctx, barcode)
}

// FindByCategory retrieves items belonging to a category.
func (s *Service) FindByCategory(ctx context.Context, categoryID id.ID, filter domain.ListFilter) (domain.ListResult[*InventoryItem], error) {
	return s.repo.FindByCategory(ctx, categoryID, filter)
}
