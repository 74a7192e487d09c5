package location

import (
	"context"
	"fmt"
	"time"

	"mercator/internal/core/apperror"
	"mercator/internal/core/tx"
	"mercator/internal/domain"
	"mercator/pkg/numerator"
)

// Service provides business logic for the StorageLocation catalog.
type Service struct {
	*domain.CatalogService[*StorageLocation]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new StorageLocation service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*StorageLocation]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "storage location",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, loc *StorageLocation) error {
	if loc.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("LOC"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		loc.Code = code
	}

	if exists, _ := s.repo.ExistsByCode(ctx, loc.Code); exists {
		return apperror.NewConflict("location with this code already exists").
			WithDetail("code", loc.Code)
	}

	return nil
}
