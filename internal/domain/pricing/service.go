package pricing

import (
	"context"
	"fmt"
	"time"

	"mercator/internal/core/apperror"
	"mercator/internal/core/entity"
	"mercator/internal/core/id"
	"mercator/internal/core/tx"
	"mercator/internal/core/types"
	"mercator/pkg/logger"
)

// Service maintains the pricing configuration (markup rows and customer
// overrides) and the ItemPricing snapshot cache.
type Service struct {
	repo      Repository
	resolver  *Resolver
	items     ItemSource
	txManager tx.Manager
}

// NewService creates a pricing configuration service.
func NewService(repo Repository, resolver *Resolver, items ItemSource, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		items:     items,
		txManager: txManager,
	}
}

// Resolver exposes the read-only resolver.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// --- Markup configuration ---

// CreateMarkupConfig validates and persists a markup configuration.
func (s *Service) CreateMarkupConfig(ctx context.Context, cfg *MarkupConfiguration) error {
	if err := cfg.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(cfg.ID) {
		cfg.BaseEntity = entity.NewBaseEntity()
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateMarkupConfig(ctx, cfg); err != nil {
			return fmt.Errorf("create markup config: %w", err)
		}
		logger.Info(ctx, "markup configuration created",
			"config_id", cfg.ID, "level", cfg.Level)
		return nil
	})
}

// UpdateMarkupConfig validates and updates a markup configuration.
func (s *Service) UpdateMarkupConfig(ctx context.Context, cfg *MarkupConfiguration) error {
	if err := cfg.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateMarkupConfig(ctx, cfg); err != nil {
			return fmt.Errorf("update markup config: %w", err)
		}
		return nil
	})
}

// GetMarkupConfig retrieves a markup configuration by ID.
func (s *Service) GetMarkupConfig(ctx context.Context, cfgID id.ID) (*MarkupConfiguration, error) {
	return s.repo.GetMarkupConfig(ctx, cfgID)
}

// ListMarkupConfigs lists markup configurations.
func (s *Service) ListMarkupConfigs(ctx context.Context, filter MarkupConfigFilter) ([]MarkupConfiguration, error) {
	return s.repo.ListMarkupConfigs(ctx, filter)
}

// DeleteMarkupConfig removes a markup configuration.
func (s *Service) DeleteMarkupConfig(ctx context.Context, cfgID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteMarkupConfig(ctx, cfgID)
	})
}

// --- Customer pricing ---

// CreateCustomerPricing validates and persists a customer override.
func (s *Service) CreateCustomerPricing(ctx context.Context, cp *CustomerPricing) error {
	if err := cp.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(cp.ID) {
		cp.BaseEntity = entity.NewBaseEntity()
	}

	// The item must exist; overrides for unknown items would silently
	// never match.
	if _, err := s.items.GetByID(ctx, cp.ItemID); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateCustomerPricing(ctx, cp); err != nil {
			return fmt.Errorf("create customer pricing: %w", err)
		}
		logger.Info(ctx, "customer pricing created",
			"pricing_id", cp.ID, "customer_id", cp.CustomerID, "item_id", cp.ItemID)
		return nil
	})
}

// UpdateCustomerPricing validates and updates a customer override.
func (s *Service) UpdateCustomerPricing(ctx context.Context, cp *CustomerPricing) error {
	if err := cp.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateCustomerPricing(ctx, cp); err != nil {
			return fmt.Errorf("update customer pricing: %w", err)
		}
		return nil
	})
}

// GetCustomerPricing retrieves an override by ID.
func (s *Service) GetCustomerPricing(ctx context.Context, cpID id.ID) (*CustomerPricing, error) {
	return s.repo.GetCustomerPricing(ctx, cpID)
}

// ListCustomerPricing lists customer overrides.
func (s *Service) ListCustomerPricing(ctx context.Context, filter CustomerPricingFilter) ([]CustomerPricing, error) {
	return s.repo.ListCustomerPricing(ctx, filter)
}

// DeleteCustomerPricing removes a customer override.
func (s *Service) DeleteCustomerPricing(ctx context.Context, cpID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteCustomerPricing(ctx, cpID)
	})
}

// --- Snapshot cache ---

// SnapshotPricing resolves the current retail and wholesale price for an
// item and persists the result as an ItemPricing row. The snapshot is an
// explicit caller-driven cache write; ResolvePrice never consults it.
func (s *Service) SnapshotPricing(ctx context.Context, itemID id.ID) (*ItemPricing, error) {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.HasCostBasis() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"item has no cost basis for snapshot").
			WithDetail("item_id", itemID.String())
	}

	now := time.Now().UTC()
	one := types.NewQuantityFromFloat64(1)

	retail, err := s.resolver.ResolvePrice(ctx, ResolveInput{
		ItemID: itemID, CustomerType: CustomerRetail, Quantity: one, AsOf: now,
	})
	if err != nil {
		return nil, err
	}
	wholesale, err := s.resolver.ResolvePrice(ctx, ResolveInput{
		ItemID: itemID, CustomerType: CustomerWholesale, Quantity: one, AsOf: now,
	})
	if err != nil {
		return nil, err
	}

	ip := &ItemPricing{
		BaseEntity:      entity.NewBaseEntity(),
		ItemID:          itemID,
		Cost:            it.SupplierCost,
		RetailPrice:     retail.UnitPrice,
		WholesalePrice:  wholesale.UnitPrice,
		RetailMarkup:    retail.MarkupPercent,
		WholesaleMarkup: wholesale.MarkupPercent,
		EffectiveFrom:   now,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpsertItemPricing(ctx, ip)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert item pricing: %w", err)
	}

	logger.Info(ctx, "item pricing snapshot written",
		"item_id", itemID,
		"retail_level", retail.AppliedLevel,
		"wholesale_level", wholesale.AppliedLevel,
	)

	return ip, nil
}

// GetItemPricing returns the cached snapshot for an item.
func (s *Service) GetItemPricing(ctx context.Context, itemID id.ID) (*ItemPricing, error) {
	return s.repo.GetItemPricing(ctx, itemID)
}
