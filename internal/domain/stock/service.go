package stock

import (
	"context"
	"fmt"
	"time"

	"mercator/internal/core/apperror"
	appctx "mercator/internal/core/context"
	"mercator/internal/core/id"
	"mercator/internal/core/tx"
	"mercator/internal/core/types"
	"mercator/pkg/logger"
)

// Service provides business operations for the stock ledger and levels.
//
// ApplyMovement runs in the caller's transaction: document services own
// the transaction boundary so the document write and the ledger write
// commit or roll back together. Reserve/Release open their own.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// ApplyMovementInput describes a ledger posting request.
type ApplyMovementInput struct {
	ItemID     id.ID
	LocationID id.ID
	Type       MovementType

	// Quantity is positive for all types except adjustment, which is signed.
	Quantity types.Quantity

	UnitCost      types.Money
	ReferenceType string
	ReferenceID   *id.ID
}

// ApplyMovement validates the request against the locked level row,
// updates the level and appends the ledger entry. Must be called within
// a transaction; both writes commit or neither does.
func (s *Service) ApplyMovement(ctx context.Context, in ApplyMovementInput) (*Movement, error) {
	m := &Movement{
		ID:            id.New(),
		ItemID:        in.ItemID,
		LocationID:    in.LocationID,
		Type:          in.Type,
		Quantity:      in.Quantity,
		UnitCost:      in.UnitCost,
		TotalValue:    in.UnitCost.Mul(in.Quantity.Abs().Decimal()),
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Actor:         appctx.GetUserID(ctx),
		CreatedAt:     time.Now().UTC(),
	}
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	level, err := s.lockOrInitLevel(ctx, in.ItemID, in.LocationID)
	if err != nil {
		return nil, err
	}

	delta := m.SignedQuantity()

	// Outbound movements consume available stock only; reserved stock
	// must be released before it can leave the location.
	if delta.IsNegative() {
		if level.QuantityAvailable+delta < 0 {
			return nil, apperror.NewInsufficientStock(
				in.ItemID.String(),
				in.LocationID.String(),
				delta.Abs().Float64(),
				level.QuantityAvailable.Float64(),
			)
		}
	}

	m.QuantityBefore = level.OnHand()
	m.QuantityAfter = m.QuantityBefore + delta

	level.QuantityAvailable += delta
	level.UpdatedAt = m.CreatedAt

	if err := s.repo.UpsertLevel(ctx, level); err != nil {
		return nil, fmt.Errorf("update level: %w", err)
	}
	if err := s.repo.CreateMovement(ctx, m); err != nil {
		return nil, fmt.Errorf("create movement: %w", err)
	}

	logger.Info(ctx, "stock movement posted",
		"movement_id", m.ID,
		"item_id", m.ItemID,
		"location_id", m.LocationID,
		"type", m.Type,
		"quantity", m.Quantity,
		"on_hand", m.QuantityAfter,
	)

	return m, nil
}

// lockOrInitLevel locks the level row, creating a zero row lazily
// on the first movement at this item+location.
func (s *Service) lockOrInitLevel(ctx context.Context, itemID, locationID id.ID) (*Level, error) {
	level, err := s.repo.GetLevelForUpdate(ctx, itemID, locationID)
	if err == nil {
		return level, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("lock level: %w", err)
	}
	return &Level{
		ItemID:     itemID,
		LocationID: locationID,
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

// Reserve moves quantity from available to reserved.
// Reserving beyond available stock fails with InsufficientStock.
// No ledger entry is written: on-hand does not change.
func (s *Service) Reserve(ctx context.Context, itemID, locationID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("reserve quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.repo.GetLevelForUpdate(ctx, itemID, locationID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewInsufficientStock(
					itemID.String(), locationID.String(), qty.Float64(), 0)
			}
			return fmt.Errorf("lock level: %w", err)
		}

		if level.QuantityAvailable < qty {
			return apperror.NewInsufficientStock(
				itemID.String(), locationID.String(),
				qty.Float64(), level.QuantityAvailable.Float64())
		}

		level.QuantityAvailable -= qty
		level.QuantityReserved += qty
		level.UpdatedAt = time.Now().UTC()

		return s.repo.UpsertLevel(ctx, level)
	})
}

// Release moves quantity from reserved back to available.
// Releasing more than is reserved is a validation error.
func (s *Service) Release(ctx context.Context, itemID, locationID id.ID, qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("release quantity must be positive").
			WithDetail("field", "quantity")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.repo.GetLevelForUpdate(ctx, itemID, locationID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("inventory level",
					fmt.Sprintf("%s@%s", itemID, locationID))
			}
			return fmt.Errorf("lock level: %w", err)
		}

		if level.QuantityReserved < qty {
			return apperror.NewValidation("cannot release more than reserved").
				WithDetail("requested", qty.String()).
				WithDetail("reserved", level.QuantityReserved.String())
		}

		level.QuantityReserved -= qty
		level.QuantityAvailable += qty
		level.UpdatedAt = time.Now().UTC()

		return s.repo.UpsertLevel(ctx, level)
	})
}

// GetLevel returns the level row for an item+location.
func (s *Service) GetLevel(ctx context.Context, itemID, locationID id.ID) (*Level, error) {
	return s.repo.GetLevel(ctx, itemID, locationID)
}

// ListLevels returns level rows matching the filter.
func (s *Service) ListLevels(ctx context.Context, filter LevelFilter) ([]Level, error) {
	return s.repo.ListLevels(ctx, filter)
}

// GetItemAvailability returns available quantity across all locations.
func (s *Service) GetItemAvailability(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	levels, err := s.repo.GetLevelsByItem(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("get levels: %w", err)
	}

	var total types.Quantity
	for _, l := range levels {
		total += l.QuantityAvailable
	}
	return total, nil
}

// ListMovements returns ledger history matching the filter.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// FindBelowReorder returns levels at or below their reorder point.
func (s *Service) FindBelowReorder(ctx context.Context, locationID *id.ID) ([]Level, error) {
	return s.repo.FindBelowReorder(ctx, locationID)
}

// SetReorderLevels updates reorder and max stock levels for an item+location.
func (s *Service) SetReorderLevels(ctx context.Context, itemID, locationID id.ID, reorder, maxStock types.Quantity) error {
	if reorder.IsNegative() || maxStock.IsNegative() {
		return apperror.NewValidation("reorder levels cannot be negative")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := s.lockOrInitLevel(ctx, itemID, locationID)
		if err != nil {
			return err
		}
		level.ReorderLevel = reorder
		level.MaxStockLevel = maxStock
		level.UpdatedAt = time.Now().UTC()
		return s.repo.UpsertLevel(ctx, level)
	})
}
