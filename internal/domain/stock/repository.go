package stock

import (
	"context"
	"time"

	"mercator/internal/core/id"
)

// Repository defines persistence operations for the stock ledger.
type Repository interface {
	// Movement operations (append-only)

	// CreateMovement inserts a single ledger entry.
	CreateMovement(ctx context.Context, m *Movement) error

	// ListMovements returns ledger entries matching the filter,
	// newest first.
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)

	// GetMovementsByReference returns entries posted by a document.
	GetMovementsByReference(ctx context.Context, refType string, refID id.ID) ([]Movement, error)

	// Level operations

	// GetLevel returns the level row, apperror.NotFound if absent.
	GetLevel(ctx context.Context, itemID, locationID id.ID) (*Level, error)

	// GetLevelForUpdate returns the level row with a row lock
	// (SELECT ... FOR UPDATE). Must be called within a transaction.
	GetLevelForUpdate(ctx context.Context, itemID, locationID id.ID) (*Level, error)

	// UpsertLevel inserts or updates the level row.
	UpsertLevel(ctx context.Context, level *Level) error

	// ListLevels returns level rows matching the filter.
	ListLevels(ctx context.Context, filter LevelFilter) ([]Level, error)

	// GetLevelsByItem returns levels across all locations for an item.
	GetLevelsByItem(ctx context.Context, itemID id.ID) ([]Level, error)

	// FindBelowReorder returns levels at or below their reorder point.
	FindBelowReorder(ctx context.Context, locationID *id.ID) ([]Level, error)
}

// MovementFilter for ledger history queries.
type MovementFilter struct {
	ItemID     *id.ID
	LocationID *id.ID
	Type       *MovementType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// LevelFilter for level queries.
type LevelFilter struct {
	ItemIDs     []id.ID
	LocationID  *id.ID
	ExcludeZero bool
	Limit       int
	Offset      int
}
