// Package stock_repo provides the PostgreSQL implementation of the
// stock ledger repository.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/domain/stock"
	"mercator/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "stock_movements"
	levelsTable    = "stock_levels"
)

var movementCols = postgres.ExtractDBColumns[stock.Movement]()
var levelCols = postgres.ExtractDBColumns[stock.Level]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement inserts a single ledger entry. The ledger is append-only:
// there is no update or delete path for movements.
func (r *StockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	data := postgres.StructToMap(m)

	q := r.builder.Insert(movementsTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// ListMovements returns ledger entries matching the filter, newest first.
func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	q := r.builder.Select(movementCols...).From(movementsTable)

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// GetMovementsByReference returns entries posted by a document, in
// posting order.
func (r *StockRepo) GetMovementsByReference(ctx context.Context, refType string, refID id.ID) ([]stock.Movement, error) {
	q := r.builder.Select(movementCols...).
		From(movementsTable).
		Where(squirrel.Eq{"reference_type": refType}).
		Where(squirrel.Eq{"reference_id": refID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements by reference: %w", err)
	}

	return movements, nil
}

// GetLevel returns the level row, apperror.NotFound if absent.
func (r *StockRepo) GetLevel(ctx context.Context, itemID, locationID id.ID) (*stock.Level, error) {
	return r.getLevel(ctx, itemID, locationID, false)
}

// GetLevelForUpdate returns the level row with a row lock.
// Must be called within a transaction.
func (r *StockRepo) GetLevelForUpdate(ctx context.Context, itemID, locationID id.ID) (*stock.Level, error) {
	return r.getLevel(ctx, itemID, locationID, true)
}

func (r *StockRepo) getLevel(ctx context.Context, itemID, locationID id.ID, forUpdate bool) (*stock.Level, error) {
	q := r.builder.Select(levelCols...).
		From(levelsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Eq{"location_id": locationID})

	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	} else {
		q = q.Limit(1)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var level stock.Level
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &level, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory level", itemID.String())
		}
		return nil, fmt.Errorf("get level: %w", err)
	}

	return &level, nil
}

// UpsertLevel inserts or updates the level row keyed by item+location.
func (r *StockRepo) UpsertLevel(ctx context.Context, level *stock.Level) error {
	sql := `
		INSERT INTO stock_levels (
			item_id, location_id,
			quantity_available, quantity_reserved,
			reorder_level, max_stock_level, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (item_id, location_id) DO UPDATE SET
			quantity_available = EXCLUDED.quantity_available,
			quantity_reserved  = EXCLUDED.quantity_reserved,
			reorder_level      = EXCLUDED.reorder_level,
			max_stock_level    = EXCLUDED.max_stock_level,
			updated_at         = EXCLUDED.updated_at
	`

	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		level.ItemID, level.LocationID,
		level.QuantityAvailable, level.QuantityReserved,
		level.ReorderLevel, level.MaxStockLevel, level.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert level: %w", err)
	}

	return nil
}

// ListLevels returns level rows matching the filter.
func (r *StockRepo) ListLevels(ctx context.Context, filter stock.LevelFilter) ([]stock.Level, error) {
	q := r.builder.Select(levelCols...).From(levelsTable)

	if len(filter.ItemIDs) > 0 {
		q = q.Where(squirrel.Eq{"item_id": filter.ItemIDs})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.ExcludeZero {
		q = q.Where("quantity_available + quantity_reserved <> 0")
	}

	q = q.OrderBy("item_id", "location_id")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []stock.Level
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select levels: %w", err)
	}

	return levels, nil
}

// GetLevelsByItem returns levels across all locations for an item.
func (r *StockRepo) GetLevelsByItem(ctx context.Context, itemID id.ID) ([]stock.Level, error) {
	q := r.builder.Select(levelCols...).
		From(levelsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("location_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []stock.Level
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select levels by item: %w", err)
	}

	return levels, nil
}

// FindBelowReorder returns levels at or below their reorder point.
// Levels without a reorder point (reorder_level = 0) are skipped.
func (r *StockRepo) FindBelowReorder(ctx context.Context, locationID *id.ID) ([]stock.Level, error) {
	q := r.builder.Select(levelCols...).
		From(levelsTable).
		Where("reorder_level > 0").
		Where("quantity_available + quantity_reserved <= reorder_level")

	if locationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *locationID})
	}

	q = q.OrderBy("item_id", "location_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var levels []stock.Level
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &levels, sql, args...); err != nil {
		return nil, fmt.Errorf("select below reorder: %w", err)
	}

	return levels, nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
