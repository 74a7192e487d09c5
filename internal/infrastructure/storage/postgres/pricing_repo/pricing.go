// Package pricing_repo provides the PostgreSQL implementation of the
// pricing configuration repository.
package pricing_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/domain/pricing"
	"mercator/internal/infrastructure/storage/postgres"
)

const (
	markupConfigsTable   = "price_markup_configs"
	customerPricingTable = "price_customer_pricing"
	itemPricingTable     = "price_item_pricing"
)

var (
	markupCols      = postgres.ExtractDBColumns[pricing.MarkupConfiguration]()
	customerCols    = postgres.ExtractDBColumns[pricing.CustomerPricing]()
	itemPricingCols = postgres.ExtractDBColumns[pricing.ItemPricing]()
)

// PricingRepo implements pricing.Repository.
type PricingRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPricingRepo creates a new pricing repository.
func NewPricingRepo(txm *postgres.TxManager) *PricingRepo {
	return &PricingRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// --- Resolution queries ---

// FindCustomerPricing returns active overrides for (customer, item) whose
// validity window contains asOf. Quantity band filtering is the resolver's job.
func (r *PricingRepo) FindCustomerPricing(ctx context.Context, customerID, itemID id.ID, asOf time.Time) ([]pricing.CustomerPricing, error) {
	q := r.builder.Select(customerCols...).
		From(customerPricingTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.LtOrEq{"valid_from": asOf}).
		Where(squirrel.Or{
			squirrel.Eq{"valid_to": nil},
			squirrel.Gt{"valid_to": asOf},
		}).
		OrderBy("valid_from DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []pricing.CustomerPricing
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select customer pricing: %w", err)
	}

	return rows, nil
}

// FindMarkupConfigs returns active configurations at the level whose
// effective window contains asOf. entityID is nil for system level.
func (r *PricingRepo) FindMarkupConfigs(ctx context.Context, level pricing.MarkupLevel, entityID *id.ID, asOf time.Time) ([]pricing.MarkupConfiguration, error) {
	q := r.builder.Select(markupCols...).
		From(markupConfigsTable).
		Where(squirrel.Eq{"level": level}).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.LtOrEq{"effective_from": asOf}).
		Where(squirrel.Or{
			squirrel.Eq{"effective_to": nil},
			squirrel.Gt{"effective_to": asOf},
		})

	if entityID != nil {
		q = q.Where(squirrel.Eq{"entity_id": *entityID})
	} else {
		q = q.Where(squirrel.Eq{"entity_id": nil})
	}

	q = q.OrderBy("effective_from DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []pricing.MarkupConfiguration
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select markup configs: %w", err)
	}

	return rows, nil
}

// --- Markup configuration CRUD ---

func (r *PricingRepo) CreateMarkupConfig(ctx context.Context, cfg *pricing.MarkupConfiguration) error {
	return r.insert(ctx, markupConfigsTable, postgres.StructToMap(cfg))
}

func (r *PricingRepo) UpdateMarkupConfig(ctx context.Context, cfg *pricing.MarkupConfiguration) error {
	return r.updateVersioned(ctx, markupConfigsTable, postgres.StructToMap(cfg))
}

func (r *PricingRepo) GetMarkupConfig(ctx context.Context, cfgID id.ID) (*pricing.MarkupConfiguration, error) {
	q := r.builder.Select(markupCols...).
		From(markupConfigsTable).
		Where(squirrel.Eq{"id": cfgID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg pricing.MarkupConfiguration
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &cfg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("markup configuration", cfgID.String())
		}
		return nil, fmt.Errorf("get markup config: %w", err)
	}

	return &cfg, nil
}

func (r *PricingRepo) ListMarkupConfigs(ctx context.Context, filter pricing.MarkupConfigFilter) ([]pricing.MarkupConfiguration, error) {
	q := r.builder.Select(markupCols...).
		From(markupConfigsTable).
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.Level != nil {
		q = q.Where(squirrel.Eq{"level": *filter.Level})
	}
	if filter.EntityID != nil {
		q = q.Where(squirrel.Eq{"entity_id": *filter.EntityID})
	}
	if filter.ActiveAt != nil {
		q = q.Where(squirrel.Eq{"is_active": true}).
			Where(squirrel.LtOrEq{"effective_from": *filter.ActiveAt}).
			Where(squirrel.Or{
				squirrel.Eq{"effective_to": nil},
				squirrel.Gt{"effective_to": *filter.ActiveAt},
			})
	}

	q = q.OrderBy("level", "effective_from DESC")

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

	var rows []pricing.MarkupConfiguration
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list markup configs: %w", err)
	}

	return rows, nil
}

func (r *PricingRepo) DeleteMarkupConfig(ctx context.Context, cfgID id.ID) error {
	return r.softDelete(ctx, markupConfigsTable, "markup configuration", cfgID)
}

// --- Customer pricing CRUD ---

func (r *PricingRepo) CreateCustomerPricing(ctx context.Context, cp *pricing.CustomerPricing) error {
	return r.insert(ctx, customerPricingTable, postgres.StructToMap(cp))
}

func (r *PricingRepo) UpdateCustomerPricing(ctx context.Context, cp *pricing.CustomerPricing) error {
	return r.updateVersioned(ctx, customerPricingTable, postgres.StructToMap(cp))
}

func (r *PricingRepo) GetCustomerPricing(ctx context.Context, cpID id.ID) (*pricing.CustomerPricing, error) {
	q := r.builder.Select(customerCols...).
		From(customerPricingTable).
		Where(squirrel.Eq{"id": cpID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cp pricing.CustomerPricing
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &cp, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer pricing", cpID.String())
		}
		return nil, fmt.Errorf("get customer pricing: %w", err)
	}

	return &cp, nil
}

func (r *PricingRepo) ListCustomerPricing(ctx context.Context, filter pricing.CustomerPricingFilter) ([]pricing.CustomerPricing, error) {
	q := r.builder.Select(customerCols...).
		From(customerPricingTable).
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.ActiveAt != nil {
		q = q.Where(squirrel.Eq{"is_active": true}).
			Where(squirrel.LtOrEq{"valid_from": *filter.ActiveAt}).
			Where(squirrel.Or{
				squirrel.Eq{"valid_to": nil},
				squirrel.Gt{"valid_to": *filter.ActiveAt},
			})
	}

	q = q.OrderBy("customer_id", "valid_from DESC")

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

	var rows []pricing.CustomerPricing
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list customer pricing: %w", err)
	}

	return rows, nil
}

func (r *PricingRepo) DeleteCustomerPricing(ctx context.Context, cpID id.ID) error {
	return r.softDelete(ctx, customerPricingTable, "customer pricing", cpID)
}

// --- Snapshot cache ---

// UpsertItemPricing stores the latest resolution snapshot keyed by item.
func (r *PricingRepo) UpsertItemPricing(ctx context.Context, ip *pricing.ItemPricing) error {
	sql := `
		INSERT INTO price_item_pricing (
			id, deletion_mark, version, item_id,
			cost, retail_price, wholesale_price,
			retail_markup, wholesale_markup,
			manual_override, override_reason,
			effective_from, effective_to
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (item_id) DO UPDATE SET
			cost             = EXCLUDED.cost,
			retail_price     = EXCLUDED.retail_price,
			wholesale_price  = EXCLUDED.wholesale_price,
			retail_markup    = EXCLUDED.retail_markup,
			wholesale_markup = EXCLUDED.wholesale_markup,
			manual_override  = EXCLUDED.manual_override,
			override_reason  = EXCLUDED.override_reason,
			effective_from   = EXCLUDED.effective_from,
			effective_to     = EXCLUDED.effective_to,
			version          = price_item_pricing.version + 1
	`

	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		ip.ID, ip.DeletionMark, ip.Version, ip.ItemID,
		ip.Cost, ip.RetailPrice, ip.WholesalePrice,
		ip.RetailMarkup, ip.WholesaleMarkup,
		ip.ManualOverride, ip.OverrideReason,
		ip.EffectiveFrom, ip.EffectiveTo,
	)
	if err != nil {
		return fmt.Errorf("upsert item pricing: %w", err)
	}

	return nil
}

func (r *PricingRepo) GetItemPricing(ctx context.Context, itemID id.ID) (*pricing.ItemPricing, error) {
	q := r.builder.Select(itemPricingCols...).
		From(itemPricingTable).
		Where(squirrel.Eq{"item_id": itemID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ip pricing.ItemPricing
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &ip, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("item pricing", itemID.String())
		}
		return nil, fmt.Errorf("get item pricing: %w", err)
	}

	return &ip, nil
}

// --- Helpers ---

func (r *PricingRepo) insert(ctx context.Context, table string, data map[string]any) error {
	q := r.builder.Insert(table).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}

	return nil
}

func (r *PricingRepo) updateVersioned(ctx context.Context, table string, data map[string]any) error {
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	setData := make(map[string]any, len(data))
	for col, val := range data {
		if col == "id" || col == "version" {
			continue
		}
		setData[col] = val
	}

	q := r.builder.Update(table).
		SetMap(setData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(table, entityID)
	}

	return nil
}

func (r *PricingRepo) softDelete(ctx context.Context, table, entityName string, entityID id.ID) error {
	q := r.builder.Update(table).
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, entityID.String())
	}

	return nil
}

// Ensure interface compliance.
var _ pricing.Repository = (*PricingRepo)(nil)
