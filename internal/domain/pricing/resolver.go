package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain/catalogs/item"
	"mercator/pkg/logger"
)

// ItemSource supplies item records for cost and category lookup.
// Satisfied by the item catalog service.
type ItemSource interface {
	GetByID(ctx context.Context, itemID id.ID) (*item.InventoryItem, error)
}

// ResolveInput identifies one price resolution request.
type ResolveInput struct {
	ItemID       id.ID
	CustomerID   id.ID
	CustomerType CustomerType
	Quantity     types.Quantity

	// AsOf is the resolution instant; zero means now.
	AsOf time.Time
}

// Resolution is the outcome of a price resolution.
type Resolution struct {
	UnitPrice types.Money `json:"unitPrice"`

	// AppliedLevel names the hierarchy level that produced the price:
	// customer, item, category, system, or item_default.
	AppliedLevel string `json:"appliedLevel"`

	MarkupPercent types.Percent `json:"markupPercentage"`
}

// Resolver computes effective prices by walking the configuration
// hierarchy. Read-only; it never writes pricing rows.
type Resolver struct {
	repo  Repository
	items ItemSource
}

// NewResolver creates a price resolver.
func NewResolver(repo Repository, items ItemSource) *Resolver {
	return &Resolver{repo: repo, items: items}
}

// ResolvePrice walks the hierarchy from most to least specific:
//
//  1. CustomerPricing override in window and quantity band
//  2. Item-level markup configuration
//  3. Category-level markup configuration
//  4. System-wide markup configuration
//  5. The item's own default markup fields
//
// Within a level, the row with the latest effectiveFrom wins; an exact
// tie fails with AmbiguousConfiguration rather than guessing.
func (r *Resolver) ResolvePrice(ctx context.Context, in ResolveInput) (*Resolution, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if in.CustomerType == "" {
		in.CustomerType = CustomerRetail
	}
	if !in.CustomerType.IsValid() {
		return nil, apperror.NewValidation("invalid customer type").
			WithDetail("field", "customerType").
			WithDetail("value", string(in.CustomerType))
	}
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	it, err := r.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	cost := it.SupplierCost

	// 1. Customer-specific override.
	if !id.IsNil(in.CustomerID) {
		res, err := r.resolveCustomer(ctx, in, cost, asOf)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	// Everything below derives the price from the item's cost.
	if !it.HasCostBasis() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"item has no cost basis for price resolution").
			WithDetail("item_id", in.ItemID.String())
	}

	// 2–4. Markup configuration cascade.
	levels := []struct {
		level    MarkupLevel
		entityID *id.ID
		applied  string
	}{
		{LevelItem, &in.ItemID, "item"},
		{LevelCategory, it.CategoryID, "category"},
		{LevelSystem, nil, "system"},
	}
	for _, lv := range levels {
		if lv.level == LevelCategory && lv.entityID == nil {
			continue
		}
		cfg, err := r.currentConfig(ctx, lv.level, lv.entityID, asOf)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			markup := cfg.MarkupFor(in.CustomerType)
			return &Resolution{
				UnitPrice:     types.ApplyMarkup(cost, markup),
				AppliedLevel:  lv.applied,
				MarkupPercent: markup,
			}, nil
		}
	}

	// 5. Item default markup fields.
	markup := it.DefaultRetailMarkup
	if in.CustomerType == CustomerWholesale {
		markup = it.DefaultWholesaleMarkup
	}

	logger.Debug(ctx, "price resolved from item defaults",
		"item_id", in.ItemID,
		"customer_type", in.CustomerType,
	)

	return &Resolution{
		UnitPrice:     types.ApplyMarkup(cost, markup),
		AppliedLevel:  "item_default",
		MarkupPercent: markup,
	}, nil
}

// resolveCustomer returns the customer override resolution, or nil when
// no override matches.
func (r *Resolver) resolveCustomer(ctx context.Context, in ResolveInput, cost types.Money, asOf time.Time) (*Resolution, error) {
	rows, err := r.repo.FindCustomerPricing(ctx, in.CustomerID, in.ItemID, asOf)
	if err != nil {
		return nil, fmt.Errorf("find customer pricing: %w", err)
	}

	var matches []CustomerPricing
	for _, cp := range rows {
		if cp.InEffect(asOf) && cp.MatchesQuantity(in.Quantity) {
			matches = append(matches, cp)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// Two passes so the outcome does not depend on row order: find the
	// latest window start, then make sure it is unique.
	winner := matches[0]
	for _, cp := range matches[1:] {
		if cp.ValidFrom.After(winner.ValidFrom) {
			winner = cp
		}
	}
	for _, cp := range matches {
		if cp.ID != winner.ID && cp.ValidFrom.Equal(winner.ValidFrom) {
			return nil, apperror.NewAmbiguousConfiguration("customer", in.ItemID.String())
		}
	}

	if winner.SpecialPrice != nil {
		return &Resolution{
			UnitPrice:     *winner.SpecialPrice,
			AppliedLevel:  "customer",
			MarkupPercent: markupFromPrice(*winner.SpecialPrice, cost),
		}, nil
	}

	if !cost.IsPositive() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"item has no cost basis for discount pricing").
			WithDetail("item_id", in.ItemID.String())
	}
	return &Resolution{
		UnitPrice:     types.ApplyMarkup(cost, *winner.DiscountPercent),
		AppliedLevel:  "customer",
		MarkupPercent: *winner.DiscountPercent,
	}, nil
}

// currentConfig picks the winning configuration at one level, or nil.
func (r *Resolver) currentConfig(ctx context.Context, level MarkupLevel, entityID *id.ID, asOf time.Time) (*MarkupConfiguration, error) {
	rows, err := r.repo.FindMarkupConfigs(ctx, level, entityID, asOf)
	if err != nil {
		return nil, fmt.Errorf("find %s markup configs: %w", level, err)
	}

	var matches []MarkupConfiguration
	for _, cfg := range rows {
		if cfg.InEffect(asOf) {
			matches = append(matches, cfg)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// Same two-pass scan as resolveCustomer: a superseded pair sharing an
	// old effectiveFrom must not shadow a unique newer configuration.
	winner := matches[0]
	for _, cfg := range matches[1:] {
		if cfg.EffectiveFrom.After(winner.EffectiveFrom) {
			winner = cfg
		}
	}
	for _, cfg := range matches {
		if cfg.ID != winner.ID && cfg.EffectiveFrom.Equal(winner.EffectiveFrom) {
			entity := ""
			if entityID != nil {
				entity = entityID.String()
			}
			return nil, apperror.NewAmbiguousConfiguration(string(level), entity)
		}
	}
	return &winner, nil
}

// markupFromPrice derives the implied markup of a fixed price over cost.
func markupFromPrice(price, cost types.Money) types.Percent {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return price.Sub(cost).Div(cost).Mul(hundred)
}
