// Package pricing provides the price resolution hierarchy.
//
// Price configuration lives at four levels: customer-specific overrides,
// item markups, category markups, and a system-wide markup. Resolution
// walks from most to least specific and applies the first match; the
// item's own default markup fields are the final fallback.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"mercator/internal/core/apperror"
	"mercator/internal/core/entity"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
)

// MarkupLevel identifies where in the hierarchy a configuration applies.
type MarkupLevel string

const (
	LevelSystem   MarkupLevel = "system"
	LevelCategory MarkupLevel = "category"
	LevelItem     MarkupLevel = "item"
)

// IsValid reports whether the level is known.
func (l MarkupLevel) IsValid() bool {
	switch l {
	case LevelSystem, LevelCategory, LevelItem:
		return true
	}
	return false
}

// CustomerType selects which markup column is read during resolution.
type CustomerType string

const (
	CustomerRetail    CustomerType = "retail"
	CustomerWholesale CustomerType = "wholesale"
)

// IsValid reports whether the customer type is known.
func (t CustomerType) IsValid() bool {
	return t == CustomerRetail || t == CustomerWholesale
}

// MarkupConfiguration is one row of the markup hierarchy.
// Multiple rows may exist per (level, entity) scoped by date; the one
// with the latest effectiveFrom containing the resolution instant wins.
type MarkupConfiguration struct {
	entity.BaseEntity

	Level MarkupLevel `db:"level" json:"level"`

	// EntityID references the item or category; null for system level.
	EntityID *id.ID `db:"entity_id" json:"entityId,omitempty"`

	RetailMarkup    types.Percent `db:"retail_markup" json:"retailMarkup"`
	WholesaleMarkup types.Percent `db:"wholesale_markup" json:"wholesaleMarkup"`

	EffectiveFrom time.Time  `db:"effective_from" json:"effectiveFrom"`
	EffectiveTo   *time.Time `db:"effective_to" json:"effectiveTo,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewMarkupConfiguration creates a configuration effective from now.
func NewMarkupConfiguration(level MarkupLevel, entityID *id.ID) *MarkupConfiguration {
	return &MarkupConfiguration{
		BaseEntity:    entity.NewBaseEntity(),
		Level:         level,
		EntityID:      entityID,
		EffectiveFrom: time.Now().UTC(),
		IsActive:      true,
	}
}

// Validate implements entity.Validatable interface.
func (m *MarkupConfiguration) Validate(ctx context.Context) error {
	if !m.Level.IsValid() {
		return apperror.NewValidation("invalid markup level").
			WithDetail("field", "level").
			WithDetail("value", string(m.Level))
	}
	if m.Level == LevelSystem {
		if m.EntityID != nil {
			return apperror.NewValidation("system level must not reference an entity").
				WithDetail("field", "entityId")
		}
	} else if m.EntityID == nil || id.IsNil(*m.EntityID) {
		return apperror.NewValidation("entity is required for item/category level").
			WithDetail("field", "entityId")
	}

	minMarkup := decimal.NewFromInt(-100)
	if m.RetailMarkup.LessThan(minMarkup) || m.WholesaleMarkup.LessThan(minMarkup) {
		return apperror.NewValidation("markup cannot be below -100%")
	}

	if m.EffectiveFrom.IsZero() {
		return apperror.NewValidation("effectiveFrom is required").
			WithDetail("field", "effectiveFrom")
	}
	if m.EffectiveTo != nil && !m.EffectiveTo.After(m.EffectiveFrom) {
		return apperror.NewValidation("effectiveTo must be after effectiveFrom").
			WithDetail("field", "effectiveTo")
	}

	return nil
}

// InEffect reports whether the configuration covers the given instant.
func (m *MarkupConfiguration) InEffect(asOf time.Time) bool {
	if !m.IsActive || asOf.Before(m.EffectiveFrom) {
		return false
	}
	return m.EffectiveTo == nil || asOf.Before(*m.EffectiveTo)
}

// MarkupFor returns the markup column for the customer type.
func (m *MarkupConfiguration) MarkupFor(ct CustomerType) types.Percent {
	if ct == CustomerWholesale {
		return m.WholesaleMarkup
	}
	return m.RetailMarkup
}

// CustomerPricing is the highest-priority override: a special price or
// discount for one (customer, item) pair, bounded by a quantity band
// and a validity window.
type CustomerPricing struct {
	entity.BaseEntity

	CustomerID id.ID `db:"customer_id" json:"customerId"`
	ItemID     id.ID `db:"item_id" json:"itemId"`

	// Exactly one of SpecialPrice / DiscountPercent must be set.
	SpecialPrice    *types.Money   `db:"special_price" json:"specialPrice,omitempty"`
	DiscountPercent *types.Percent `db:"discount_percent" json:"discountPercent,omitempty"`

	// Quantity band; nil bounds are open.
	MinQuantity *types.Quantity `db:"min_quantity" json:"minQuantity,omitempty"`
	MaxQuantity *types.Quantity `db:"max_quantity" json:"maxQuantity,omitempty"`

	ValidFrom time.Time  `db:"valid_from" json:"validFrom"`
	ValidTo   *time.Time `db:"valid_to" json:"validTo,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCustomerPricing creates an override valid from now.
func NewCustomerPricing(customerID, itemID id.ID) *CustomerPricing {
	return &CustomerPricing{
		BaseEntity: entity.NewBaseEntity(),
		CustomerID: customerID,
		ItemID:     itemID,
		ValidFrom:  time.Now().UTC(),
		IsActive:   true,
	}
}

// Validate implements entity.Validatable interface.
func (c *CustomerPricing) Validate(ctx context.Context) error {
	if id.IsNil(c.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if id.IsNil(c.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}

	hasPrice := c.SpecialPrice != nil
	hasDiscount := c.DiscountPercent != nil
	if hasPrice == hasDiscount {
		return apperror.NewValidation("exactly one of specialPrice or discountPercent must be set")
	}
	if hasPrice && c.SpecialPrice.IsNegative() {
		return apperror.NewValidation("special price cannot be negative").
			WithDetail("field", "specialPrice")
	}

	if c.MinQuantity != nil && c.MinQuantity.IsNegative() {
		return apperror.NewValidation("minQuantity cannot be negative").
			WithDetail("field", "minQuantity")
	}
	if c.MinQuantity != nil && c.MaxQuantity != nil && *c.MaxQuantity < *c.MinQuantity {
		return apperror.NewValidation("maxQuantity cannot be below minQuantity").
			WithDetail("field", "maxQuantity")
	}

	if c.ValidFrom.IsZero() {
		return apperror.NewValidation("validFrom is required").WithDetail("field", "validFrom")
	}
	if c.ValidTo != nil && !c.ValidTo.After(c.ValidFrom) {
		return apperror.NewValidation("validTo must be after validFrom").
			WithDetail("field", "validTo")
	}

	return nil
}

// InEffect reports whether the override covers the given instant.
func (c *CustomerPricing) InEffect(asOf time.Time) bool {
	if !c.IsActive || asOf.Before(c.ValidFrom) {
		return false
	}
	return c.ValidTo == nil || asOf.Before(*c.ValidTo)
}

// MatchesQuantity reports whether the quantity falls inside the band.
func (c *CustomerPricing) MatchesQuantity(q types.Quantity) bool {
	if c.MinQuantity != nil && q < *c.MinQuantity {
		return false
	}
	if c.MaxQuantity != nil && q > *c.MaxQuantity {
		return false
	}
	return true
}

// ItemPricing is a snapshot of the last resolution for an item.
// It is a cache, not the source of truth for the hierarchy.
type ItemPricing struct {
	entity.BaseEntity

	ItemID id.ID `db:"item_id" json:"itemId"`

	Cost            types.Money   `db:"cost" json:"cost"`
	RetailPrice     types.Money   `db:"retail_price" json:"retailPrice"`
	WholesalePrice  types.Money   `db:"wholesale_price" json:"wholesalePrice"`
	RetailMarkup    types.Percent `db:"retail_markup" json:"retailMarkup"`
	WholesaleMarkup types.Percent `db:"wholesale_markup" json:"wholesaleMarkup"`

	ManualOverride bool    `db:"manual_override" json:"manualOverride"`
	OverrideReason *string `db:"override_reason" json:"overrideReason,omitempty"`

	EffectiveFrom time.Time  `db:"effective_from" json:"effectiveFrom"`
	EffectiveTo   *time.Time `db:"effective_to" json:"effectiveTo,omitempty"`
}
