package dto

import (
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain/pricing"
)

// CreateMarkupConfigRequest creates a markup configuration row.
type CreateMarkupConfigRequest struct {
	Level           string        `json:"level" binding:"required"`
	EntityID        *string       `json:"entityId,omitempty"`
	RetailMarkup    types.Percent `json:"retailMarkup"`
	WholesaleMarkup types.Percent `json:"wholesaleMarkup"`
	EffectiveFrom   FlexTime      `json:"effectiveFrom"`
	EffectiveTo     *FlexTime     `json:"effectiveTo,omitempty"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateMarkupConfigRequest) ToEntity() (*pricing.MarkupConfiguration, error) {
	var entityID *id.ID
	if r.EntityID != nil && *r.EntityID != "" {
		parsed, err := id.Parse(*r.EntityID)
		if err != nil {
			return nil, err
		}
		entityID = &parsed
	}

	cfg := pricing.NewMarkupConfiguration(pricing.MarkupLevel(r.Level), entityID)
	cfg.RetailMarkup = r.RetailMarkup
	cfg.WholesaleMarkup = r.WholesaleMarkup
	if !r.EffectiveFrom.IsZero() {
		cfg.EffectiveFrom = r.EffectiveFrom.Time
	}
	if r.EffectiveTo != nil && !r.EffectiveTo.IsZero() {
		t := r.EffectiveTo.Time
		cfg.EffectiveTo = &t
	}
	return cfg, nil
}

// UpdateMarkupConfigRequest updates a markup configuration row.
type UpdateMarkupConfigRequest struct {
	RetailMarkup    *types.Percent `json:"retailMarkup,omitempty"`
	WholesaleMarkup *types.Percent `json:"wholesaleMarkup,omitempty"`
	EffectiveFrom   *FlexTime      `json:"effectiveFrom,omitempty"`
	EffectiveTo     *FlexTime      `json:"effectiveTo,omitempty"`
	IsActive        *bool          `json:"isActive,omitempty"`
}

// ApplyTo applies updates to an existing configuration.
func (r *UpdateMarkupConfigRequest) ApplyTo(cfg *pricing.MarkupConfiguration) {
	if r.RetailMarkup != nil {
		cfg.RetailMarkup = *r.RetailMarkup
	}
	if r.WholesaleMarkup != nil {
		cfg.WholesaleMarkup = *r.WholesaleMarkup
	}
	if r.EffectiveFrom != nil && !r.EffectiveFrom.IsZero() {
		cfg.EffectiveFrom = r.EffectiveFrom.Time
	}
	if r.EffectiveTo != nil {
		if r.EffectiveTo.IsZero() {
			cfg.EffectiveTo = nil
		} else {
			t := r.EffectiveTo.Time
			cfg.EffectiveTo = &t
		}
	}
	if r.IsActive != nil {
		cfg.IsActive = *r.IsActive
	}
}

// CreateCustomerPricingRequest creates a customer-specific override.
type CreateCustomerPricingRequest struct {
	CustomerID      string          `json:"customerId" binding:"required"`
	ItemID          string          `json:"itemId" binding:"required"`
	SpecialPrice    *types.Money    `json:"specialPrice,omitempty"`
	DiscountPercent *types.Percent  `json:"discountPercent,omitempty"`
	MinQuantity     *types.Quantity `json:"minQuantity,omitempty"`
	MaxQuantity     *types.Quantity `json:"maxQuantity,omitempty"`
	ValidFrom       FlexTime        `json:"validFrom"`
	ValidTo         *FlexTime       `json:"validTo,omitempty"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateCustomerPricingRequest) ToEntity() (*pricing.CustomerPricing, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, err
	}
	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return nil, err
	}

	cp := pricing.NewCustomerPricing(customerID, itemID)
	cp.SpecialPrice = r.SpecialPrice
	cp.DiscountPercent = r.DiscountPercent
	cp.MinQuantity = r.MinQuantity
	cp.MaxQuantity = r.MaxQuantity
	if !r.ValidFrom.IsZero() {
		cp.ValidFrom = r.ValidFrom.Time
	}
	if r.ValidTo != nil && !r.ValidTo.IsZero() {
		t := r.ValidTo.Time
		cp.ValidTo = &t
	}
	return cp, nil
}

// UpdateCustomerPricingRequest updates a customer-specific override.
type UpdateCustomerPricingRequest struct {
	SpecialPrice    *types.Money    `json:"specialPrice,omitempty"`
	DiscountPercent *types.Percent  `json:"discountPercent,omitempty"`
	MinQuantity     *types.Quantity `json:"minQuantity,omitempty"`
	MaxQuantity     *types.Quantity `json:"maxQuantity,omitempty"`
	ValidFrom       *FlexTime       `json:"validFrom,omitempty"`
	ValidTo         *FlexTime       `json:"validTo,omitempty"`
	IsActive        *bool           `json:"isActive,omitempty"`
}

// ApplyTo applies updates to an existing override. Switching between
// special price and discount requires sending the new field; the other
// is cleared so the exactly-one invariant holds.
func (r *UpdateCustomerPricingRequest) ApplyTo(cp *pricing.CustomerPricing) {
	if r.SpecialPrice != nil {
		cp.SpecialPrice = r.SpecialPrice
		cp.DiscountPercent = nil
	}
	if r.DiscountPercent != nil {
		cp.DiscountPercent = r.DiscountPercent
		cp.SpecialPrice = nil
	}
	if r.MinQuantity != nil {
		cp.MinQuantity = r.MinQuantity
	}
	if r.MaxQuantity != nil {
		cp.MaxQuantity = r.MaxQuantity
	}
	if r.ValidFrom != nil && !r.ValidFrom.IsZero() {
		cp.ValidFrom = r.ValidFrom.Time
	}
	if r.ValidTo != nil {
		if r.ValidTo.IsZero() {
			cp.ValidTo = nil
		} else {
			t := r.ValidTo.Time
			cp.ValidTo = &t
		}
	}
	if r.IsActive != nil {
		cp.IsActive = *r.IsActive
	}
}

// ResolvePriceResponse is the outcome of a price resolution.
type ResolvePriceResponse struct {
	ItemID           string        `json:"itemId"`
	UnitPrice        types.Money   `json:"unitPrice"`
	AppliedLevel     string        `json:"appliedLevel"`
	MarkupPercentage types.Percent `json:"markupPercentage"`
}

// FromResolution converts a resolver outcome to a response.
func FromResolution(itemID id.ID, res *pricing.Resolution) *ResolvePriceResponse {
	return &ResolvePriceResponse{
		ItemID:           itemID.String(),
		UnitPrice:        res.UnitPrice,
		AppliedLevel:     res.AppliedLevel,
		MarkupPercentage: res.MarkupPercent,
	}
}
