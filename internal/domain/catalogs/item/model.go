// Package item provides the InventoryItem catalog.
// Items are referenced by stock levels, movements, and pricing rows.
package item

import (
	"context"

	"github.com/shopspring/decimal"

	"mercator/internal/core/apperror"
	"mercator/internal/core/entity"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
)

// InventoryItem represents a stocked product.
// Code holds the supplier code (unique within the catalog).
type InventoryItem struct {
	entity.Catalog

	// CategoryID references the item category (external catalog)
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	// Unit is the unit of measure (e.g. "pcs", "kg")
	Unit string `db:"unit" json:"unit"`

	// Barcode is the item barcode (unique when set)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// SupplierCost is the current purchase cost per unit
	SupplierCost types.Money `db:"supplier_cost" json:"supplierCost"`

	// DefaultRetailMarkup is the fallback retail markup percentage,
	// used when no markup configuration matches at resolution time
	DefaultRetailMarkup types.Percent `db:"default_retail_markup" json:"defaultRetailMarkup"`

	// DefaultWholesaleMarkup is the fallback wholesale markup percentage
	DefaultWholesaleMarkup types.Percent `db:"default_wholesale_markup" json:"defaultWholesaleMarkup"`
}

// NewInventoryItem creates a new InventoryItem with required fields.
func NewInventoryItem(code, name, unit string) *InventoryItem {
	return &InventoryItem{
		Catalog: entity.NewCatalog(code, name),
		Unit:    unit,
	}
}

// Validate implements entity.Validatable interface.
func (i *InventoryItem) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if i.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if i.SupplierCost.IsNegative() {
		return apperror.NewValidation("supplier cost cannot be negative").
			WithDetail("field", "supplierCost")
	}

	if i.DefaultRetailMarkup.LessThan(decimal.NewFromInt(-100)) ||
		i.DefaultWholesaleMarkup.LessThan(decimal.NewFromInt(-100)) {
		return apperror.NewValidation("markup cannot be below -100%").
			WithDetail("field", "defaultMarkup")
	}

	return nil
}

// HasCostBasis reports whether the item carries a usable supplier cost.
func (i *InventoryItem) HasCostBasis() bool {
	return i.SupplierCost.IsPositive()
}
