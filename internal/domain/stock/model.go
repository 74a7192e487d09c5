// Package stock provides the append-only stock ledger and inventory levels.
package stock

import (
	"context"
	"time"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
)

// MovementType classifies ledger entries.
type MovementType string

const (
	TypeReceipt    MovementType = "receipt"
	TypeIssue      MovementType = "issue"
	TypeTransfer   MovementType = "transfer"
	TypeAdjustment MovementType = "adjustment"
	TypeReturn     MovementType = "return"
)

// IsValid reports whether the movement type is known.
func (t MovementType) IsValid() bool {
	switch t {
	case TypeReceipt, TypeIssue, TypeTransfer, TypeAdjustment, TypeReturn:
		return true
	}
	return false
}

// Direction returns +1 for inbound types, -1 for outbound types.
// Adjustments carry their own sign and return 0.
func (t MovementType) Direction() int {
	switch t {
	case TypeReceipt, TypeReturn:
		return 1
	case TypeIssue, TypeTransfer:
		return -1
	}
	return 0
}

// Movement is an immutable ledger entry. Corrections are recorded as
// new adjustment entries, never as updates to existing rows.
type Movement struct {
	ID         id.ID        `db:"id" json:"id"`
	ItemID     id.ID        `db:"item_id" json:"itemId"`
	LocationID id.ID        `db:"location_id" json:"locationId"`
	Type       MovementType `db:"movement_type" json:"movementType"`

	// Quantity is positive for all types except adjustment, which is signed.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// QuantityBefore/QuantityAfter capture on-hand (available + reserved)
	// at the item+location at the moment of posting.
	QuantityBefore types.Quantity `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  types.Quantity `db:"quantity_after" json:"quantityAfter"`

	UnitCost   types.Money `db:"unit_cost" json:"unitCost"`
	TotalValue types.Money `db:"total_value" json:"totalValue"`

	// ReferenceType/ReferenceID point to the originating document
	// (e.g. "goods_receipt", "stock_issue").
	ReferenceType string `db:"reference_type" json:"referenceType,omitempty"`
	ReferenceID   *id.ID `db:"reference_id" json:"referenceId,omitempty"`

	Actor     string    `db:"actor" json:"actor,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SignedQuantity returns the on-hand delta this movement applies.
func (m *Movement) SignedQuantity() types.Quantity {
	if m.Type == TypeAdjustment {
		return m.Quantity
	}
	return types.Quantity(int64(m.Quantity) * int64(m.Type.Direction()))
}

// Validate checks movement invariants.
func (m *Movement) Validate(ctx context.Context) error {
	if !m.Type.IsValid() {
		return apperror.NewValidation("invalid movement type").
			WithDetail("field", "movementType").
			WithDetail("value", string(m.Type))
	}
	if id.IsNil(m.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	if id.IsNil(m.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if m.Type == TypeAdjustment {
		if m.Quantity.IsZero() {
			return apperror.NewValidation("adjustment quantity cannot be zero").
				WithDetail("field", "quantity")
		}
	} else if !m.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if m.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}
	return nil
}

// Level tracks inventory at one item+location pair.
// Rows are created lazily on the first movement into a location.
type Level struct {
	ItemID     id.ID `db:"item_id" json:"itemId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// QuantityAvailable never goes below zero.
	QuantityAvailable types.Quantity `db:"quantity_available" json:"quantityAvailable"`
	QuantityReserved  types.Quantity `db:"quantity_reserved" json:"quantityReserved"`

	ReorderLevel  types.Quantity `db:"reorder_level" json:"reorderLevel"`
	MaxStockLevel types.Quantity `db:"max_stock_level" json:"maxStockLevel"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// OnHand returns available + reserved.
func (l *Level) OnHand() types.Quantity {
	return l.QuantityAvailable + l.QuantityReserved
}

// BelowReorder reports whether on-hand stock is at or below the reorder level.
func (l *Level) BelowReorder() bool {
	return l.ReorderLevel > 0 && l.OnHand() <= l.ReorderLevel
}
