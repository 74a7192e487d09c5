// Package receiving provides goods receipt documents and their
// reconciliation against expected purchase order quantities.
package receiving

import (
	"context"

	"mercator/internal/core/apperror"
	"mercator/internal/core/entity"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
)

// ReceiptStatus is the goods receipt lifecycle state.
type ReceiptStatus string

const (
	StatusDraft       ReceiptStatus = "draft"
	StatusPartial     ReceiptStatus = "partial"
	StatusComplete    ReceiptStatus = "complete"
	StatusDiscrepancy ReceiptStatus = "discrepancy"
)

// IsOpen reports whether line receipts may still be recorded.
// Complete and discrepancy are terminal.
func (s ReceiptStatus) IsOpen() bool {
	return s == StatusDraft || s == StatusPartial
}

// LineCondition describes the state of received goods.
type LineCondition string

const (
	ConditionGood    LineCondition = "good"
	ConditionDamaged LineCondition = "damaged"
	ConditionPartial LineCondition = "partial"
)

// GoodsReceipt is the receiving document header.
type GoodsReceipt struct {
	entity.Document

	SupplierID    id.ID  `db:"supplier_id" json:"supplierId"`
	SupplierLpoID *id.ID `db:"supplier_lpo_id" json:"supplierLpoId,omitempty"`
	LocationID    id.ID  `db:"location_id" json:"locationId"`

	Status ReceiptStatus `db:"status" json:"status"`

	TotalItems    int            `db:"total_items" json:"totalItems"`
	TotalExpected types.Quantity `db:"total_expected" json:"totalExpected"`
	TotalReceived types.Quantity `db:"total_received" json:"totalReceived"`

	DiscrepancyFlag bool   `db:"discrepancy_flag" json:"discrepancyFlag"`
	ReceivedBy      string `db:"received_by" json:"receivedBy,omitempty"`

	Lines []ReceiptLine `db:"-" json:"lines"`
}

// ReceiptLine is one expected item on a goods receipt.
type ReceiptLine struct {
	ID        id.ID `db:"id" json:"id"`
	ReceiptID id.ID `db:"receipt_id" json:"receiptId"`

	// LpoItemID references the purchase order line this receipt line
	// reconciles against.
	LpoItemID id.ID `db:"lpo_item_id" json:"lpoItemId"`
	ItemID    id.ID `db:"item_id" json:"itemId"`

	QuantityExpected types.Quantity `db:"quantity_expected" json:"quantityExpected"`
	QuantityReceived types.Quantity `db:"quantity_received" json:"quantityReceived"`
	QuantityDamaged  types.Quantity `db:"quantity_damaged" json:"quantityDamaged"`
	QuantityShort    types.Quantity `db:"quantity_short" json:"quantityShort"`

	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	Condition         LineCondition `db:"condition" json:"condition"`
	DiscrepancyReason *string       `db:"discrepancy_reason" json:"discrepancyReason,omitempty"`
}

// HasDiscrepancy reports whether the line deviates from the expected
// delivery: short, damaged, or over-delivered.
func (l *ReceiptLine) HasDiscrepancy() bool {
	return l.QuantityShort.IsPositive() ||
		l.QuantityDamaged.IsPositive() ||
		l.QuantityReceived > l.QuantityExpected
}

// NewGoodsReceipt creates a draft receipt.
func NewGoodsReceipt(supplierID, locationID id.ID) *GoodsReceipt {
	return &GoodsReceipt{
		Document:   entity.NewDocument(),
		SupplierID: supplierID,
		LocationID: locationID,
		Status:     StatusDraft,
	}
}

// Validate implements entity.Validatable interface.
func (r *GoodsReceipt) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	if id.IsNil(r.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("receipt must have at least one line").
			WithDetail("field", "lines")
	}
	for i, line := range r.Lines {
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("line item is required").
				WithDetail("line", i).WithDetail("field", "itemId")
		}
		if !line.QuantityExpected.IsPositive() {
			return apperror.NewValidation("expected quantity must be positive").
				WithDetail("line", i).WithDetail("field", "quantityExpected")
		}
		if line.QuantityReceived.IsNegative() || line.QuantityDamaged.IsNegative() {
			return apperror.NewValidation("received and damaged quantities cannot be negative").
				WithDetail("line", i)
		}
		if line.QuantityDamaged > line.QuantityReceived {
			return apperror.NewValidation("damaged quantity cannot exceed received quantity").
				WithDetail("line", i).WithDetail("field", "quantityDamaged")
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("line", i).WithDetail("field", "unitCost")
		}
	}
	return nil
}

// LineByLpoItem finds the line reconciling a purchase order item.
func (r *GoodsReceipt) LineByLpoItem(lpoItemID id.ID) *ReceiptLine {
	for i := range r.Lines {
		if r.Lines[i].LpoItemID == lpoItemID {
			return &r.Lines[i]
		}
	}
	return nil
}

// RecalculateTotals recomputes header totals and the discrepancy flag
// from the current lines.
func (r *GoodsReceipt) RecalculateTotals() {
	r.TotalItems = len(r.Lines)
	r.TotalExpected = 0
	r.TotalReceived = 0
	r.DiscrepancyFlag = false

	for i := range r.Lines {
		line := &r.Lines[i]
		r.TotalExpected += line.QuantityExpected
		r.TotalReceived += line.QuantityReceived
		if line.HasDiscrepancy() {
			r.DiscrepancyFlag = true
		}
	}
}

// HasDiscrepancy reports whether any line is short, damaged, or
// over-delivered.
func (r *GoodsReceipt) HasDiscrepancy() bool {
	for i := range r.Lines {
		if r.Lines[i].HasDiscrepancy() {
			return true
		}
	}
	return false
}
