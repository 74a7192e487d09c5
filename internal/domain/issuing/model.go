// Package issuing provides stock issue documents: outbound stock handed
// to staff or departments, with cancellation via reversing ledger entries.
package issuing

import (
	"context"

	"mercator/internal/core/apperror"
	"mercator/internal/core/entity"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
)

// IssueStatus is the stock issue lifecycle state.
type IssueStatus string

const (
	StatusIssued    IssueStatus = "issued"
	StatusCancelled IssueStatus = "cancelled"
)

// StockIssue is an outbound stock document.
type StockIssue struct {
	entity.Document

	ItemID     id.ID          `db:"item_id" json:"itemId"`
	LocationID id.ID          `db:"location_id" json:"locationId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitCost   types.Money    `db:"unit_cost" json:"unitCost"`

	IssuedTo     string `db:"issued_to" json:"issuedTo"`
	DepartmentID *id.ID `db:"department_id" json:"departmentId,omitempty"`
	Reason       string `db:"reason" json:"reason,omitempty"`

	Status IssueStatus `db:"status" json:"status"`

	// MovementID references the ledger entry posted at issue time.
	MovementID *id.ID `db:"movement_id" json:"movementId,omitempty"`

	// ReversalMovementID references the adjustment posted on cancel.
	ReversalMovementID *id.ID `db:"reversal_movement_id" json:"reversalMovementId,omitempty"`
}

// NewStockIssue creates an issue document.
func NewStockIssue(itemID, locationID id.ID, quantity types.Quantity) *StockIssue {
	return &StockIssue{
		Document:   entity.NewDocument(),
		ItemID:     itemID,
		LocationID: locationID,
		Quantity:   quantity,
		Status:     StatusIssued,
	}
}

// Validate implements entity.Validatable interface.
func (s *StockIssue) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(s.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	if id.IsNil(s.LocationID) {
		return apperror.NewValidation("location is required").WithDetail("field", "locationId")
	}
	if !s.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if s.IssuedTo == "" {
		return apperror.NewValidation("issuedTo is required").
			WithDetail("field", "issuedTo")
	}
	return nil
}
