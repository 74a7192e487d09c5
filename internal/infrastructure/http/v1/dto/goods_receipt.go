package dto

import (
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain/receiving"
)

// CreateGoodsReceiptRequest creates a draft receipt with expected lines.
type CreateGoodsReceiptRequest struct {
	SupplierID    string                    `json:"supplierId" binding:"required"`
	SupplierLpoID *string                   `json:"supplierLpoId,omitempty"`
	LocationID    string                    `json:"locationId" binding:"required"`
	ReceiptDate   FlexTime                  `json:"receiptDate"`
	Comment       string                    `json:"comment,omitempty"`
	Lines         []CreateReceiptLineRequest `json:"lines" binding:"required"`
}

// CreateReceiptLineRequest is one expected line from the purchase order.
type CreateReceiptLineRequest struct {
	LpoItemID        string         `json:"lpoItemId" binding:"required"`
	ItemID           string         `json:"itemId" binding:"required"`
	QuantityExpected types.Quantity `json:"quantityExpected"`
	UnitCost         types.Money    `json:"unitCost"`
}

// ToInput converts the request to a service input.
func (r *CreateGoodsReceiptRequest) ToInput() (receiving.CreateInput, error) {
	var in receiving.CreateInput

	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return in, err
	}
	locationID, err := id.Parse(r.LocationID)
	if err != nil {
		return in, err
	}

	in = receiving.CreateInput{
		SupplierID:  supplierID,
		LocationID:  locationID,
		ReceiptDate: r.ReceiptDate.Time,
		Comment:     r.Comment,
	}

	if r.SupplierLpoID != nil && *r.SupplierLpoID != "" {
		lpoID, err := id.Parse(*r.SupplierLpoID)
		if err != nil {
			return in, err
		}
		in.SupplierLpoID = &lpoID
	}

	for _, lin := range r.Lines {
		lpoItemID, err := id.Parse(lin.LpoItemID)
		if err != nil {
			return in, err
		}
		itemID, err := id.Parse(lin.ItemID)
		if err != nil {
			return in, err
		}
		in.Lines = append(in.Lines, receiving.CreateLineInput{
			LpoItemID:        lpoItemID,
			ItemID:           itemID,
			QuantityExpected: lin.QuantityExpected,
			UnitCost:         lin.UnitCost,
		})
	}

	return in, nil
}

// UpdateGoodsReceiptRequest updates the header of an open receipt.
type UpdateGoodsReceiptRequest struct {
	ReceiptDate *FlexTime `json:"receiptDate,omitempty"`
	Comment     *string   `json:"comment,omitempty"`
}

// ApplyTo applies header updates to an existing receipt.
func (r *UpdateGoodsReceiptRequest) ApplyTo(receipt *receiving.GoodsReceipt) {
	if r.ReceiptDate != nil && !r.ReceiptDate.IsZero() {
		receipt.Date = r.ReceiptDate.Time
	}
	if r.Comment != nil {
		receipt.Comment = *r.Comment
	}
}

// RecordLineRequest records received quantities for one receipt line.
type RecordLineRequest struct {
	LpoItemID         string         `json:"lpoItemId" binding:"required"`
	QuantityReceived  types.Quantity `json:"quantityReceived"`
	QuantityDamaged   types.Quantity `json:"quantityDamaged"`
	Condition         string         `json:"condition,omitempty"`
	DiscrepancyReason *string        `json:"discrepancyReason,omitempty"`
}

// ToInput converts the request to a service input.
func (r *RecordLineRequest) ToInput(receiptID id.ID) (receiving.RecordLineInput, error) {
	lpoItemID, err := id.Parse(r.LpoItemID)
	if err != nil {
		return receiving.RecordLineInput{}, err
	}

	return receiving.RecordLineInput{
		ReceiptID:        receiptID,
		LpoItemID:        lpoItemID,
		QuantityReceived: r.QuantityReceived,
		QuantityDamaged:  r.QuantityDamaged,
		Condition:        receiving.LineCondition(r.Condition),
		Reason:           r.DiscrepancyReason,
	}, nil
}
