package receiving

import (
	"context"
	"fmt"
	"time"

	"mercator/internal/core/apperror"
	appctx "mercator/internal/core/context"
	"mercator/internal/core/id"
	"mercator/internal/core/tx"
	"mercator/internal/core/types"
	"mercator/internal/domain"
	"mercator/internal/domain/stock"
	"mercator/pkg/logger"
	"mercator/pkg/numerator"
)

// referenceType tags ledger entries posted by goods receipts.
const referenceType = "goods_receipt"

// Service reconciles goods receipts against expected quantities and
// posts the resulting stock movements.
type Service struct {
	repo      Repository
	stock     *stock.Service
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a goods receipt service.
func NewService(repo Repository, stockSvc *stock.Service, txManager tx.Manager, num *numerator.Service) *Service {
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		txManager: txManager,
		numerator: num,
	}
}

// CreateInput describes a new draft receipt.
type CreateInput struct {
	SupplierID    id.ID
	SupplierLpoID *id.ID
	LocationID    id.ID
	ReceiptDate   time.Time
	Comment       string
	Lines         []CreateLineInput
}

// CreateLineInput is one expected line from the purchase order.
type CreateLineInput struct {
	LpoItemID        id.ID
	ItemID           id.ID
	QuantityExpected types.Quantity
	UnitCost         types.Money
}

// Create builds a draft receipt with expected lines and persists it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*GoodsReceipt, error) {
	receipt := NewGoodsReceipt(in.SupplierID, in.LocationID)
	receipt.SupplierLpoID = in.SupplierLpoID
	receipt.Comment = in.Comment
	receipt.ReceivedBy = appctx.GetUserID(ctx)
	if !in.ReceiptDate.IsZero() {
		receipt.Date = in.ReceiptDate
	}

	for _, lin := range in.Lines {
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			ID:               id.New(),
			ReceiptID:        receipt.ID,
			LpoItemID:        lin.LpoItemID,
			ItemID:           lin.ItemID,
			QuantityExpected: lin.QuantityExpected,
			UnitCost:         lin.UnitCost,
			Condition:        ConditionGood,
		})
	}
	receipt.RecalculateTotals()

	if err := receipt.Validate(ctx); err != nil {
		return nil, err
	}

	// Number allocation runs inside the transaction so a failed insert
	// rolls the sequence back instead of leaving a gap.
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("GRN"), nil, receipt.Date)
		if err != nil {
			return fmt.Errorf("generate receipt number: %w", err)
		}
		receipt.Number = number

		return s.repo.Create(ctx, receipt)
	})
	if err != nil {
		return nil, fmt.Errorf("create receipt: %w", err)
	}

	logger.Info(ctx, "goods receipt created",
		"receipt_id", receipt.ID,
		"number", receipt.Number,
		"lines", len(receipt.Lines),
	)

	return receipt, nil
}

// RecordLineInput describes one line receipt event.
type RecordLineInput struct {
	ReceiptID        id.ID
	LpoItemID        id.ID
	QuantityReceived types.Quantity
	QuantityDamaged  types.Quantity
	Condition        LineCondition
	Reason           *string
}

// RecordLineReceipt records received/damaged quantities for one line.
// Allowed only while the receipt is draft or partial. Short quantity is
// derived as max(0, expected - received); damaged never exceeds received.
func (s *Service) RecordLineReceipt(ctx context.Context, in RecordLineInput) (*GoodsReceipt, error) {
	if in.QuantityReceived.IsNegative() {
		return nil, apperror.NewValidation("received quantity cannot be negative").
			WithDetail("field", "quantityReceived")
	}
	if in.QuantityDamaged.IsNegative() {
		return nil, apperror.NewValidation("damaged quantity cannot be negative").
			WithDetail("field", "quantityDamaged")
	}
	if in.QuantityDamaged > in.QuantityReceived {
		return nil, apperror.NewValidation("damaged quantity cannot exceed received quantity").
			WithDetail("field", "quantityDamaged")
	}

	var receipt *GoodsReceipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.repo.GetForUpdate(ctx, in.ReceiptID)
		if err != nil {
			return err
		}

		if !receipt.Status.IsOpen() {
			return apperror.NewBusinessRule(apperror.CodeReceiptFinalized,
				"receipt is already finalized").
				WithDetail("receipt_id", in.ReceiptID.String()).
				WithDetail("status", string(receipt.Status))
		}

		line := receipt.LineByLpoItem(in.LpoItemID)
		if line == nil {
			return apperror.NewNotFound("receipt line", in.LpoItemID.String())
		}

		line.QuantityReceived = in.QuantityReceived
		line.QuantityDamaged = in.QuantityDamaged
		line.QuantityShort = shortQuantity(line.QuantityExpected, in.QuantityReceived)
		line.DiscrepancyReason = in.Reason
		if in.Condition != "" {
			line.Condition = in.Condition
		}

		receipt.Status = StatusPartial
		receipt.RecalculateTotals()
		receipt.Touch()

		return s.repo.Update(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "receipt line recorded",
		"receipt_id", receipt.ID,
		"lpo_item_id", in.LpoItemID,
		"received", in.QuantityReceived,
		"damaged", in.QuantityDamaged,
	)

	return receipt, nil
}

// Complete finalizes the receipt in a single transaction: the status
// guard makes repeat calls fail with RECEIPT_ALREADY_FINALIZED, totals
// are recomputed from lines, and one receipt movement is posted per
// line with received stock. Any ledger failure rolls everything back.
func (s *Service) Complete(ctx context.Context, receiptID id.ID) (*GoodsReceipt, error) {
	var receipt *GoodsReceipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.repo.GetForUpdate(ctx, receiptID)
		if err != nil {
			return err
		}

		if !receipt.Status.IsOpen() {
			return apperror.NewBusinessRule(apperror.CodeReceiptFinalized,
				"receipt is already finalized").
				WithDetail("receipt_id", receiptID.String()).
				WithDetail("status", string(receipt.Status))
		}

		// Lines never touched still count fully short.
		for i := range receipt.Lines {
			line := &receipt.Lines[i]
			line.QuantityShort = shortQuantity(line.QuantityExpected, line.QuantityReceived)
		}
		receipt.RecalculateTotals()

		for _, line := range receipt.Lines {
			if !line.QuantityReceived.IsPositive() {
				continue
			}
			refID := receipt.ID
			_, err := s.stock.ApplyMovement(ctx, stock.ApplyMovementInput{
				ItemID:        line.ItemID,
				LocationID:    receipt.LocationID,
				Type:          stock.TypeReceipt,
				Quantity:      line.QuantityReceived,
				UnitCost:      line.UnitCost,
				ReferenceType: referenceType,
				ReferenceID:   &refID,
			})
			if err != nil {
				return fmt.Errorf("post line %s: %w", line.ID, err)
			}
		}

		if receipt.HasDiscrepancy() {
			receipt.Status = StatusDiscrepancy
		} else {
			receipt.Status = StatusComplete
		}
		receipt.Touch()

		return s.repo.Update(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "goods receipt completed",
		"receipt_id", receipt.ID,
		"number", receipt.Number,
		"status", receipt.Status,
		"total_received", receipt.TotalReceived,
	)

	return receipt, nil
}

// Update modifies a draft or partial receipt header.
func (s *Service) Update(ctx context.Context, receipt *GoodsReceipt) error {
	if err := receipt.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, receipt.ID)
		if err != nil {
			return err
		}
		if !current.Status.IsOpen() {
			return apperror.NewBusinessRule(apperror.CodeReceiptFinalized,
				"finalized receipts cannot be modified").
				WithDetail("receipt_id", receipt.ID.String()).
				WithDetail("status", string(current.Status))
		}

		receipt.RecalculateTotals()
		receipt.Touch()
		return s.repo.Update(ctx, receipt)
	})
}

// GetByID retrieves a receipt with lines.
func (s *Service) GetByID(ctx context.Context, receiptID id.ID) (*GoodsReceipt, error) {
	return s.repo.GetByID(ctx, receiptID)
}

// List retrieves receipts matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*GoodsReceipt], error) {
	return s.repo.List(ctx, filter)
}

// shortQuantity returns max(0, expected - received).
func shortQuantity(expected, received types.Quantity) types.Quantity {
	if received >= expected {
		return 0
	}
	return expected - received
}
