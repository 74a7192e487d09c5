package issuing

import (
	"context"
	"fmt"
	"time"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/tx"
	"mercator/internal/core/types"
	"mercator/internal/domain"
	"mercator/internal/domain/catalogs/item"
	"mercator/internal/domain/stock"
	"mercator/pkg/logger"
	"mercator/pkg/numerator"
)

// referenceType tags ledger entries posted by stock issues.
const referenceType = "stock_issue"

// ItemSource supplies item records for cost lookup.
type ItemSource interface {
	GetByID(ctx context.Context, itemID id.ID) (*item.InventoryItem, error)
}

// Service issues stock out of locations and cancels issues by posting
// reversing adjustments. Ledger entries are never deleted.
type Service struct {
	repo      Repository
	stock     *stock.Service
	items     ItemSource
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a stock issue service.
func NewService(repo Repository, stockSvc *stock.Service, items ItemSource, txManager tx.Manager, num *numerator.Service) *Service {
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		items:     items,
		txManager: txManager,
		numerator: num,
	}
}

// CreateInput describes a new stock issue.
type CreateInput struct {
	ItemID       id.ID
	LocationID   id.ID
	Quantity     types.Quantity
	IssueDate    time.Time
	IssuedTo     string
	DepartmentID *id.ID
	Reason       string
}

// Create posts the issue movement and persists the document in one
// transaction. Insufficient stock surfaces unchanged from the ledger.
func (s *Service) Create(ctx context.Context, in CreateInput) (*StockIssue, error) {
	issue := NewStockIssue(in.ItemID, in.LocationID, in.Quantity)
	issue.IssuedTo = in.IssuedTo
	issue.DepartmentID = in.DepartmentID
	issue.Reason = in.Reason
	if !in.IssueDate.IsZero() {
		issue.Date = in.IssueDate
	}

	if err := issue.Validate(ctx); err != nil {
		return nil, err
	}

	it, err := s.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	issue.UnitCost = it.SupplierCost

	// Number allocation runs inside the transaction so a failed issue
	// rolls the sequence back instead of leaving a gap.
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SIS"), nil, issue.Date)
		if err != nil {
			return fmt.Errorf("generate issue number: %w", err)
		}
		issue.Number = number

		refID := issue.ID
		movement, err := s.stock.ApplyMovement(ctx, stock.ApplyMovementInput{
			ItemID:        issue.ItemID,
			LocationID:    issue.LocationID,
			Type:          stock.TypeIssue,
			Quantity:      issue.Quantity,
			UnitCost:      issue.UnitCost,
			ReferenceType: referenceType,
			ReferenceID:   &refID,
		})
		if err != nil {
			return err
		}
		issue.MovementID = &movement.ID

		return s.repo.Create(ctx, issue)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock issue created",
		"issue_id", issue.ID,
		"number", issue.Number,
		"item_id", issue.ItemID,
		"quantity", issue.Quantity,
	)

	return issue, nil
}

// Update edits the descriptive fields of a non-cancelled issue: who the
// stock went to, the department, the reason, and the comment. Item,
// location, and quantity are fixed by the posted ledger entry.
func (s *Service) Update(ctx context.Context, issue *StockIssue) error {
	if err := issue.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, issue.ID)
		if err != nil {
			return err
		}
		if current.Status == StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeIssueCancelled,
				"cancelled issues cannot be modified").
				WithDetail("issue_id", issue.ID.String())
		}

		current.IssuedTo = issue.IssuedTo
		current.DepartmentID = issue.DepartmentID
		current.Reason = issue.Reason
		current.Comment = issue.Comment
		current.Touch()

		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		*issue = *current
		return nil
	})
}

// Cancel reverses an issue by posting a compensating adjustment and
// marking the document cancelled. The original ledger entry is never
// touched. Cancelling twice fails with ISSUE_ALREADY_CANCELLED.
func (s *Service) Cancel(ctx context.Context, issueID id.ID) (*StockIssue, error) {
	var issue *StockIssue
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		issue, err = s.repo.GetForUpdate(ctx, issueID)
		if err != nil {
			return err
		}

		if issue.Status == StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeIssueCancelled,
				"issue is already cancelled").
				WithDetail("issue_id", issueID.String())
		}

		refID := issue.ID
		reversal, err := s.stock.ApplyMovement(ctx, stock.ApplyMovementInput{
			ItemID:        issue.ItemID,
			LocationID:    issue.LocationID,
			Type:          stock.TypeAdjustment,
			Quantity:      issue.Quantity,
			UnitCost:      issue.UnitCost,
			ReferenceType: referenceType,
			ReferenceID:   &refID,
		})
		if err != nil {
			return fmt.Errorf("post reversal: %w", err)
		}

		issue.Status = StatusCancelled
		issue.ReversalMovementID = &reversal.ID
		issue.Touch()

		return s.repo.Update(ctx, issue)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock issue cancelled",
		"issue_id", issue.ID,
		"number", issue.Number,
		"reversal_movement_id", issue.ReversalMovementID,
	)

	return issue, nil
}

// GetByID retrieves an issue.
func (s *Service) GetByID(ctx context.Context, issueID id.ID) (*StockIssue, error) {
	return s.repo.GetByID(ctx, issueID)
}

// List retrieves issues matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*StockIssue], error) {
	return s.repo.List(ctx, filter)
}
