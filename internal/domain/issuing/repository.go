package issuing

import (
	"context"
	"time"

	"mercator/internal/core/id"
	"mercator/internal/domain"
)

// Repository defines persistence operations for stock issues.
type Repository interface {
	// Create inserts the issue document.
	Create(ctx context.Context, issue *StockIssue) error

	// GetByID retrieves the issue, apperror.NotFound if absent.
	GetByID(ctx context.Context, issueID id.ID) (*StockIssue, error)

	// GetForUpdate retrieves the issue with a row lock.
	// Must be called within a transaction.
	GetForUpdate(ctx context.Context, issueID id.ID) (*StockIssue, error)

	// Update persists the issue with an optimistic version check.
	Update(ctx context.Context, issue *StockIssue) error

	// List retrieves issues matching the filter.
	List(ctx context.Context, filter Filter) (domain.ListResult[*StockIssue], error)
}

// Filter for issue listings.
type Filter struct {
	ItemID       *id.ID
	LocationID   *id.ID
	DepartmentID *id.ID
	Status       *IssueStatus
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}
