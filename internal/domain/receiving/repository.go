package receiving

import (
	"context"
	"time"

	"mercator/internal/core/id"
	"mercator/internal/domain"
)

// Repository defines persistence operations for goods receipts.
// All write methods persist the header and its lines together.
type Repository interface {
	// Create inserts the receipt with its lines.
	Create(ctx context.Context, receipt *GoodsReceipt) error

	// GetByID retrieves the receipt with lines, apperror.NotFound if absent.
	GetByID(ctx context.Context, receiptID id.ID) (*GoodsReceipt, error)

	// GetForUpdate retrieves the receipt with a header row lock.
	// Must be called within a transaction.
	GetForUpdate(ctx context.Context, receiptID id.ID) (*GoodsReceipt, error)

	// Update persists the header and lines with an optimistic version
	// check; apperror.ConcurrentModification on version mismatch.
	Update(ctx context.Context, receipt *GoodsReceipt) error

	// List retrieves receipts (headers only) matching the filter.
	List(ctx context.Context, filter Filter) (domain.ListResult[*GoodsReceipt], error)
}

// Filter for receipt listings.
type Filter struct {
	SupplierID *id.ID
	LocationID *id.ID
	Status     *ReceiptStatus
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
