package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mercator/internal/core/id"
	"mercator/internal/domain"
	"mercator/internal/domain/issuing"
	"mercator/internal/infrastructure/storage/postgres"
)

const stockIssuesTable = "doc_stock_issues"

// StockIssueRepo implements issuing.Repository.
type StockIssueRepo struct {
	*BaseDocumentRepo[*issuing.StockIssue]
}

// NewStockIssueRepo creates a new stock issue repository.
func NewStockIssueRepo(txm *postgres.TxManager) *StockIssueRepo {
	return &StockIssueRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			stockIssuesTable,
			postgres.ExtractDBColumns[issuing.StockIssue](),
			func() *issuing.StockIssue { return &issuing.StockIssue{} },
		),
	}
}

// Create inserts the issue document.
func (r *StockIssueRepo) Create(ctx context.Context, issue *issuing.StockIssue) error {
	return r.CreateHeader(ctx, issue)
}

// GetByID retrieves the issue.
func (r *StockIssueRepo) GetByID(ctx context.Context, issueID id.ID) (*issuing.StockIssue, error) {
	return r.GetHeader(ctx, issueID)
}

// GetForUpdate retrieves the issue with a row lock.
// Must be called within a transaction.
func (r *StockIssueRepo) GetForUpdate(ctx context.Context, issueID id.ID) (*issuing.StockIssue, error) {
	return r.GetHeaderForUpdate(ctx, issueID)
}

// Update persists the issue with an optimistic version check.
func (r *StockIssueRepo) Update(ctx context.Context, issue *issuing.StockIssue) error {
	return r.UpdateHeader(ctx, issue)
}

// List retrieves issues matching the filter.
func (r *StockIssueRepo) List(ctx context.Context, filter issuing.Filter) (domain.ListResult[*issuing.StockIssue], error) {
	result := domain.ListResult[*issuing.StockIssue]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.DepartmentID != nil {
		q = q.Where(squirrel.Eq{"department_id": *filter.DepartmentID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("date DESC", "number DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}

// Ensure interface compliance.
var _ issuing.Repository = (*StockIssueRepo)(nil)
