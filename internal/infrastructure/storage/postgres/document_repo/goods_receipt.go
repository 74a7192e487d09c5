package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mercator/internal/core/id"
	"mercator/internal/domain"
	"mercator/internal/domain/receiving"
	"mercator/internal/infrastructure/storage/postgres"
)

const (
	goodsReceiptsTable     = "doc_goods_receipts"
	goodsReceiptLinesTable = "doc_goods_receipt_lines"
)

var receiptLineCols = postgres.ExtractDBColumns[receiving.ReceiptLine]()

// GoodsReceiptRepo implements receiving.Repository.
// Header and lines are always written together; callers are expected to
// hold a transaction when mutating.
type GoodsReceiptRepo struct {
	*BaseDocumentRepo[*receiving.GoodsReceipt]
}

// NewGoodsReceiptRepo creates a new goods receipt repository.
func NewGoodsReceiptRepo(txm *postgres.TxManager) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			goodsReceiptsTable,
			postgres.ExtractDBColumns[receiving.GoodsReceipt](),
			func() *receiving.GoodsReceipt { return &receiving.GoodsReceipt{} },
		),
	}
}

// Create inserts the receipt with its lines.
func (r *GoodsReceiptRepo) Create(ctx context.Context, receipt *receiving.GoodsReceipt) error {
	if err := r.CreateHeader(ctx, receipt); err != nil {
		return err
	}
	return r.saveLines(ctx, receipt.ID, receipt.Lines)
}

// GetByID retrieves the receipt with lines.
func (r *GoodsReceiptRepo) GetByID(ctx context.Context, receiptID id.ID) (*receiving.GoodsReceipt, error) {
	receipt, err := r.GetHeader(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	receipt.Lines, err = r.getLines(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetForUpdate retrieves the receipt with a header row lock.
// Must be called within a transaction.
func (r *GoodsReceiptRepo) GetForUpdate(ctx context.Context, receiptID id.ID) (*receiving.GoodsReceipt, error) {
	receipt, err := r.GetHeaderForUpdate(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	receipt.Lines, err = r.getLines(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Update persists the header and lines with an optimistic version check.
func (r *GoodsReceiptRepo) Update(ctx context.Context, receipt *receiving.GoodsReceipt) error {
	if err := r.UpdateHeader(ctx, receipt); err != nil {
		return err
	}
	return r.saveLines(ctx, receipt.ID, receipt.Lines)
}

// List retrieves receipts (headers only) matching the filter.
func (r *GoodsReceiptRepo) List(ctx context.Context, filter receiving.Filter) (domain.ListResult[*receiving.GoodsReceipt], error) {
	result := domain.ListResult[*receiving.GoodsReceipt]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
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

func (r *GoodsReceiptRepo) getLines(ctx context.Context, receiptID id.ID) ([]receiving.ReceiptLine, error) {
	q := r.Builder().
		Select(receiptLineCols...).
		From(goodsReceiptLinesTable).
		Where(squirrel.Eq{"receipt_id": receiptID}).
		OrderBy("lpo_item_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []receiving.ReceiptLine
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// saveLines replaces lines for a receipt (delete existing + insert new).
func (r *GoodsReceiptRepo) saveLines(ctx context.Context, receiptID id.ID, lines []receiving.ReceiptLine) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + goodsReceiptLinesTable + " WHERE receipt_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, receiptID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(goodsReceiptLinesTable).
		Columns(receiptLineCols...)

	for _, line := range lines {
		data := postgres.StructToMap(line)
		values := make([]any, 0, len(receiptLineCols))
		for _, col := range receiptLineCols {
			values = append(values, data[col])
		}
		q = q.Values(values...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ receiving.Repository = (*GoodsReceiptRepo)(nil)
