package receiving

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain"
	"mercator/internal/domain/stock"
	"mercator/pkg/numerator"
)

// --- fakes ---

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeReceiptRepo struct {
	receipts map[id.ID]*GoodsReceipt
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: make(map[id.ID]*GoodsReceipt)}
}

func cloneReceipt(r *GoodsReceipt) *GoodsReceipt {
	cp := *r
	cp.Lines = append([]ReceiptLine(nil), r.Lines...)
	return &cp
}

func (r *fakeReceiptRepo) Create(ctx context.Context, receipt *GoodsReceipt) error {
	r.receipts[receipt.ID] = cloneReceipt(receipt)
	return nil
}

func (r *fakeReceiptRepo) GetByID(ctx context.Context, receiptID id.ID) (*GoodsReceipt, error) {
	if rec, ok := r.receipts[receiptID]; ok {
		return cloneReceipt(rec), nil
	}
	return nil, apperror.NewNotFound("goods receipt", receiptID.String())
}

func (r *fakeReceiptRepo) GetForUpdate(ctx context.Context, receiptID id.ID) (*GoodsReceipt, error) {
	return r.GetByID(ctx, receiptID)
}

func (r *fakeReceiptRepo) Update(ctx context.Context, receipt *GoodsReceipt) error {
	if _, ok := r.receipts[receipt.ID]; !ok {
		return apperror.NewNotFound("goods receipt", receipt.ID.String())
	}
	r.receipts[receipt.ID] = cloneReceipt(receipt)
	return nil
}

func (r *fakeReceiptRepo) List(ctx context.Context, filter Filter) (domain.ListResult[*GoodsReceipt], error) {
	var items []*GoodsReceipt
	for _, rec := range r.receipts {
		items = append(items, cloneReceipt(rec))
	}
	return domain.ListResult[*GoodsReceipt]{Items: items, TotalCount: int64(len(items))}, nil
}

// fakeStockRepo backs a real stock.Service.
type levelKey struct {
	item     id.ID
	location id.ID
}

type fakeStockRepo struct {
	levels    map[levelKey]*stock.Level
	movements []stock.Movement

	// failOnMovement makes CreateMovement fail after N successful inserts.
	failOnMovement int
	inserted       int
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{levels: make(map[levelKey]*stock.Level), failOnMovement: -1}
}

func (r *fakeStockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	if r.failOnMovement >= 0 && r.inserted >= r.failOnMovement {
		return errors.New("ledger write failed")
	}
	r.inserted++
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeStockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	return r.movements, nil
}

func (r *fakeStockRepo) GetMovementsByReference(ctx context.Context, refType string, refID id.ID) ([]stock.Movement, error) {
	var out []stock.Movement
	for _, m := range r.movements {
		if m.ReferenceType == refType && m.ReferenceID != nil && *m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) GetLevel(ctx context.Context, itemID, locationID id.ID) (*stock.Level, error) {
	if l, ok := r.levels[levelKey{itemID, locationID}]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, apperror.NewNotFound("inventory level", itemID.String())
}

func (r *fakeStockRepo) GetLevelForUpdate(ctx context.Context, itemID, locationID id.ID) (*stock.Level, error) {
	return r.GetLevel(ctx, itemID, locationID)
}

func (r *fakeStockRepo) UpsertLevel(ctx context.Context, level *stock.Level) error {
	cp := *level
	r.levels[levelKey{level.ItemID, level.LocationID}] = &cp
	return nil
}

func (r *fakeStockRepo) ListLevels(ctx context.Context, filter stock.LevelFilter) ([]stock.Level, error) {
	return nil, nil
}

func (r *fakeStockRepo) GetLevelsByItem(ctx context.Context, itemID id.ID) ([]stock.Level, error) {
	return nil, nil
}

func (r *fakeStockRepo) FindBelowReorder(ctx context.Context, locationID *id.ID) ([]stock.Level, error) {
	return nil, nil
}

// mock sequence querier for the numerator.
type mockRow struct{ val int64 }

func (m *mockRow) Scan(dest ...any) error {
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

type mockQuerier struct {
	mu  sync.Mutex
	val int64
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val++
	return &mockRow{val: m.val}
}

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

func newTestService() (*Service, *fakeReceiptRepo, *fakeStockRepo) {
	repo := newFakeReceiptRepo()
	stockRepo := newFakeStockRepo()
	txm := &fakeTxManager{}
	stockSvc := stock.NewService(stockRepo, txm)
	svc := NewService(repo, stockSvc, txm, numerator.New(&mockQuerier{}))
	return svc, repo, stockRepo
}

func draftInput(lines ...CreateLineInput) CreateInput {
	return CreateInput{
		SupplierID:  id.New(),
		LocationID:  id.New(),
		ReceiptDate: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
		Lines:       lines,
	}
}

// --- tests ---

func TestCreate_DraftWithNumber(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: id.New(), ItemID: id.New(), QuantityExpected: qty(10), UnitCost: types.MustMoney("3")},
		CreateLineInput{LpoItemID: id.New(), ItemID: id.New(), QuantityExpected: qty(4), UnitCost: types.MustMoney("8")},
	))
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, receipt.Status)
	assert.True(t, strings.HasPrefix(receipt.Number, "GRN-2026-"), "got %s", receipt.Number)
	assert.Equal(t, 2, receipt.TotalItems)
	assert.Equal(t, qty(14), receipt.TotalExpected)
	assert.Equal(t, qty(0), receipt.TotalReceived)
}

func TestCreate_RequiresLines(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), draftInput())
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordLineReceipt_DerivesShort(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	lpoItemID := id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpoItemID, ItemID: id.New(), QuantityExpected: qty(10), UnitCost: types.MustMoney("3")},
	))
	require.NoError(t, err)

	reason := "box crushed in transit"
	updated, err := svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID:        receipt.ID,
		LpoItemID:        lpoItemID,
		QuantityReceived: qty(7),
		QuantityDamaged:  qty(2),
		Condition:        ConditionDamaged,
		Reason:           &reason,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, updated.Status)
	line := updated.LineByLpoItem(lpoItemID)
	require.NotNil(t, line)
	assert.Equal(t, qty(7), line.QuantityReceived)
	assert.Equal(t, qty(2), line.QuantityDamaged)
	assert.Equal(t, qty(3), line.QuantityShort)
	assert.Equal(t, qty(7), updated.TotalReceived)
}

func TestRecordLineReceipt_NoNegativeShortOnOverDelivery(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	lpoItemID := id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpoItemID, ItemID: id.New(), QuantityExpected: qty(10)},
	))
	require.NoError(t, err)

	updated, err := svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpoItemID, QuantityReceived: qty(12),
	})
	require.NoError(t, err)
	assert.Equal(t, qty(0), updated.LineByLpoItem(lpoItemID).QuantityShort)
}

func TestRecordLineReceipt_DamagedExceedsReceived(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	lpoItemID := id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpoItemID, ItemID: id.New(), QuantityExpected: qty(10)},
	))
	require.NoError(t, err)

	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpoItemID,
		QuantityReceived: qty(3), QuantityDamaged: qty(4),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordLineReceipt_UnknownLine(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: id.New(), ItemID: id.New(), QuantityExpected: qty(10)},
	))
	require.NoError(t, err)

	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: id.New(), QuantityReceived: qty(1),
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestComplete_PostsMovementsAndCompletes(t *testing.T) {
	svc, _, stockRepo := newTestService()
	ctx := context.Background()
	lpo1, lpo2 := id.New(), id.New()
	item1, item2 := id.New(), id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpo1, ItemID: item1, QuantityExpected: qty(10), UnitCost: types.MustMoney("3")},
		CreateLineInput{LpoItemID: lpo2, ItemID: item2, QuantityExpected: qty(4), UnitCost: types.MustMoney("8")},
	))
	require.NoError(t, err)

	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpo1, QuantityReceived: qty(10),
	})
	require.NoError(t, err)
	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpo2, QuantityReceived: qty(4),
	})
	require.NoError(t, err)

	done, err := svc.Complete(ctx, receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusComplete, done.Status)
	assert.False(t, done.DiscrepancyFlag)
	require.Len(t, stockRepo.movements, 2)
	for _, m := range stockRepo.movements {
		assert.Equal(t, stock.TypeReceipt, m.Type)
		assert.Equal(t, referenceType, m.ReferenceType)
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, receipt.ID, *m.ReferenceID)
	}
}

func TestComplete_ShortLineYieldsDiscrepancy(t *testing.T) {
	svc, _, stockRepo := newTestService()
	ctx := context.Background()
	lpo1, lpo2 := id.New(), id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpo1, ItemID: id.New(), QuantityExpected: qty(10)},
		CreateLineInput{LpoItemID: lpo2, ItemID: id.New(), QuantityExpected: qty(4)},
	))
	require.NoError(t, err)

	// Only the first line arrives, and short at that.
	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpo1, QuantityReceived: qty(6),
	})
	require.NoError(t, err)

	done, err := svc.Complete(ctx, receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusDiscrepancy, done.Status)
	assert.True(t, done.DiscrepancyFlag)

	// Untouched line counts fully short; only received lines post.
	assert.Equal(t, qty(4), done.LineByLpoItem(lpo2).QuantityShort)
	assert.Len(t, stockRepo.movements, 1)
	assert.Equal(t, qty(6), stockRepo.movements[0].Quantity)
}

func TestComplete_OverReceiptYieldsDiscrepancy(t *testing.T) {
	svc, _, stockRepo := newTestService()
	ctx := context.Background()
	lpoItemID := id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpoItemID, ItemID: id.New(), QuantityExpected: qty(10)},
	))
	require.NoError(t, err)

	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpoItemID, QuantityReceived: qty(12),
	})
	require.NoError(t, err)

	done, err := svc.Complete(ctx, receipt.ID)
	require.NoError(t, err)

	// Over-shipments surface for resolution instead of reading clean.
	assert.Equal(t, StatusDiscrepancy, done.Status)
	assert.True(t, done.DiscrepancyFlag)
	assert.Equal(t, qty(0), done.LineByLpoItem(lpoItemID).QuantityShort)

	// The goods physically arrived, so the full quantity still posts.
	require.Len(t, stockRepo.movements, 1)
	assert.Equal(t, qty(12), stockRepo.movements[0].Quantity)
}

func TestComplete_IsIdempotentViaStatusGuard(t *testing.T) {
	svc, _, stockRepo := newTestService()
	ctx := context.Background()
	lpoItemID := id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpoItemID, ItemID: id.New(), QuantityExpected: qty(10)},
	))
	require.NoError(t, err)
	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpoItemID, QuantityReceived: qty(10),
	})
	require.NoError(t, err)

	_, err = svc.Complete(ctx, receipt.ID)
	require.NoError(t, err)
	require.Len(t, stockRepo.movements, 1)

	// A second finalize must fail and must not post again.
	_, err = svc.Complete(ctx, receipt.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeReceiptFinalized))
	assert.Len(t, stockRepo.movements, 1)
}

func TestComplete_LedgerFailureAbortsFinalize(t *testing.T) {
	svc, repo, stockRepo := newTestService()
	ctx := context.Background()
	lpo1, lpo2 := id.New(), id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpo1, ItemID: id.New(), QuantityExpected: qty(10)},
		CreateLineInput{LpoItemID: lpo2, ItemID: id.New(), QuantityExpected: qty(4)},
	))
	require.NoError(t, err)
	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpo1, QuantityReceived: qty(10),
	})
	require.NoError(t, err)
	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpo2, QuantityReceived: qty(4),
	})
	require.NoError(t, err)

	// Second ledger insert blows up mid-finalize.
	stockRepo.failOnMovement = 1

	_, err = svc.Complete(ctx, receipt.ID)
	require.Error(t, err)

	// The header was never advanced, so the finalize can be retried.
	stored, err := repo.GetByID(ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.IsOpen())
}

func TestUpdate_RejectedAfterFinalize(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	lpoItemID := id.New()

	receipt, err := svc.Create(ctx, draftInput(
		CreateLineInput{LpoItemID: lpoItemID, ItemID: id.New(), QuantityExpected: qty(10)},
	))
	require.NoError(t, err)
	_, err = svc.RecordLineReceipt(ctx, RecordLineInput{
		ReceiptID: receipt.ID, LpoItemID: lpoItemID, QuantityReceived: qty(10),
	})
	require.NoError(t, err)
	done, err := svc.Complete(ctx, receipt.ID)
	require.NoError(t, err)

	done.Comment = "late edit"
	err = svc.Update(ctx, done)
	assert.True(t, apperror.IsCode(err, apperror.CodeReceiptFinalized))
}
