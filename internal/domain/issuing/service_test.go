package issuing

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain"
	"mercator/internal/domain/catalogs/item"
	"mercator/internal/domain/stock"
	"mercator/pkg/numerator"
)

// --- fakes ---

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeIssueRepo struct {
	issues map[id.ID]*StockIssue
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[id.ID]*StockIssue)}
}

func (r *fakeIssueRepo) Create(ctx context.Context, issue *StockIssue) error {
	cp := *issue
	r.issues[issue.ID] = &cp
	return nil
}

func (r *fakeIssueRepo) GetByID(ctx context.Context, issueID id.ID) (*StockIssue, error) {
	if iss, ok := r.issues[issueID]; ok {
		cp := *iss
		return &cp, nil
	}
	return nil, apperror.NewNotFound("stock issue", issueID.String())
}

func (r *fakeIssueRepo) GetForUpdate(ctx context.Context, issueID id.ID) (*StockIssue, error) {
	return r.GetByID(ctx, issueID)
}

func (r *fakeIssueRepo) Update(ctx context.Context, issue *StockIssue) error {
	if _, ok := r.issues[issue.ID]; !ok {
		return apperror.NewNotFound("stock issue", issue.ID.String())
	}
	cp := *issue
	r.issues[issue.ID] = &cp
	return nil
}

func (r *fakeIssueRepo) List(ctx context.Context, filter Filter) (domain.ListResult[*StockIssue], error) {
	var items []*StockIssue
	for _, iss := range r.issues {
		cp := *iss
		items = append(items, &cp)
	}
	return domain.ListResult[*StockIssue]{Items: items, TotalCount: int64(len(items))}, nil
}

type levelKey struct {
	item     id.ID
	location id.ID
}

type fakeStockRepo struct {
	levels    map[levelKey]*stock.Level
	movements []stock.Movement
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{levels: make(map[levelKey]*stock.Level)}
}

func (r *fakeStockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
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

type fakeItems struct {
	byID map[id.ID]*item.InventoryItem
}

func (f *fakeItems) GetByID(ctx context.Context, itemID id.ID) (*item.InventoryItem, error) {
	if it, ok := f.byID[itemID]; ok {
		return it, nil
	}
	return nil, apperror.NewNotFound("inventory item", itemID.String())
}

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

type testEnv struct {
	svc       *Service
	stockSvc  *stock.Service
	stockRepo *fakeStockRepo
	itemID    id.ID
	locID     id.ID
}

func newTestEnv(t *testing.T, onHand float64) *testEnv {
	t.Helper()

	it := item.NewInventoryItem("SUP-042", "Gloves", "pair")
	it.SupplierCost = types.MustMoney("2.50")

	stockRepo := newFakeStockRepo()
	txm := &fakeTxManager{}
	stockSvc := stock.NewService(stockRepo, txm)
	svc := NewService(newFakeIssueRepo(), stockSvc, &fakeItems{
		byID: map[id.ID]*item.InventoryItem{it.ID: it},
	}, txm, numerator.New(&mockQuerier{}))

	env := &testEnv{svc: svc, stockSvc: stockSvc, stockRepo: stockRepo, itemID: it.ID, locID: id.New()}

	if onHand > 0 {
		_, err := stockSvc.ApplyMovement(context.Background(), stock.ApplyMovementInput{
			ItemID: it.ID, LocationID: env.locID, Type: stock.TypeReceipt, Quantity: qty(onHand),
		})
		require.NoError(t, err)
	}
	return env
}

// --- tests ---

func TestCreate_IssuesStock(t *testing.T) {
	env := newTestEnv(t, 20)
	ctx := context.Background()

	issue, err := env.svc.Create(ctx, CreateInput{
		ItemID:     env.itemID,
		LocationID: env.locID,
		Quantity:   qty(8),
		IssuedTo:   "j.mwangi",
		Reason:     "ward consumables",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusIssued, issue.Status)
	assert.True(t, strings.HasPrefix(issue.Number, "SIS-"), "got %s", issue.Number)
	require.NotNil(t, issue.MovementID)
	assert.True(t, issue.UnitCost.Equal(types.MustMoney("2.50")))

	level, err := env.stockSvc.GetLevel(ctx, env.itemID, env.locID)
	require.NoError(t, err)
	assert.Equal(t, qty(12), level.QuantityAvailable)
}

func TestCreate_InsufficientStock(t *testing.T) {
	env := newTestEnv(t, 5)

	_, err := env.svc.Create(context.Background(), CreateInput{
		ItemID:     env.itemID,
		LocationID: env.locID,
		Quantity:   qty(6),
		IssuedTo:   "j.mwangi",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateInput{
		ItemID: env.itemID, LocationID: env.locID, Quantity: qty(0), IssuedTo: "x",
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = env.svc.Create(ctx, CreateInput{
		ItemID: env.itemID, LocationID: env.locID, Quantity: qty(1),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestUpdate_EditsDescriptiveFieldsOnly(t *testing.T) {
	env := newTestEnv(t, 20)
	ctx := context.Background()

	issue, err := env.svc.Create(ctx, CreateInput{
		ItemID: env.itemID, LocationID: env.locID, Quantity: qty(8), IssuedTo: "j.mwangi",
	})
	require.NoError(t, err)

	loaded, err := env.svc.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	deptID := id.New()
	loaded.IssuedTo = "a.otieno"
	loaded.DepartmentID = &deptID
	loaded.Reason = "handover to night shift"
	loaded.Quantity = qty(999) // must not stick

	require.NoError(t, env.svc.Update(ctx, loaded))

	stored, err := env.svc.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.otieno", stored.IssuedTo)
	require.NotNil(t, stored.DepartmentID)
	assert.Equal(t, deptID, *stored.DepartmentID)
	assert.Equal(t, "handover to night shift", stored.Reason)
	assert.Equal(t, qty(8), stored.Quantity)

	// Header edits never touch the ledger.
	level, err := env.stockSvc.GetLevel(ctx, env.itemID, env.locID)
	require.NoError(t, err)
	assert.Equal(t, qty(12), level.QuantityAvailable)
}

func TestUpdate_RejectedWhenCancelled(t *testing.T) {
	env := newTestEnv(t, 20)
	ctx := context.Background()

	issue, err := env.svc.Create(ctx, CreateInput{
		ItemID: env.itemID, LocationID: env.locID, Quantity: qty(3), IssuedTo: "j.mwangi",
	})
	require.NoError(t, err)
	_, err = env.svc.Cancel(ctx, issue.ID)
	require.NoError(t, err)

	loaded, err := env.svc.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	loaded.Reason = "late edit"
	err = env.svc.Update(ctx, loaded)
	assert.True(t, apperror.IsCode(err, apperror.CodeIssueCancelled))
}

func TestCancel_PostsReversal(t *testing.T) {
	env := newTestEnv(t, 20)
	ctx := context.Background()

	issue, err := env.svc.Create(ctx, CreateInput{
		ItemID: env.itemID, LocationID: env.locID, Quantity: qty(8), IssuedTo: "j.mwangi",
	})
	require.NoError(t, err)

	cancelled, err := env.svc.Cancel(ctx, issue.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.ReversalMovementID)

	// Stock is restored by a new adjustment entry; the original issue
	// entry is untouched.
	level, err := env.stockSvc.GetLevel(ctx, env.itemID, env.locID)
	require.NoError(t, err)
	assert.Equal(t, qty(20), level.QuantityAvailable)

	history, err := env.stockRepo.GetMovementsByReference(ctx, referenceType, issue.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, stock.TypeIssue, history[0].Type)
	assert.Equal(t, stock.TypeAdjustment, history[1].Type)
	assert.Equal(t, qty(8), history[1].Quantity)
}

func TestCancel_TwiceFails(t *testing.T) {
	env := newTestEnv(t, 20)
	ctx := context.Background()

	issue, err := env.svc.Create(ctx, CreateInput{
		ItemID: env.itemID, LocationID: env.locID, Quantity: qty(3), IssuedTo: "j.mwangi",
	})
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, issue.ID)
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, issue.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeIssueCancelled))

	// Level unchanged by the failed second cancel.
	level, err := env.stockSvc.GetLevel(ctx, env.itemID, env.locID)
	require.NoError(t, err)
	assert.Equal(t, qty(20), level.QuantityAvailable)
}

func TestCancel_UnknownIssue(t *testing.T) {
	env := newTestEnv(t, 0)
	_, err := env.svc.Cancel(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
