package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
)

// --- fakes ---

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type levelKey struct {
	item     id.ID
	location id.ID
}

type fakeRepo struct {
	levels    map[levelKey]*Level
	movements []Movement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{levels: make(map[levelKey]*Level)}
}

func (r *fakeRepo) CreateMovement(ctx context.Context, m *Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return r.movements, nil
}

func (r *fakeRepo) GetMovementsByReference(ctx context.Context, refType string, refID id.ID) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.ReferenceType == refType && m.ReferenceID != nil && *m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetLevel(ctx context.Context, itemID, locationID id.ID) (*Level, error) {
	if l, ok := r.levels[levelKey{itemID, locationID}]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, apperror.NewNotFound("inventory level", itemID.String())
}

func (r *fakeRepo) GetLevelForUpdate(ctx context.Context, itemID, locationID id.ID) (*Level, error) {
	return r.GetLevel(ctx, itemID, locationID)
}

func (r *fakeRepo) UpsertLevel(ctx context.Context, level *Level) error {
	cp := *level
	r.levels[levelKey{level.ItemID, level.LocationID}] = &cp
	return nil
}

func (r *fakeRepo) ListLevels(ctx context.Context, filter LevelFilter) ([]Level, error) {
	var out []Level
	for _, l := range r.levels {
		out = append(out, *l)
	}
	return out, nil
}

func (r *fakeRepo) GetLevelsByItem(ctx context.Context, itemID id.ID) ([]Level, error) {
	var out []Level
	for k, l := range r.levels {
		if k.item == itemID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindBelowReorder(ctx context.Context, locationID *id.ID) ([]Level, error) {
	var out []Level
	for _, l := range r.levels {
		if l.BelowReorder() {
			out = append(out, *l)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, &fakeTxManager{}), repo
}

func qty(f float64) types.Quantity { return types.NewQuantityFromFloat64(f) }

// --- tests ---

func TestApplyMovement_ReceiptCreatesLevelLazily(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	m, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID:     itemID,
		LocationID: locID,
		Type:       TypeReceipt,
		Quantity:   qty(10),
		UnitCost:   types.MustMoney("4.50"),
	})
	require.NoError(t, err)

	assert.Equal(t, qty(0), m.QuantityBefore)
	assert.Equal(t, qty(10), m.QuantityAfter)
	assert.True(t, m.TotalValue.Equal(types.MustMoney("45")))

	level, err := svc.GetLevel(ctx, itemID, locID)
	require.NoError(t, err)
	assert.Equal(t, qty(10), level.QuantityAvailable)
	assert.Equal(t, qty(0), level.QuantityReserved)
	assert.Len(t, repo.movements, 1)
}

func TestApplyMovement_BeforeAfterEquation(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	steps := []struct {
		mtype MovementType
		q     types.Quantity
	}{
		{TypeReceipt, qty(100)},
		{TypeIssue, qty(30)},
		{TypeReturn, qty(5)},
		{TypeAdjustment, qty(-2.5)},
		{TypeTransfer, qty(10)},
	}

	for _, st := range steps {
		_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
			ItemID: itemID, LocationID: locID, Type: st.mtype, Quantity: st.q,
		})
		require.NoError(t, err)
	}

	// Every entry satisfies after = before + signed quantity, and entries chain.
	var prev types.Quantity
	for i, m := range repo.movements {
		assert.Equal(t, m.QuantityBefore+m.SignedQuantity(), m.QuantityAfter, "entry %d", i)
		assert.Equal(t, prev, m.QuantityBefore, "entry %d chains", i)
		prev = m.QuantityAfter
	}
	assert.Equal(t, qty(62.5), prev)
}

func TestApplyMovement_InsufficientStock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeReceipt, Quantity: qty(5),
	})
	require.NoError(t, err)

	_, err = svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeIssue, Quantity: qty(6),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// Level untouched after the failed issue.
	level, err := svc.GetLevel(ctx, itemID, locID)
	require.NoError(t, err)
	assert.Equal(t, qty(5), level.QuantityAvailable)
}

func TestApplyMovement_ReservedStockCannotBeIssued(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeReceipt, Quantity: qty(10),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Reserve(ctx, itemID, locID, qty(8)))

	_, err = svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeIssue, Quantity: qty(5),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestApplyMovement_NegativeAdjustmentGuard(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeReceipt, Quantity: qty(3),
	})
	require.NoError(t, err)

	_, err = svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeAdjustment, Quantity: qty(-4),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestApplyMovement_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: id.New(), LocationID: id.New(), Type: "teleport", Quantity: qty(1),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: id.New(), LocationID: id.New(), Type: TypeReceipt, Quantity: qty(-1),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: id.New(), LocationID: id.New(), Type: TypeAdjustment, Quantity: qty(0),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestReserveRelease_Accounting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeReceipt, Quantity: qty(20),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(ctx, itemID, locID, qty(12)))

	level, err := svc.GetLevel(ctx, itemID, locID)
	require.NoError(t, err)
	assert.Equal(t, qty(8), level.QuantityAvailable)
	assert.Equal(t, qty(12), level.QuantityReserved)
	assert.Equal(t, qty(20), level.OnHand())

	// Reserving beyond available fails.
	err = svc.Reserve(ctx, itemID, locID, qty(9))
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// Releasing more than reserved fails.
	err = svc.Release(ctx, itemID, locID, qty(13))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	require.NoError(t, svc.Release(ctx, itemID, locID, qty(12)))
	level, err = svc.GetLevel(ctx, itemID, locID)
	require.NoError(t, err)
	assert.Equal(t, qty(20), level.QuantityAvailable)
	assert.Equal(t, qty(0), level.QuantityReserved)
}

func TestReserve_UnknownLevelIsInsufficient(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Reserve(context.Background(), id.New(), id.New(), qty(1))
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestGetItemAvailability_SumsLocations(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	itemID := id.New()

	for _, q := range []float64{5, 7.5} {
		_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
			ItemID: itemID, LocationID: id.New(), Type: TypeReceipt, Quantity: qty(q),
		})
		require.NoError(t, err)
	}

	total, err := svc.GetItemAvailability(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, qty(12.5), total)
}

func TestFindBelowReorder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeReceipt, Quantity: qty(4),
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetReorderLevels(ctx, itemID, locID, qty(5), qty(50)))

	low, err := svc.FindBelowReorder(ctx, nil)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, itemID, low[0].ItemID)

	// Top up above the reorder point.
	_, err = svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeReceipt, Quantity: qty(10),
	})
	require.NoError(t, err)

	low, err = svc.FindBelowReorder(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestLevelUpdatedAtAdvances(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	itemID, locID := id.New(), id.New()

	before := time.Now().UTC().Add(-time.Second)
	_, err := svc.ApplyMovement(ctx, ApplyMovementInput{
		ItemID: itemID, LocationID: locID, Type: TypeReceipt, Quantity: qty(1),
	})
	require.NoError(t, err)

	level, err := svc.GetLevel(ctx, itemID, locID)
	require.NoError(t, err)
	assert.True(t, level.UpdatedAt.After(before))
}
