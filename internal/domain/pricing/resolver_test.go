package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator/internal/core/apperror"
	"mercator/internal/core/entity"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain/catalogs/item"
)

// --- fakes ---

type fakeItems struct {
	byID map[id.ID]*item.InventoryItem
}

func (f *fakeItems) GetByID(ctx context.Context, itemID id.ID) (*item.InventoryItem, error) {
	if it, ok := f.byID[itemID]; ok {
		return it, nil
	}
	return nil, apperror.NewNotFound("inventory item", itemID.String())
}

type fakePricingRepo struct {
	customer []CustomerPricing
	markups  []MarkupConfiguration
}

func (r *fakePricingRepo) FindCustomerPricing(ctx context.Context, customerID, itemID id.ID, asOf time.Time) ([]CustomerPricing, error) {
	var out []CustomerPricing
	for _, cp := range r.customer {
		if cp.CustomerID == customerID && cp.ItemID == itemID {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *fakePricingRepo) FindMarkupConfigs(ctx context.Context, level MarkupLevel, entityID *id.ID, asOf time.Time) ([]MarkupConfiguration, error) {
	var out []MarkupConfiguration
	for _, cfg := range r.markups {
		if cfg.Level != level {
			continue
		}
		if level == LevelSystem {
			out = append(out, cfg)
			continue
		}
		if cfg.EntityID != nil && entityID != nil && *cfg.EntityID == *entityID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (r *fakePricingRepo) CreateMarkupConfig(ctx context.Context, cfg *MarkupConfiguration) error {
	r.markups = append(r.markups, *cfg)
	return nil
}
func (r *fakePricingRepo) UpdateMarkupConfig(ctx context.Context, cfg *MarkupConfiguration) error {
	return nil
}
func (r *fakePricingRepo) GetMarkupConfig(ctx context.Context, cfgID id.ID) (*MarkupConfiguration, error) {
	return nil, apperror.NewNotFound("markup configuration", cfgID.String())
}
func (r *fakePricingRepo) ListMarkupConfigs(ctx context.Context, filter MarkupConfigFilter) ([]MarkupConfiguration, error) {
	return r.markups, nil
}
func (r *fakePricingRepo) DeleteMarkupConfig(ctx context.Context, cfgID id.ID) error { return nil }

func (r *fakePricingRepo) CreateCustomerPricing(ctx context.Context, cp *CustomerPricing) error {
	r.customer = append(r.customer, *cp)
	return nil
}
func (r *fakePricingRepo) UpdateCustomerPricing(ctx context.Context, cp *CustomerPricing) error {
	return nil
}
func (r *fakePricingRepo) GetCustomerPricing(ctx context.Context, cpID id.ID) (*CustomerPricing, error) {
	return nil, apperror.NewNotFound("customer pricing", cpID.String())
}
func (r *fakePricingRepo) ListCustomerPricing(ctx context.Context, filter CustomerPricingFilter) ([]CustomerPricing, error) {
	return r.customer, nil
}
func (r *fakePricingRepo) DeleteCustomerPricing(ctx context.Context, cpID id.ID) error { return nil }

func (r *fakePricingRepo) UpsertItemPricing(ctx context.Context, ip *ItemPricing) error { return nil }
func (r *fakePricingRepo) GetItemPricing(ctx context.Context, itemID id.ID) (*ItemPricing, error) {
	return nil, apperror.NewNotFound("item pricing", itemID.String())
}

// --- helpers ---

var asOf = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func money(s string) types.Money     { return types.MustMoney(s) }
func percent(s string) types.Percent { return types.MustMoney(s) }
func q(f float64) types.Quantity     { return types.NewQuantityFromFloat64(f) }

func testItem(cost string) (*item.InventoryItem, id.ID, id.ID) {
	catID := id.New()
	it := item.NewInventoryItem("SUP-001", "Widget", "pcs")
	it.CategoryID = &catID
	it.SupplierCost = money(cost)
	return it, it.ID, catID
}

func markupCfg(level MarkupLevel, entityID *id.ID, retail, wholesale string, from time.Time) MarkupConfiguration {
	return MarkupConfiguration{
		BaseEntity:      entity.NewBaseEntity(),
		Level:           level,
		EntityID:        entityID,
		RetailMarkup:    percent(retail),
		WholesaleMarkup: percent(wholesale),
		EffectiveFrom:   from,
		IsActive:        true,
	}
}

func setup(cost string) (*Resolver, *fakePricingRepo, id.ID, id.ID) {
	it, itemID, catID := testItem(cost)
	repo := &fakePricingRepo{}
	items := &fakeItems{byID: map[id.ID]*item.InventoryItem{itemID: it}}
	return NewResolver(repo, items), repo, itemID, catID
}

// --- tests ---

func TestResolvePrice_CategoryWinsOverSystem(t *testing.T) {
	resolver, repo, itemID, catID := setup("100")
	year := asOf.AddDate(-1, 0, 0)

	repo.markups = []MarkupConfiguration{
		markupCfg(LevelSystem, nil, "70", "40", year),
		markupCfg(LevelCategory, &catID, "50", "30", year),
	}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerID: id.New(), CustomerType: CustomerRetail,
		Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("150")), "got %s", res.UnitPrice)
	assert.Equal(t, "category", res.AppliedLevel)
}

func TestResolvePrice_CustomerWinsOverCategory(t *testing.T) {
	resolver, repo, itemID, catID := setup("100")
	customerID := id.New()
	year := asOf.AddDate(-1, 0, 0)

	repo.markups = []MarkupConfiguration{
		markupCfg(LevelSystem, nil, "70", "40", year),
		markupCfg(LevelCategory, &catID, "50", "30", year),
	}
	special := money("120")
	repo.customer = []CustomerPricing{{
		BaseEntity:   entity.NewBaseEntity(),
		CustomerID:   customerID,
		ItemID:       itemID,
		SpecialPrice: &special,
		ValidFrom:    year,
		IsActive:     true,
	}}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerID: customerID, CustomerType: CustomerRetail,
		Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("120")), "got %s", res.UnitPrice)
	assert.Equal(t, "customer", res.AppliedLevel)
	assert.True(t, res.MarkupPercent.Equal(percent("20")))
}

func TestResolvePrice_ItemLevelWinsOverCategory(t *testing.T) {
	resolver, repo, itemID, catID := setup("100")
	year := asOf.AddDate(-1, 0, 0)

	repo.markups = []MarkupConfiguration{
		markupCfg(LevelCategory, &catID, "50", "30", year),
		markupCfg(LevelItem, &itemID, "25", "15", year),
	}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("125")))
	assert.Equal(t, "item", res.AppliedLevel)
}

func TestResolvePrice_WholesaleColumn(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	repo.markups = []MarkupConfiguration{
		markupCfg(LevelSystem, nil, "70", "40", asOf.AddDate(-1, 0, 0)),
	}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerType: CustomerWholesale, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("140")))
	assert.True(t, res.MarkupPercent.Equal(percent("40")))
}

func TestResolvePrice_FallbackToItemDefaults(t *testing.T) {
	it, itemID, _ := testItem("100")
	it.DefaultRetailMarkup = percent("10")
	it.DefaultWholesaleMarkup = percent("5")
	repo := &fakePricingRepo{}
	resolver := NewResolver(repo, &fakeItems{byID: map[id.ID]*item.InventoryItem{itemID: it}})

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("110")))
	assert.Equal(t, "item_default", res.AppliedLevel)
}

func TestResolvePrice_LatestEffectiveFromWins(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	repo.markups = []MarkupConfiguration{
		markupCfg(LevelItem, &itemID, "20", "10", asOf.AddDate(-2, 0, 0)),
		markupCfg(LevelItem, &itemID, "30", "20", asOf.AddDate(0, -1, 0)),
	}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("130")))
}

func TestResolvePrice_SupersededTieDoesNotBlockLatest(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	old := asOf.AddDate(-2, 0, 0)

	// Two superseded configs share an old effectiveFrom; the unique
	// newer one wins regardless of the order rows come back in.
	repo.markups = []MarkupConfiguration{
		markupCfg(LevelItem, &itemID, "20", "10", old),
		markupCfg(LevelItem, &itemID, "25", "15", old),
		markupCfg(LevelItem, &itemID, "30", "20", asOf.AddDate(0, -1, 0)),
	}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("130")), "got %s", res.UnitPrice)
}

func TestResolvePrice_CustomerSupersededTieIgnored(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	customerID := id.New()
	old := asOf.AddDate(-2, 0, 0)

	oldPrice, newPrice := money("80"), money("95")
	repo.customer = []CustomerPricing{
		{BaseEntity: entity.NewBaseEntity(), CustomerID: customerID, ItemID: itemID,
			SpecialPrice: &oldPrice, ValidFrom: old, IsActive: true},
		{BaseEntity: entity.NewBaseEntity(), CustomerID: customerID, ItemID: itemID,
			SpecialPrice: &oldPrice, ValidFrom: old, IsActive: true},
		{BaseEntity: entity.NewBaseEntity(), CustomerID: customerID, ItemID: itemID,
			SpecialPrice: &newPrice, ValidFrom: asOf.AddDate(0, -1, 0), IsActive: true},
	}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerID: customerID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.Equal(t, "customer", res.AppliedLevel)
	assert.True(t, res.UnitPrice.Equal(money("95")), "got %s", res.UnitPrice)
}

func TestResolvePrice_AmbiguousTieFails(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	from := asOf.AddDate(0, -1, 0)
	repo.markups = []MarkupConfiguration{
		markupCfg(LevelItem, &itemID, "20", "10", from),
		markupCfg(LevelItem, &itemID, "30", "20", from),
	}

	_, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), AsOf: asOf,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAmbiguousConfiguration))
}

func TestResolvePrice_ExpiredConfigIgnored(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	from := asOf.AddDate(-1, 0, 0)
	to := asOf.AddDate(0, -1, 0)
	cfg := markupCfg(LevelItem, &itemID, "20", "10", from)
	cfg.EffectiveTo = &to
	repo.markups = []MarkupConfiguration{
		cfg,
		markupCfg(LevelSystem, nil, "70", "40", from),
	}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.Equal(t, "system", res.AppliedLevel)
	assert.True(t, res.UnitPrice.Equal(money("170")))
}

func TestResolvePrice_QuantityBandFiltersOverride(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	customerID := id.New()
	year := asOf.AddDate(-1, 0, 0)
	special := money("90")
	minQ, maxQ := q(10), q(100)
	repo.customer = []CustomerPricing{{
		BaseEntity:   entity.NewBaseEntity(),
		CustomerID:   customerID,
		ItemID:       itemID,
		SpecialPrice: &special,
		MinQuantity:  &minQ,
		MaxQuantity:  &maxQ,
		ValidFrom:    year,
		IsActive:     true,
	}}
	repo.markups = []MarkupConfiguration{
		markupCfg(LevelSystem, nil, "70", "40", year),
	}

	// Inside the band: override applies.
	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerID: customerID, Quantity: q(50), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.Equal(t, "customer", res.AppliedLevel)
	assert.True(t, res.UnitPrice.Equal(money("90")))

	// Below the band: falls through to system markup.
	res, err = resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerID: customerID, Quantity: q(5), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.Equal(t, "system", res.AppliedLevel)
}

func TestResolvePrice_DiscountOverride(t *testing.T) {
	resolver, repo, itemID, _ := setup("100")
	customerID := id.New()
	discount := percent("-15")
	repo.customer = []CustomerPricing{{
		BaseEntity:      entity.NewBaseEntity(),
		CustomerID:      customerID,
		ItemID:          itemID,
		DiscountPercent: &discount,
		ValidFrom:       asOf.AddDate(-1, 0, 0),
		IsActive:        true,
	}}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerID: customerID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("85")), "got %s", res.UnitPrice)
	assert.Equal(t, "customer", res.AppliedLevel)
}

func TestResolvePrice_NoCostBasisFails(t *testing.T) {
	resolver, repo, itemID, _ := setup("0")
	repo.markups = []MarkupConfiguration{
		markupCfg(LevelSystem, nil, "70", "40", asOf.AddDate(-1, 0, 0)),
	}

	_, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), AsOf: asOf,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}

func TestResolvePrice_SpecialPriceIgnoresCostBasis(t *testing.T) {
	resolver, repo, itemID, _ := setup("0")
	customerID := id.New()
	special := money("42")
	repo.customer = []CustomerPricing{{
		BaseEntity:   entity.NewBaseEntity(),
		CustomerID:   customerID,
		ItemID:       itemID,
		SpecialPrice: &special,
		ValidFrom:    asOf.AddDate(-1, 0, 0),
		IsActive:     true,
	}}

	res, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, CustomerID: customerID, Quantity: q(1), AsOf: asOf,
	})
	require.NoError(t, err)
	assert.True(t, res.UnitPrice.Equal(money("42")))
}

func TestResolvePrice_RejectsBadInput(t *testing.T) {
	resolver, _, itemID, _ := setup("100")

	_, err := resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(0), AsOf: asOf,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: itemID, Quantity: q(1), CustomerType: "vip", AsOf: asOf,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = resolver.ResolvePrice(context.Background(), ResolveInput{
		ItemID: id.New(), Quantity: q(1), AsOf: asOf,
	})
	assert.True(t, apperror.IsNotFound(err))
}
