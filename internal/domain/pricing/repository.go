package pricing

import (
	"context"
	"time"

	"mercator/internal/core/id"
)

// Repository defines persistence operations for pricing configuration.
type Repository interface {
	// Resolution queries

	// FindCustomerPricing returns active overrides for (customer, item)
	// whose validity window contains asOf, in no guaranteed order.
	// Quantity band filtering is the resolver's job.
	FindCustomerPricing(ctx context.Context, customerID, itemID id.ID, asOf time.Time) ([]CustomerPricing, error)

	// FindMarkupConfigs returns active configurations at the level whose
	// effective window contains asOf, in no guaranteed order. entityID is
	// nil for system level.
	FindMarkupConfigs(ctx context.Context, level MarkupLevel, entityID *id.ID, asOf time.Time) ([]MarkupConfiguration, error)

	// Markup configuration CRUD

	CreateMarkupConfig(ctx context.Context, cfg *MarkupConfiguration) error
	UpdateMarkupConfig(ctx context.Context, cfg *MarkupConfiguration) error
	GetMarkupConfig(ctx context.Context, cfgID id.ID) (*MarkupConfiguration, error)
	ListMarkupConfigs(ctx context.Context, filter MarkupConfigFilter) ([]MarkupConfiguration, error)
	DeleteMarkupConfig(ctx context.Context, cfgID id.ID) error

	// Customer pricing CRUD

	CreateCustomerPricing(ctx context.Context, cp *CustomerPricing) error
	UpdateCustomerPricing(ctx context.Context, cp *CustomerPricing) error
	GetCustomerPricing(ctx context.Context, cpID id.ID) (*CustomerPricing, error)
	ListCustomerPricing(ctx context.Context, filter CustomerPricingFilter) ([]CustomerPricing, error)
	DeleteCustomerPricing(ctx context.Context, cpID id.ID) error

	// Snapshot cache

	UpsertItemPricing(ctx context.Context, ip *ItemPricing) error
	GetItemPricing(ctx context.Context, itemID id.ID) (*ItemPricing, error)
}

// MarkupConfigFilter for configuration listings.
type MarkupConfigFilter struct {
	Level    *MarkupLevel
	EntityID *id.ID
	ActiveAt *time.Time
	Limit    int
	Offset   int
}

// CustomerPricingFilter for override listings.
type CustomerPricingFilter struct {
	CustomerID *id.ID
	ItemID     *id.ID
	ActiveAt   *time.Time
	Limit      int
	Offset     int
}
