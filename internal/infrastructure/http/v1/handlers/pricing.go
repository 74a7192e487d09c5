package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"mercator/internal/core/apperror"
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain/pricing"
	"mercator/internal/infrastructure/http/v1/dto"
)

// PricingHandler handles price resolution and configuration endpoints.
type PricingHandler struct {
	*BaseHandler
	service *pricing.Service
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(service *pricing.Service) *PricingHandler {
	return &PricingHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Resolve handles GET /pricing/resolve.
func (h *PricingHandler) Resolve(c *gin.Context) {
	itemIDStr := c.Query("itemId")
	if itemIDStr == "" {
		h.Error(c, apperror.NewValidation("itemId is required").WithDetail("param", "itemId"))
		return
	}
	itemID, err := id.Parse(itemIDStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", "itemId").WithDetail("value", itemIDStr))
		return
	}

	in := pricing.ResolveInput{
		ItemID:       itemID,
		CustomerType: pricing.CustomerType(c.Query("customerType")),
		Quantity:     types.NewQuantityFromFloat64(1),
	}

	if customerID, ok := h.ParseIDQuery(c, "customerId"); !ok {
		return
	} else if customerID != nil {
		in.CustomerID = *customerID
	}
	if qty := c.Query("quantity"); qty != "" {
		var q types.Quantity
		if err := q.UnmarshalJSON([]byte(qty)); err != nil {
			h.Error(c, apperror.NewValidation("invalid quantity").
				WithDetail("param", "quantity").WithDetail("value", qty))
			return
		}
		in.Quantity = q
	}
	if asOf, ok := h.ParseTimeQuery(c, "asOf"); !ok {
		return
	} else if asOf != nil {
		in.AsOf = *asOf
	}

	res, err := h.service.Resolver().ResolvePrice(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromResolution(itemID, res))
}

// --- Markup configurations ---

// CreateMarkupConfig handles POST /pricing/markup-configurations.
func (h *PricingHandler) CreateMarkupConfig(c *gin.Context) {
	var req dto.CreateMarkupConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.CreateMarkupConfig(c.Request.Context(), cfg); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, cfg.ID.String())
}

// UpdateMarkupConfig handles PUT /pricing/markup-configurations/:id.
func (h *PricingHandler) UpdateMarkupConfig(c *gin.Context) {
	cfgID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMarkupConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := h.service.GetMarkupConfig(c.Request.Context(), cfgID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(cfg)

	if err := h.service.UpdateMarkupConfig(c.Request.Context(), cfg); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cfg)
}

// ListMarkupConfigs handles GET /pricing/markup-configurations.
func (h *PricingHandler) ListMarkupConfigs(c *gin.Context) {
	filter := pricing.MarkupConfigFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.EntityID, ok = h.ParseIDQuery(c, "entityId"); !ok {
		return
	}
	if level := c.Query("level"); level != "" {
		l := pricing.MarkupLevel(level)
		filter.Level = &l
	}
	if c.Query("activeOnly") == "true" {
		now := time.Now().UTC()
		filter.ActiveAt = &now
	}

	configs, err := h.service.ListMarkupConfigs(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      configs,
		TotalCount: int64(len(configs)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// DeleteMarkupConfig handles DELETE /pricing/markup-configurations/:id.
func (h *PricingHandler) DeleteMarkupConfig(c *gin.Context) {
	cfgID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteMarkupConfig(c.Request.Context(), cfgID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "markup configuration deleted")
}

// --- Customer pricing ---

// CreateCustomerPricing handles POST /pricing/customer-pricing.
func (h *PricingHandler) CreateCustomerPricing(c *gin.Context) {
	var req dto.CreateCustomerPricingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cp, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.CreateCustomerPricing(c.Request.Context(), cp); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, cp.ID.String())
}

// UpdateCustomerPricing handles PUT /pricing/customer-pricing/:id.
func (h *PricingHandler) UpdateCustomerPricing(c *gin.Context) {
	cpID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCustomerPricingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cp, err := h.service.GetCustomerPricing(c.Request.Context(), cpID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(cp)

	if err := h.service.UpdateCustomerPricing(c.Request.Context(), cp); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cp)
}

// ListCustomerPricing handles GET /pricing/customer-pricing.
func (h *PricingHandler) ListCustomerPricing(c *gin.Context) {
	filter := pricing.CustomerPricingFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.CustomerID, ok = h.ParseIDQuery(c, "customerId"); !ok {
		return
	}
	if filter.ItemID, ok = h.ParseIDQuery(c, "itemId"); !ok {
		return
	}
	if c.Query("activeOnly") == "true" {
		now := time.Now().UTC()
		filter.ActiveAt = &now
	}

	rows, err := h.service.ListCustomerPricing(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      rows,
		TotalCount: int64(len(rows)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// DeleteCustomerPricing handles DELETE /pricing/customer-pricing/:id.
func (h *PricingHandler) DeleteCustomerPricing(c *gin.Context) {
	cpID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCustomerPricing(c.Request.Context(), cpID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "customer pricing deleted")
}

// --- Snapshots ---

// Snapshot handles POST /pricing/items/:id/snapshot.
func (h *PricingHandler) Snapshot(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ip, err := h.service.SnapshotPricing(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, ip)
}

// GetItemPricing handles GET /pricing/items/:id.
func (h *PricingHandler) GetItemPricing(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ip, err := h.service.GetItemPricing(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, ip)
}
