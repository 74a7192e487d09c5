package handlers

import (
	"github.com/gin-gonic/gin"

	"mercator/internal/core/id"
	"mercator/internal/domain/stock"
	"mercator/internal/infrastructure/http/v1/dto"
)

// StockHandler handles inventory level and ledger endpoints.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// ListLevels handles GET /stock/levels.
func (h *StockHandler) ListLevels(c *gin.Context) {
	filter := stock.LevelFilter{
		ExcludeZero: c.Query("excludeZero") == "true",
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.LocationID, ok = h.ParseIDQuery(c, "locationId"); !ok {
		return
	}
	if itemID, ok := h.ParseIDQuery(c, "itemId"); !ok {
		return
	} else if itemID != nil {
		filter.ItemIDs = []id.ID{*itemID}
	}

	levels, err := h.service.ListLevels(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      levels,
		TotalCount: int64(len(levels)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// ListMovements handles GET /stock/movements.
func (h *StockHandler) ListMovements(c *gin.Context) {
	filter := stock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.ItemID, ok = h.ParseIDQuery(c, "itemId"); !ok {
		return
	}
	if filter.LocationID, ok = h.ParseIDQuery(c, "locationId"); !ok {
		return
	}
	if filter.FromDate, ok = h.ParseTimeQuery(c, "fromDate"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseTimeQuery(c, "toDate"); !ok {
		return
	}
	if t := c.Query("type"); t != "" {
		mt := stock.MovementType(t)
		filter.Type = &mt
	}

	movements, err := h.service.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      movements,
		TotalCount: int64(len(movements)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// ListBelowReorder handles GET /stock/reorder.
func (h *StockHandler) ListBelowReorder(c *gin.Context) {
	locationID, ok := h.ParseIDQuery(c, "locationId")
	if !ok {
		return
	}

	levels, err := h.service.FindBelowReorder(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      levels,
		TotalCount: int64(len(levels)),
	})
}

// SetReorderLevels handles PUT /stock/reorder.
func (h *StockHandler) SetReorderLevels(c *gin.Context) {
	var req dto.SetReorderLevelsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, err := id.Parse(req.ItemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	locationID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	err = h.service.SetReorderLevels(c.Request.Context(), itemID, locationID,
		req.ReorderLevel, req.MaxStockLevel)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "reorder levels updated")
}

// Reserve handles POST /stock/reservations.
func (h *StockHandler) Reserve(c *gin.Context) {
	var req dto.ReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, locationID, err := req.ParseIDs()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Reserve(c.Request.Context(), itemID, locationID, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "stock reserved")
}

// Release handles DELETE /stock/reservations.
func (h *StockHandler) Release(c *gin.Context) {
	var req dto.ReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, locationID, err := req.ParseIDs()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Release(c.Request.Context(), itemID, locationID, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "reservation released")
}

// GetAvailability handles GET /stock/availability/:itemId.
func (h *StockHandler) GetAvailability(c *gin.Context) {
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	available, err := h.service.GetItemAvailability(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AvailabilityResponse{
		ItemID:    itemID.String(),
		Available: available,
	})
}
