package handlers

import (
	"github.com/gin-gonic/gin"

	"mercator/internal/domain/receiving"
	"mercator/internal/infrastructure/http/v1/dto"
)

// GoodsReceiptHandler handles goods receipt document endpoints.
type GoodsReceiptHandler struct {
	*BaseHandler
	service *receiving.Service
}

// NewGoodsReceiptHandler creates a new goods receipt handler.
func NewGoodsReceiptHandler(service *receiving.Service) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /goods-receipts.
func (h *GoodsReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateGoodsReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	receipt, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, receipt.ID.String())
}

// Get handles GET /goods-receipts/:id.
func (h *GoodsReceiptHandler) Get(c *gin.Context) {
	receiptID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.service.GetByID(c.Request.Context(), receiptID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, receipt)
}

// Update handles PUT /goods-receipts/:id (open receipts only).
func (h *GoodsReceiptHandler) Update(c *gin.Context) {
	receiptID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateGoodsReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.GetByID(c.Request.Context(), receiptID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(receipt)

	if err := h.service.Update(c.Request.Context(), receipt); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, receipt)
}

// RecordLine handles POST /goods-receipts/:id/lines.
func (h *GoodsReceiptHandler) RecordLine(c *gin.Context) {
	receiptID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput(receiptID)
	if err != nil {
		h.Error(c, err)
		return
	}

	receipt, err := h.service.RecordLineReceipt(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, receipt)
}

// Complete handles POST /goods-receipts/:id/complete.
func (h *GoodsReceiptHandler) Complete(c *gin.Context) {
	receiptID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.service.Complete(c.Request.Context(), receiptID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, receipt)
}

// List handles GET /goods-receipts.
func (h *GoodsReceiptHandler) List(c *gin.Context) {
	filter := receiving.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.SupplierID, ok = h.ParseIDQuery(c, "supplierId"); !ok {
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
	if status := c.Query("status"); status != "" {
		s := receiving.ReceiptStatus(status)
		filter.Status = &s
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}
