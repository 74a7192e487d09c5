package handlers

import (
	"github.com/gin-gonic/gin"

	"mercator/internal/domain/issuing"
	"mercator/internal/infrastructure/http/v1/dto"
)

// StockIssueHandler handles stock issue document endpoints.
type StockIssueHandler struct {
	*BaseHandler
	service *issuing.Service
}

// NewStockIssueHandler creates a new stock issue handler.
func NewStockIssueHandler(service *issuing.Service) *StockIssueHandler {
	return &StockIssueHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /stock-issues.
func (h *StockIssueHandler) Create(c *gin.Context) {
	var req dto.CreateStockIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	issue, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, issue.ID.String())
}

// Get handles GET /stock-issues/:id.
func (h *StockIssueHandler) Get(c *gin.Context) {
	issueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	issue, err := h.service.GetByID(c.Request.Context(), issueID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, issue)
}

// Update handles PUT /stock-issues/:id. Only descriptive fields are
// editable; the posted movement fixes quantity, item, and location.
func (h *StockIssueHandler) Update(c *gin.Context) {
	issueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStockIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	issue, err := h.service.GetByID(c.Request.Context(), issueID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(issue); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), issue); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, issue)
}

// Cancel handles DELETE /stock-issues/:id. The issue document is not
// deleted; it is marked cancelled and a reversing ledger entry is posted.
func (h *StockIssueHandler) Cancel(c *gin.Context) {
	issueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.service.Cancel(c.Request.Context(), issueID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "issue cancelled")
}

// List handles GET /stock-issues.
func (h *StockIssueHandler) List(c *gin.Context) {
	filter := issuing.Filter{
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
	if filter.DepartmentID, ok = h.ParseIDQuery(c, "departmentId"); !ok {
		return
	}
	if filter.FromDate, ok = h.ParseTimeQuery(c, "fromDate"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseTimeQuery(c, "toDate"); !ok {
		return
	}
	if status := c.Query("status"); status != "" {
		s := issuing.IssueStatus(status)
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
