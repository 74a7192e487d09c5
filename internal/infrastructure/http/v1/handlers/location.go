package handlers

import (
	"github.com/gin-gonic/gin"

	"mercator/internal/domain"
	"mercator/internal/domain/catalogs/location"
	"mercator/internal/infrastructure/http/v1/dto"
)

// LocationHandler handles storage location catalog endpoints.
type LocationHandler struct {
	*BaseHandler
	service *location.Service
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(service *location.Service) *LocationHandler {
	return &LocationHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /catalog/locations.
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, loc.ID.String())
}

// Get handles GET /catalog/locations/:id.
func (h *LocationHandler) Get(c *gin.Context) {
	locID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	loc, err := h.service.GetByID(c.Request.Context(), locID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocation(loc))
}

// Update handles PUT /catalog/locations/:id.
func (h *LocationHandler) Update(c *gin.Context) {
	locID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc, err := h.service.GetByID(c.Request.Context(), locID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(loc)

	if err := h.service.Update(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLocation(loc))
}

// Delete handles DELETE /catalog/locations/:id (soft delete).
func (h *LocationHandler) Delete(c *gin.Context) {
	locID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), locID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "location deleted")
}

// List handles GET /catalog/locations.
func (h *LocationHandler) List(c *gin.Context) {
	filter := domain.ListFilter{
		Search:         c.Query("search"),
		IncludeDeleted: c.Query("includeDeleted") == "true",
		ActiveOnly:     c.Query("activeOnly") == "true",
		OrderBy:        c.Query("orderBy"),
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	locations := make([]*dto.LocationResponse, 0, len(result.Items))
	for _, loc := range result.Items {
		locations = append(locations, dto.FromLocation(loc))
	}

	h.OK(c, dto.ListResponse{
		Items:      locations,
		TotalCount: result.TotalCount,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}
