package dto

import (
	"mercator/internal/core/id"
	"mercator/internal/core/types"
)

// ReservationRequest reserves or releases stock at a location.
type ReservationRequest struct {
	ItemID     string         `json:"itemId" binding:"required"`
	LocationID string         `json:"locationId" binding:"required"`
	Quantity   types.Quantity `json:"quantity"`
}

// ParseIDs parses the item and location IDs.
func (r *ReservationRequest) ParseIDs() (itemID, locationID id.ID, err error) {
	itemID, err = id.Parse(r.ItemID)
	if err != nil {
		return
	}
	locationID, err = id.Parse(r.LocationID)
	return
}

// SetReorderLevelsRequest sets the reorder thresholds for an item+location.
type SetReorderLevelsRequest struct {
	ItemID        string         `json:"itemId" binding:"required"`
	LocationID    string         `json:"locationId" binding:"required"`
	ReorderLevel  types.Quantity `json:"reorderLevel"`
	MaxStockLevel types.Quantity `json:"maxStockLevel"`
}

// AvailabilityResponse is the item-wide available quantity.
type AvailabilityResponse struct {
	ItemID    string         `json:"itemId"`
	Available types.Quantity `json:"available"`
}
