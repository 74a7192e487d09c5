package dto

import (
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain/catalogs/item"
)

// --- Request DTOs ---

// CreateItemRequest represents a request to create an inventory item.
type CreateItemRequest struct {
	Code                   string         `json:"code,omitempty"`
	Name                   string         `json:"name" binding:"required"`
	CategoryID             *string        `json:"categoryId,omitempty"`
	Unit                   string         `json:"unit" binding:"required"`
	Barcode                *string        `json:"barcode,omitempty"`
	SupplierCost           *types.Money   `json:"supplierCost,omitempty"`
	DefaultRetailMarkup    *types.Percent `json:"defaultRetailMarkup,omitempty"`
	DefaultWholesaleMarkup *types.Percent `json:"defaultWholesaleMarkup,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateItemRequest) ToEntity() (*item.InventoryItem, error) {
	it := item.NewInventoryItem(r.Code, r.Name, r.Unit)
	it.Barcode = r.Barcode

	if r.CategoryID != nil {
		categoryID, err := id.Parse(*r.CategoryID)
		if err != nil {
			return nil, err
		}
		it.CategoryID = &categoryID
	}
	if r.SupplierCost != nil {
		it.SupplierCost = *r.SupplierCost
	}
	if r.DefaultRetailMarkup != nil {
		it.DefaultRetailMarkup = *r.DefaultRetailMarkup
	}
	if r.DefaultWholesaleMarkup != nil {
		it.DefaultWholesaleMarkup = *r.DefaultWholesaleMarkup
	}

	return it, nil
}

// UpdateItemRequest represents a request to update an inventory item.
type UpdateItemRequest struct {
	Code                   *string        `json:"code,omitempty"`
	Name                   *string        `json:"name,omitempty"`
	CategoryID             *string        `json:"categoryId,omitempty"`
	Unit                   *string        `json:"unit,omitempty"`
	Barcode                *string        `json:"barcode,omitempty"`
	SupplierCost           *types.Money   `json:"supplierCost,omitempty"`
	DefaultRetailMarkup    *types.Percent `json:"defaultRetailMarkup,omitempty"`
	DefaultWholesaleMarkup *types.Percent `json:"defaultWholesaleMarkup,omitempty"`
	IsActive               *bool          `json:"isActive,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateItemRequest) ApplyTo(it *item.InventoryItem) error {
	if r.Code != nil {
		it.Code = *r.Code
	}
	if r.Name != nil {
		it.Name = *r.Name
	}
	if r.CategoryID != nil {
		if *r.CategoryID == "" {
			it.CategoryID = nil
		} else {
			categoryID, err := id.Parse(*r.CategoryID)
			if err != nil {
				return err
			}
			it.CategoryID = &categoryID
		}
	}
	if r.Unit != nil {
		it.Unit = *r.Unit
	}
	if r.Barcode != nil {
		it.Barcode = r.Barcode
	}
	if r.SupplierCost != nil {
		it.SupplierCost = *r.SupplierCost
	}
	if r.DefaultRetailMarkup != nil {
		it.DefaultRetailMarkup = *r.DefaultRetailMarkup
	}
	if r.DefaultWholesaleMarkup != nil {
		it.DefaultWholesaleMarkup = *r.DefaultWholesaleMarkup
	}
	if r.IsActive != nil {
		it.IsActive = *r.IsActive
	}
	return nil
}

// --- Response DTOs ---

// ItemResponse represents an inventory item in API responses.
type ItemResponse struct {
	ID                     string        `json:"id"`
	Code                   string        `json:"code"`
	Name                   string        `json:"name"`
	CategoryID             *string       `json:"categoryId,omitempty"`
	Unit                   string        `json:"unit"`
	Barcode                *string       `json:"barcode,omitempty"`
	SupplierCost           types.Money   `json:"supplierCost"`
	DefaultRetailMarkup    types.Percent `json:"defaultRetailMarkup"`
	DefaultWholesaleMarkup types.Percent `json:"defaultWholesaleMarkup"`
	IsActive               bool          `json:"isActive"`
	DeletionMark           bool          `json:"deletionMark,omitempty"`
	Version                int           `json:"version"`
}

// FromItem converts domain entity to response DTO.
func FromItem(it *item.InventoryItem) *ItemResponse {
	resp := &ItemResponse{
		ID:                     it.ID.String(),
		Code:                   it.Code,
		Name:                   it.Name,
		Unit:                   it.Unit,
		Barcode:                it.Barcode,
		SupplierCost:           it.SupplierCost,
		DefaultRetailMarkup:    it.DefaultRetailMarkup,
		DefaultWholesaleMarkup: it.DefaultWholesaleMarkup,
		IsActive:               it.IsActive,
		DeletionMark:           it.DeletionMark,
		Version:                it.Version,
	}
	if it.CategoryID != nil {
		s := it.CategoryID.String()
		resp.CategoryID = &s
	}
	return resp
}
