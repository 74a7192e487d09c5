package dto

import (
	"mercator/internal/domain/catalogs/location"
)

// CreateLocationRequest represents a request to create a storage location.
type CreateLocationRequest struct {
	Code    string  `json:"code,omitempty"`
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateLocationRequest) ToEntity() *location.StorageLocation {
	loc := location.NewStorageLocation(r.Code, r.Name)
	loc.Address = r.Address
	return loc
}

// UpdateLocationRequest represents a request to update a storage location.
type UpdateLocationRequest struct {
	Code     *string `json:"code,omitempty"`
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateLocationRequest) ApplyTo(loc *location.StorageLocation) {
	if r.Code != nil {
		loc.Code = *r.Code
	}
	if r.Name != nil {
		loc.Name = *r.Name
	}
	if r.Address != nil {
		loc.Address = r.Address
	}
	if r.IsActive != nil {
		loc.IsActive = *r.IsActive
	}
}

// LocationResponse represents a storage location in API responses.
type LocationResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Address      *string `json:"address,omitempty"`
	IsActive     bool    `json:"isActive"`
	DeletionMark bool    `json:"deletionMark,omitempty"`
	Version      int     `json:"version"`
}

// FromLocation converts domain entity to response DTO.
func FromLocation(loc *location.StorageLocation) *LocationResponse {
	return &LocationResponse{
		ID:           loc.ID.String(),
		Code:         loc.Code,
		Name:         loc.Name,
		Address:      loc.Address,
		IsActive:     loc.IsActive,
		DeletionMark: loc.DeletionMark,
		Version:      loc.Version,
	}
}
