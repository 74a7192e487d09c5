package dto

import (
	"mercator/internal/core/id"
	"mercator/internal/core/types"
	"mercator/internal/domain/issuing"
)

// CreateStockIssueRequest issues stock out of a location.
type CreateStockIssueRequest struct {
	ItemID       string         `json:"itemId" binding:"required"`
	LocationID   string         `json:"locationId" binding:"required"`
	Quantity     types.Quantity `json:"quantity"`
	IssueDate    FlexTime       `json:"issueDate"`
	IssuedTo     string         `json:"issuedTo" binding:"required"`
	DepartmentID *string        `json:"departmentId,omitempty"`
	Reason       string         `json:"reason,omitempty"`
}

// ToInput converts the request to a service input.
func (r *CreateStockIssueRequest) ToInput() (issuing.CreateInput, error) {
	var in issuing.CreateInput

	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return in, err
	}
	locationID, err := id.Parse(r.LocationID)
	if err != nil {
		return in, err
	}

	in = issuing.CreateInput{
		ItemID:     itemID,
		LocationID: locationID,
		Quantity:   r.Quantity,
		IssueDate:  r.IssueDate.Time,
		IssuedTo:   r.IssuedTo,
		Reason:     r.Reason,
	}

	if r.DepartmentID != nil && *r.DepartmentID != "" {
		deptID, err := id.Parse(*r.DepartmentID)
		if err != nil {
			return in, err
		}
		in.DepartmentID = &deptID
	}

	return in, nil
}

// UpdateStockIssueRequest edits the descriptive fields of an issue.
// Quantity, item, and location are fixed by the posted movement.
type UpdateStockIssueRequest struct {
	IssuedTo     *string `json:"issuedTo,omitempty"`
	DepartmentID *string `json:"departmentId,omitempty"`
	Reason       *string `json:"reason,omitempty"`
	Comment      *string `json:"comment,omitempty"`
}

// ApplyTo applies updates to an existing issue. An empty departmentId
// clears the assignment.
func (r *UpdateStockIssueRequest) ApplyTo(issue *issuing.StockIssue) error {
	if r.IssuedTo != nil {
		issue.IssuedTo = *r.IssuedTo
	}
	if r.DepartmentID != nil {
		if *r.DepartmentID == "" {
			issue.DepartmentID = nil
		} else {
			deptID, err := id.Parse(*r.DepartmentID)
			if err != nil {
				return err
			}
			issue.DepartmentID = &deptID
		}
	}
	if r.Reason != nil {
		issue.Reason = *r.Reason
	}
	if r.Comment != nil {
		issue.Comment = *r.Comment
	}
	return nil
}
