package models

import (
	"time"

	"github.com/google/uuid"
)

type ToDo struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedDate time.Time `json:"createdDate"`
	UpdatedDate time.Time `json:"updatedDate"`
}

// ToDoPage is one page of a filtered, sorted listing.
type ToDoPage struct {
	Items           []ToDo `json:"items"`
	PageNumber      int    `json:"pageNumber"`
	PageSize        int    `json:"pageSize"`
	TotalItems      int    `json:"totalItems"`
	PageCount       int    `json:"pageCount"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	HasNextPage     bool   `json:"hasNextPage"`
	CurrentSort     string `json:"currentSort"`
	CurrentFilter   string `json:"currentFilter,omitempty"`
}
