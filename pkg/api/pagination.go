package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxPageSize caps client supplied page sizes
const MaxPageSize = 100

// PageRequest represents pagination request parameters
type PageRequest struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"pageSize"`
}

// PageResponse represents one page of a listing
type PageResponse[T any] struct {
	Items        []T   `json:"items"`
	Page         int64 `json:"page"`
	PageSize     int64 `json:"pageSize"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int64 `json:"totalPages"`
	PreviousPage int64 `json:"previousPage"`
	NextPage     int64 `json:"nextPage"`
}

// NewPageResponse creates a page. Previous and next pages are clamped to the
// valid range, so the first page points back at itself and the last page forward at itself.
func NewPageResponse[T any](items []T, page, pageSize, totalItems int64) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int64(1)
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	if totalPages < 1 {
		totalPages = 1
	}

	previous := page - 1
	if previous < 1 {
		previous = 1
	}
	next := page + 1
	if next > totalPages {
		next = totalPages
	}

	return PageResponse[T]{
		Items:        items,
		Page:         page,
		PageSize:     pageSize,
		TotalItems:   totalItems,
		TotalPages:   totalPages,
		PreviousPage: previous,
		NextPage:     next,
	}
}

// ParsePagination reads page and pageSize from the query string
func ParsePagination(c *gin.Context, defaultPageSize int64) PageRequest {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	pageSize, _ := strconv.ParseInt(c.Query("pageSize"), 10, 64)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return PageRequest{Page: page, PageSize: pageSize}
}
