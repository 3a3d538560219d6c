package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// maxPage keeps (page-1)*pageSize within int for every accepted page size
const maxPage = math.MaxInt / constants.MaxPageSize

// NewPaginationParams validates raw page values and computes the offset
func NewPaginationParams(page, pageSize int) PaginationParams {
	if page < constants.MinPage {
		page = constants.MinPage
	}
	if page > maxPage {
		page = maxPage
	}
	if pageSize < constants.MinPageSize || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPage)))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(constants.DefaultPageSize)))

	return NewPaginationParams(page, pageSize)
}

// NewPaginationResponse builds the response metadata for a page of total records
func NewPaginationResponse(params PaginationParams, total int64) PaginationResponse {
	totalPages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		totalPages++
	}

	return PaginationResponse{
		Page:       params.Page,
		PageSize:   params.Limit,
		TotalCount: total,
		TotalPages: totalPages,
	}
}
