package api

import (
	"fmt"
	"net/http"

	"github.com/ignite/campaign-insights/internal/pkg/httputil"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// pageRequest is a 1-based page over an in-memory list.
type pageRequest struct {
	page int
	size int
}

func parsePage(r *http.Request) (pageRequest, error) {
	page, err := httputil.QueryInt(r, "page", 1)
	if err != nil {
		return pageRequest{}, err
	}
	size, err := httputil.QueryInt(r, "limit", defaultPageSize)
	if err != nil {
		return pageRequest{}, err
	}
	if page < 1 {
		return pageRequest{}, fmt.Errorf("page must be at least 1")
	}
	if size < 1 {
		return pageRequest{}, fmt.Errorf("limit must be at least 1")
	}
	return pageRequest{page: page, size: min(size, maxPageSize)}, nil
}

// PaginatedResponse wraps one page of a list with its position in the whole.
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// Paginate cuts items down to the requested page. A page past the end is
// empty, never an error.
func Paginate[T any](items []T, req pageRequest) PaginatedResponse[T] {
	total := len(items)
	pages := max(1, (total+req.size-1)/req.size)

	start := min((req.page-1)*req.size, total)
	end := min(start+req.size, total)

	return PaginatedResponse[T]{
		Data: items[start:end],
		Pagination: PaginationMeta{
			Page:       req.page,
			Limit:      req.size,
			Total:      int64(total),
			TotalPages: pages,
			HasMore:    req.page < pages,
		},
	}
}
