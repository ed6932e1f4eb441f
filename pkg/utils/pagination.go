package utils

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageMeta is the "meta" block of every paginated list response.
type PageMeta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	Limit       int   `json:"limit"`
}

// GetPaginationDetails reads ?limit and ?page, clamping limit to [1, 100].
func GetPaginationDetails(r *http.Request) (limit, offset, page int) {
	q := r.URL.Query()

	limit = defaultPageSize
	if val, err := strconv.Atoi(q.Get("limit")); err == nil && val > 0 {
		limit = min(val, maxPageSize)
	}

	page = 1
	if val, err := strconv.Atoi(q.Get("page")); err == nil && val > 0 {
		page = val
	}

	return limit, (page - 1) * limit, page
}

func NewPageMeta(total int64, limit, page int) PageMeta {
	return PageMeta{
		TotalItems:  total,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
		Limit:       limit,
	}
}
