// Package pagination reads page parameters from list requests and shapes the
// page envelope returned by list endpoints.
package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

// Request selects one page of a listing. Search is matched by the store.
type Request struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search,omitempty"`
}

// FromQuery reads page, page_size, and search from values and clamps the
// result to cfg. Unparseable numbers fall back to the defaults.
func FromQuery(values url.Values, cfg Config) Request {
	var req Request
	req.Page, _ = strconv.Atoi(values.Get("page"))
	req.PageSize, _ = strconv.Atoi(values.Get("page_size"))
	req.Search = strings.TrimSpace(values.Get("search"))
	return cfg.Clamp(req)
}

// Offset is the number of records before the requested page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Result is one page of T with the totals needed to page further.
type Result[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewResult wraps data as the page req out of total records. Data is never
// encoded as null, and there is always at least one page.
func NewResult[T any](data []T, total int, req Request) Result[T] {
	if data == nil {
		data = []T{}
	}

	pages := 1
	if req.PageSize > 0 && total > req.PageSize {
		pages = (total + req.PageSize - 1) / req.PageSize
	}

	return Result[T]{
		Data:       data,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: pages,
	}
}

// Slice cuts the page req out of items, which must already be filtered and
// ordered. Stores that cannot push LIMIT and OFFSET down use it.
func Slice[T any](items []T, req Request) Result[T] {
	start := min(max(req.Offset(), 0), len(items))
	end := min(start+max(req.PageSize, 0), len(items))
	return NewResult(items[start:end], len(items), req)
}
