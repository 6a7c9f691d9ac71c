package handlers

import (
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// PaginatedResponse is the list envelope shared by paged endpoints.
type PaginatedResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// page is a limit/offset window read from the query string. Missing or
// malformed values fall back to the first page of defaultPageLimit items.
type page struct {
	limit  int
	offset int
}

func parsePage(r *http.Request) page {
	q := r.URL.Query()
	p := page{limit: defaultPageLimit}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.limit = min(n, maxPageLimit)
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n >= 0 {
		p.offset = n
	}
	return p
}

// bounds clamps the window to total items as [from, to).
func (p page) bounds(total int) (from, to int) {
	from = min(p.offset, total)
	return from, min(from+p.limit, total)
}

func newPaginatedResponse[T any](p page, total int) PaginatedResponse[T] {
	return PaginatedResponse[T]{Items: []T{}, Total: total, Limit: p.limit, Offset: p.offset}
}
