// Package page implements page/size pagination shared by the list endpoints.
package page

import (
	"math"
	"net/url"
	"strconv"

	"salesflow/pkg/apperr"
)

const (
	DefaultSize = 10
	MaxSize     = 100
)

// Request is a validated 1-based page request.
type Request struct {
	Page int
	Size int
}

// Result is one page of items plus the totals needed to walk the rest.
type Result[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// New validates page >= 1 and 1 <= size <= MaxSize. Pages whose offset does
// not fit in an int are rejected.
func New(p, size int) (Request, error) {
	if p < 1 {
		return Request{}, apperr.Validation("page must be >= 1")
	}
	if size < 1 || size > MaxSize {
		return Request{}, apperr.Validation("size must be between 1 and %d", MaxSize)
	}
	if p-1 > math.MaxInt/size {
		return Request{}, apperr.Validation("page %d is out of range", p)
	}
	return Request{Page: p, Size: size}, nil
}

// FromQuery reads page and size from q, defaulting to 1 and DefaultSize.
func FromQuery(q url.Values) (Request, error) {
	p, size := 1, DefaultSize
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, apperr.Validation("page must be an integer")
		}
		p = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, apperr.Validation("size must be an integer")
		}
		size = n
	}
	return New(p, size)
}

// Offset is the number of rows before the page.
func (r Request) Offset() int { return (r.Page - 1) * r.Size }

// Limit is the page size.
func (r Request) Limit() int { return r.Size }

// Pages returns ceil(total/size).
func Pages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// NewResult assembles a Result for r.
func NewResult[T any](r Request, items []T, total int) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items: items,
		Total: total,
		Page:  r.Page,
		Size:  r.Size,
		Pages: Pages(total, r.Size),
	}
}

// Window returns the [offset, offset+limit) slice bounds clamped to n.
// A limit of 0 means no limit.
func Window(n, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && limit < n-offset {
		end = offset + limit
	}
	return offset, end
}
