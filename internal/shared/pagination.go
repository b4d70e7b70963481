package shared

import (
	"fmt"
	"math"
	"strconv"
)

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata. PerPage is capped.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// ParsePagination reads page and per_page query values. Empty values take
// the defaults; anything else must be a positive integer.
func ParsePagination(page, perPage string, total int) (Pagination, error) {
	p, err := positiveOrZero("page", page)
	if err != nil {
		return Pagination{}, err
	}
	pp, err := positiveOrZero("per_page", perPage)
	if err != nil {
		return Pagination{}, err
	}
	return NewPagination(p, pp, total), nil
}

// Bounds returns the half-open slice range of the current page, clamped to
// Total. Pages past the end yield an empty range.
func (p Pagination) Bounds() (start, end int) {
	if p.Page <= 0 || p.PerPage <= 0 || p.Total <= 0 {
		return 0, 0
	}
	if p.Page-1 > p.Total/p.PerPage {
		return p.Total, p.Total
	}
	start = (p.Page - 1) * p.PerPage
	if start > p.Total {
		start = p.Total
	}
	end = start + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

func positiveOrZero(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer: %w", name, ErrValidation)
	}
	return v, nil
}
