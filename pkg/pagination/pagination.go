package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	// DefaultLimit applies to parent-facing lists.
	DefaultLimit = 10
	// ClinicDefaultLimit applies to clinic work queues.
	ClinicDefaultLimit = 20
	MaxLimit           = 100
)

// Params holds pagination parameters extracted from a request. Page is
// 1-based; Offset is derived from Page and Limit.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// FromContext extracts page/limit query parameters from the echo context,
// falling back to defaultLimit when limit is absent or invalid.
func FromContext(c echo.Context, defaultLimit int) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return New(page, limit, defaultLimit)
}

// New normalizes page and limit.
func New(page, limit, defaultLimit int) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Meta is the pagination block of a list response.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta returns the response metadata for a result set of the given total size.
func (p Params) Meta(total int) *Meta {
	return &Meta{Total: total, Page: p.Page, Limit: p.Limit}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}
