package constants

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	MaxLimit     = 100
)

// PaginationParams is a page/limit pair read from the query string with
// the derived row offset.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePaginationParams reads ?page and ?limit. Missing or malformed values
// fall back to the defaults and limit is capped at MaxLimit.
func ParsePaginationParams(c *gin.Context) PaginationParams {
	return NewPagination(queryInt(c, "page", defaultPage), queryInt(c, "limit", defaultLimit))
}

// NewPagination clamps page and limit and computes the offset.
func NewPagination(page, limit int) PaginationParams {
	if page < 1 {
		page = defaultPage
	}
	switch {
	case limit < 1:
		limit = defaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// PageTotal returns the number of pages needed for total items.
func (p PaginationParams) PageTotal(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
