package query

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery carries the paging and search parameters shared by list endpoints
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

// FromContext reads page, limit and search from the query string, clamping bad values.
func FromContext(c *gin.Context) ListQuery {
	return Normalize(ListQuery{
		Page:   atoi(c.Query("page")),
		Limit:  atoi(c.Query("limit")),
		Search: strings.TrimSpace(c.Query("search")),
	})
}

func Normalize(q ListQuery) ListQuery {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// SearchPattern returns an ILIKE pattern for the search term
func (q ListQuery) SearchPattern() string {
	return "%" + q.Search + "%"
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
