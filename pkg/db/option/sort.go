package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type sortOption struct {
	column string
	desc   bool
}

func (o sortOption) Apply(stmt *gorm.DB) *gorm.DB {
	if o.column == "" {
		return stmt
	}
	direction := "ASC"
	if o.desc {
		direction = "DESC"
	}
	return stmt.Order(fmt.Sprintf("%s %s", o.column, direction))
}

// SortBy is a validated column and direction.
type SortBy struct {
	Column string
	Desc   bool
}

// WithQuerySortBy validates a user supplied sort column against allowed and
// falls back to created_at ascending.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) SortBy {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if !allowed[column] {
		column = "created_at"
	}
	return SortBy{
		Column: column,
		Desc:   strings.EqualFold(strings.TrimSpace(orderBy), "desc"),
	}
}

func WithSortBy(s SortBy) QueryOption {
	return sortOption{column: s.Column, desc: s.Desc}
}
