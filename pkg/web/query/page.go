package query

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/jsonapi/pkg/jsonapi"
)

// BuildPageClause generates a LIMIT/OFFSET clause. start is the index of the
// first placeholder, following the parameters of the preceding clauses.
//
// Example: BuildPageClause(20, 40, Dollar, 2) -> "LIMIT $2 OFFSET $3", [20, 40]
func BuildPageClause(limit, offset int, placeholder Placeholder, start int) (string, []any) {
	if placeholder == nil {
		placeholder = Dollar
	}
	clause := fmt.Sprintf("LIMIT %s OFFSET %s", placeholder(start), placeholder(start+1))
	return clause, []any{limit, offset}
}

// Options describes how the directives of a query map onto a table.
type Options struct {
	// Table prefixes every column. It MUST be a trusted value.
	Table string
	// FilterFields is the whitelist of filter[...] names.
	FilterFields []string
	// SortFields is the whitelist of sort fields.
	SortFields []string
	// DefaultSort is used when the request has no sort parameter.
	DefaultSort string
	// DefaultLimit and MaxLimit bound page[limit].
	DefaultLimit int
	MaxLimit     int
	// Placeholder defaults to Dollar.
	Placeholder Placeholder
}

// Clauses holds the SQL fragments built from a query.
type Clauses struct {
	Where     string
	WhereArgs []any
	OrderBy   string
	Page      string
	PageArgs  []any

	Limit  int
	Offset int
}

// FromQuery builds the WHERE, ORDER BY and LIMIT clauses for the filter, sort
// and page directives of q. Invalid directives are bad requests.
func FromQuery(q *jsonapi.Query, opts Options) (*Clauses, error) {
	placeholder := opts.Placeholder
	if placeholder == nil {
		placeholder = Dollar
	}

	where, whereArgs, err := buildFilterClause(q.Filters(), opts.Table, opts.FilterFields, placeholder, 1)
	if err != nil {
		return nil, err
	}

	orderBy, err := BuildSortClause(q.Sort(opts.DefaultSort), opts.Table, opts.SortFields)
	if err != nil {
		return nil, err
	}

	limit, err := q.Limit(opts.DefaultLimit, opts.MaxLimit)
	if err != nil {
		return nil, err
	}
	offset, err := q.Offset(0)
	if err != nil {
		return nil, err
	}
	page, pageArgs := BuildPageClause(limit, offset, placeholder, len(whereArgs)+1)

	return &Clauses{
		Where:     where,
		WhereArgs: whereArgs,
		OrderBy:   orderBy,
		Page:      page,
		PageArgs:  pageArgs,
		Limit:     limit,
		Offset:    offset,
	}, nil
}

// Select appends the clauses to a SELECT statement.
func (c *Clauses) Select(base string) (string, []any) {
	args := make([]any, 0, len(c.WhereArgs)+len(c.PageArgs))
	args = append(args, c.WhereArgs...)
	args = append(args, c.PageArgs...)
	return join(base, c.Where, c.OrderBy, c.Page), args
}

// Count appends the WHERE clause to a COUNT statement.
func (c *Clauses) Count(base string) (string, []any) {
	return join(base, c.Where), c.WhereArgs
}

func join(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}
