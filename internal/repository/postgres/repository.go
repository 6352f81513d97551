package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique violation on the
// given constraint or index. An empty name matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// queryBuilder accumulates SQL text and positional arguments for dynamic
// filter queries.
type queryBuilder struct {
	sql  strings.Builder
	args []interface{}
}

func (b *queryBuilder) write(s string) {
	b.sql.WriteString(s)
}

// arg registers v as the next positional argument and returns its placeholder
func (b *queryBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) String() string {
	return b.sql.String()
}

// orderBy renders the ORDER BY clause from the filter, restricted to the
// allowed sort columns so caller-supplied sort keys cannot inject SQL.
func orderBy(f *types.QueryFilter, allowed map[string]bool) string {
	sort := f.GetSort()
	if !allowed[sort] {
		sort = "created_at"
	}
	order := "DESC"
	if f.GetOrder() == "asc" {
		order = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", sort, order)
}

// paginate renders LIMIT/OFFSET from the filter, omitting LIMIT for
// unlimited filters.
func paginate(b *queryBuilder, f *types.QueryFilter) {
	if !f.IsUnlimited() {
		b.write(" LIMIT " + b.arg(f.GetLimit()))
	}
	if f.GetOffset() > 0 {
		b.write(" OFFSET " + b.arg(f.GetOffset()))
	}
}
