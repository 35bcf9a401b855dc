package remote

import (
	"fmt"
	"strings"
)

// Query assembles the tabular query string the archive's sync endpoint
// accepts: SELECT <columns> FROM <table> [WHERE ...] [ORDER BY ...]
// [LIMIT n OFFSET m].
type Query struct {
	Table   string
	Columns []string
	Where   []string
	OrderBy []string
	Limit   int
	Offset  int
}

func (q Query) Build() string {
	var b strings.Builder

	b.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.Columns, ", "))
	}

	b.WriteString(" FROM ")
	b.WriteString(q.Table)

	if len(q.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.Where, " AND "))
	}
	if len(q.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.OrderBy, ", "))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Offset)
	}

	return b.String()
}
