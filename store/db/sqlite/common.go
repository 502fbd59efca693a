package sqlite

import (
	"fmt"
	"strings"
)

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(_ int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// limitOffset renders the LIMIT/OFFSET clause. SQLite requires a LIMIT before OFFSET.
func limitOffset(limit, offset *int) string {
	if limit == nil {
		if offset == nil {
			return ""
		}
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", *offset)
	}
	clause := fmt.Sprintf(" LIMIT %d", *limit)
	if offset != nil {
		clause = fmt.Sprintf("%s OFFSET %d", clause, *offset)
	}
	return clause
}
