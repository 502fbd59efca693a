package postgres

import (
	"fmt"
	"strings"
)

// placeholder returns the n-th positional placeholder ($1, $2, ...).
func placeholder(n int) string {
	return "$" + fmt.Sprint(n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

func limitOffset(limit, offset *int) string {
	clause := ""
	if limit != nil {
		clause = fmt.Sprintf(" LIMIT %d", *limit)
	}
	if offset != nil {
		clause = fmt.Sprintf("%s OFFSET %d", clause, *offset)
	}
	return clause
}
