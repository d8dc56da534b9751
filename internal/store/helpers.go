package store

import (
	"database/sql"
	"strings"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// inClause returns "col IN (?,?)" and its args. An empty set yields a
// predicate that matches nothing.
func inClause(col string, values []string) (string, []any) {
	if len(values) == 0 {
		return "0", nil
	}
	return col + " IN (" + placeholderList(len(values)) + ")", stringsToArgs(values)
}

// scanStrings collects a single string column from rows.
func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// nullString converts an optional string to a driver value.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
