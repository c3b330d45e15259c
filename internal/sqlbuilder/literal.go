package sqlbuilder

import "strings"

// QuoteLiteral wraps a string value in single quotes, escaping any embedded
// single-quote characters by doubling them (standard SQL). Use it only where
// a clause cannot be parameterized, such as OR-joined LIKE fragments.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
