package dialect

import (
	"strings"
)

// quoteStringLiteral renders a single-quoted SQL string literal with
// embedded quotes doubled.
func quoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
