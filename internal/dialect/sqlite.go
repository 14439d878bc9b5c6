package dialect

import (
	"fmt"
	"strings"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/types"
)

// sqlite implements the Dialect interface for SQLite.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------
// Type mappings
// -----------------------------------------------------------------------------

func (d *sqlite) ColumnType(f *ast.FieldDef) (string, error) {
	return types.SQLFor(types.SQLite, f)
}

func (d *sqlite) KeyType() string {
	return "TEXT"
}

// KeyDefault is empty: SQLite has no UUID generator, so keys are
// supplied by the writer.
func (d *sqlite) KeyDefault() string {
	return ""
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

func (d *sqlite) Placeholder(index int) string {
	return "?"
}

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

func (d *sqlite) Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		// SQLite stores booleans as integers.
		if val {
			return "1"
		}
		return "0"
	case string:
		return quoteStringLiteral(val)
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	default:
		return quoteStringLiteral(fmt.Sprintf("%v", val))
	}
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *sqlite) SupportsTransactionalDDL() bool {
	return true
}

// SupportsAddConstraint is false: SQLite cannot ALTER TABLE ADD CONSTRAINT,
// so foreign keys are rendered inline and tables emitted in dependency order.
func (d *sqlite) SupportsAddConstraint() bool {
	return false
}

func (d *sqlite) SupportsIfExists() bool {
	return true
}
