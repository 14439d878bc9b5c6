package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/types"
)

// postgres implements the Dialect interface for PostgreSQL.
type postgres struct{}

// Postgres returns the PostgreSQL dialect implementation.
func Postgres() Dialect {
	return &postgres{}
}

func (d *postgres) Name() string {
	return "postgres"
}

// -----------------------------------------------------------------------------
// Type mappings
// -----------------------------------------------------------------------------

func (d *postgres) ColumnType(f *ast.FieldDef) (string, error) {
	return types.SQLFor(types.Postgres, f)
}

func (d *postgres) KeyType() string {
	return "UUID"
}

func (d *postgres) KeyDefault() string {
	return "gen_random_uuid()"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *postgres) QuoteIdent(name string) string {
	// PostgreSQL uses double quotes for identifiers
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

func (d *postgres) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

func (d *postgres) Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
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

func (d *postgres) SupportsTransactionalDDL() bool {
	return true
}

func (d *postgres) SupportsAddConstraint() bool {
	return true
}

func (d *postgres) SupportsIfExists() bool {
	return true
}
