// Package dialect provides database-specific SQL generation primitives.
// Each dialect implements identifier quoting, parameter placeholders,
// column type mapping, literal rendering, and feature flags; statement
// assembly lives in sqlgen.
package dialect

import (
	"github.com/migral/migral/internal/ast"
)

// Dialect defines the interface for database-specific SQL generation.
// Implementations exist for PostgreSQL and SQLite.
type Dialect interface {
	// Name returns the dialect name (postgres, sqlite).
	Name() string

	// ColumnType returns the SQL column type for a non-relation field.
	ColumnType(f *ast.FieldDef) (string, error)

	// KeyType returns the type of primary key and foreign key columns.
	// PostgreSQL: UUID
	// SQLite: TEXT
	KeyType() string

	// KeyDefault returns the default expression for generated primary keys,
	// or "" when the dialect has none and keys are supplied by the writer.
	// PostgreSQL: gen_random_uuid()
	KeyDefault() string

	// QuoteIdent quotes a table or column name.
	// PostgreSQL/SQLite: "name"
	QuoteIdent(name string) string

	// Placeholder returns a parameter placeholder for the given index (1-based).
	// PostgreSQL: $1, $2, ...
	// SQLite: ?, ?, ...
	Placeholder(index int) string

	// Literal renders a default value as a SQL literal.
	Literal(v any) string

	// SupportsTransactionalDDL reports whether DDL can run inside a transaction.
	SupportsTransactionalDDL() bool

	// SupportsAddConstraint reports whether ALTER TABLE ... ADD CONSTRAINT
	// works, letting foreign keys be added after all tables exist. SQLite
	// cannot, so its tables carry inline REFERENCES clauses instead.
	SupportsAddConstraint() bool

	// SupportsIfExists reports whether IF EXISTS / IF NOT EXISTS clauses work.
	SupportsIfExists() bool
}

// Get returns the dialect implementation for the given name.
// Valid names: "postgres", "postgresql", "sqlite", "sqlite3".
// Returns nil if the dialect is not supported.
func Get(name string) Dialect {
	switch name {
	case "postgres", "postgresql":
		return Postgres()
	case "sqlite", "sqlite3":
		return SQLite()
	default:
		return nil
	}
}

// Names returns the list of supported dialect names.
func Names() []string {
	return []string{"postgres", "sqlite"}
}
