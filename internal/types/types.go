// Package types defines the portable semantic type system for Migral.
// Each semantic field type maps to a concrete SQL type per supported
// database dialect.
//
// The type system is designed to be:
//   - Portable: works across PostgreSQL and SQLite
//   - Simple: one way to do things, minimal options
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/merr"
)

// -----------------------------------------------------------------------------
// TypeDef - Type definition
// -----------------------------------------------------------------------------

// TypeDef describes one portable semantic type.
type TypeDef struct {
	Name           ast.FieldType // semantic name (e.g., "char", "datetime")
	SQLTypes       SQLTypeMap    // database-specific SQL types
	NeedsMaxLength bool          // true if max_length is required
	NeedsChoices   bool          // true if a choice set is required
	Relation       bool          // true for relation types (no direct column type)
}

// SQLTypeMap holds database-specific SQL type strings.
// Types with a length carry a %d placeholder for substitution.
type SQLTypeMap struct {
	Postgres string
	SQLite   string
}

// -----------------------------------------------------------------------------
// Type Registry
// -----------------------------------------------------------------------------

// registry holds all registered types indexed by semantic name.
var registry = make(map[ast.FieldType]*TypeDef)

// Register adds a type to the registry.
// Panics if a type with the same name is already registered.
func Register(t *TypeDef) {
	if _, exists := registry[t.Name]; exists {
		panic("type already registered: " + string(t.Name))
	}
	registry[t.Name] = t
}

// Get returns the type definition for the given name, or nil.
func Get(name ast.FieldType) *TypeDef {
	return registry[name]
}

// Exists reports whether a type with the given name is registered.
func Exists(name ast.FieldType) bool {
	return registry[name] != nil
}

// All returns all registered types sorted by name.
func All() []*TypeDef {
	types := make([]*TypeDef, 0, len(registry))
	for _, t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}

// Names returns the sorted semantic names of every registered type.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------
// SQL mapping
// -----------------------------------------------------------------------------

// Dialect selects the SQL flavor for type rendering.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// SQLFor returns the concrete SQL column type for a field descriptor.
// Relation types have no direct column type and return an error; the
// caller renders the FK column or junction table instead.
func SQLFor(d Dialect, f *ast.FieldDef) (string, error) {
	t := Get(f.Type)
	if t == nil {
		err := merr.New(merr.ErrInvalidType, "unknown semantic type").
			With("type", string(f.Type)).
			WithField(f.Name)
		if help := merr.SuggestSimilar(string(f.Type), Names()); help != "" {
			err = err.WithHelp(help)
		}
		return "", err
	}
	if t.Relation {
		return "", merr.New(merr.ErrInvalidType, "relation types have no direct column type").
			With("type", string(f.Type)).
			WithField(f.Name)
	}

	var sql string
	switch d {
	case Postgres:
		sql = t.SQLTypes.Postgres
	case SQLite:
		sql = t.SQLTypes.SQLite
	default:
		return "", merr.New(merr.ErrInvalidType, "unknown dialect").
			With("dialect", string(d))
	}

	if t.NeedsMaxLength {
		if f.MaxLength <= 0 {
			return "", merr.New(merr.ErrInvalidField, "type requires max_length").
				With("type", string(f.Type)).
				WithField(f.Name)
		}
		if strings.Contains(sql, "%d") {
			sql = fmt.Sprintf(sql, f.MaxLength)
		}
	}
	return sql, nil
}

// -----------------------------------------------------------------------------
// Built-in Types
// -----------------------------------------------------------------------------

func init() {
	// Unbounded text
	Register(&TypeDef{
		Name:     ast.TypeText,
		SQLTypes: SQLTypeMap{Postgres: "TEXT", SQLite: "TEXT"},
	})

	// Variable-length string with required max length
	Register(&TypeDef{
		Name:           ast.TypeChar,
		SQLTypes:       SQLTypeMap{Postgres: "VARCHAR(%d)", SQLite: "TEXT"},
		NeedsMaxLength: true,
	})

	// 32-bit integer (no 64-bit types for portability)
	Register(&TypeDef{
		Name:     ast.TypeInt,
		SQLTypes: SQLTypeMap{Postgres: "INTEGER", SQLite: "INTEGER"},
	})

	// 16-bit integer, used for compact enumerations and counters
	Register(&TypeDef{
		Name:     ast.TypeSmallInt,
		SQLTypes: SQLTypeMap{Postgres: "SMALLINT", SQLite: "INTEGER"},
	})

	Register(&TypeDef{
		Name:     ast.TypeFloat,
		SQLTypes: SQLTypeMap{Postgres: "DOUBLE PRECISION", SQLite: "REAL"},
	})

	Register(&TypeDef{
		Name:     ast.TypeBool,
		SQLTypes: SQLTypeMap{Postgres: "BOOLEAN", SQLite: "INTEGER"},
	})

	Register(&TypeDef{
		Name:     ast.TypeDate,
		SQLTypes: SQLTypeMap{Postgres: "DATE", SQLite: "TEXT"},
	})

	// Timezone-aware timestamp
	Register(&TypeDef{
		Name:     ast.TypeDateTime,
		SQLTypes: SQLTypeMap{Postgres: "TIMESTAMPTZ", SQLite: "TEXT"},
	})

	// Email is a constrained string; length checks live in app code
	Register(&TypeDef{
		Name:     ast.TypeEmail,
		SQLTypes: SQLTypeMap{Postgres: "VARCHAR(254)", SQLite: "TEXT"},
	})

	Register(&TypeDef{
		Name:     ast.TypeUUID,
		SQLTypes: SQLTypeMap{Postgres: "UUID", SQLite: "TEXT"},
	})

	Register(&TypeDef{
		Name:     ast.TypeJSON,
		SQLTypes: SQLTypeMap{Postgres: "JSONB", SQLite: "TEXT"},
	})

	// Enum renders as its code column plus a CHECK constraint over the codes
	Register(&TypeDef{
		Name:         ast.TypeEnum,
		SQLTypes:     SQLTypeMap{Postgres: "VARCHAR(64)", SQLite: "TEXT"},
		NeedsChoices: true,
	})

	Register(&TypeDef{
		Name:     ast.TypeForeignKey,
		Relation: true,
	})

	Register(&TypeDef{
		Name:     ast.TypeManyToMany,
		Relation: true,
	})
}
