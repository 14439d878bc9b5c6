// Package sqlgen renders schema snapshots as executable DDL. Dialect
// primitives (quoting, type mapping, literals) come from internal/dialect;
// this package owns statement assembly and emission order.
package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/dialect"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/merr"
)

// Builder renders models and full schemas as DDL statements for one dialect.
type Builder struct {
	d dialect.Dialect
}

// NewBuilder creates a Builder for the given dialect.
func NewBuilder(d dialect.Dialect) *Builder {
	return &Builder{d: d}
}

// Dialect returns the dialect this builder renders for.
func (b *Builder) Dialect() dialect.Dialect {
	return b.d
}

// ----------------------------------------------------------------------------
// Naming
// ----------------------------------------------------------------------------

// TableName returns the physical table name for a model: namespace_model.
func TableName(m *ast.ModelDef) string {
	return m.Namespace + "_" + m.Name
}

// JunctionTableName returns the physical table name for a many-to-many
// relation: namespace_model_field.
func JunctionTableName(m *ast.ModelDef, f *ast.FieldDef) string {
	return m.Namespace + "_" + m.Name + "_" + f.Name
}

// ColumnName returns the physical column name for a field. Foreign keys
// store the target's key and carry an _id suffix; every other field maps
// to a column of its own name. Many-to-many fields have no column, they
// live in a junction table.
func ColumnName(f *ast.FieldDef) string {
	if f.Type == ast.TypeForeignKey {
		return f.Name + "_id"
	}
	return f.Name
}

// JunctionColumns returns the endpoint column names of a junction table.
// A relation from a model to itself prefixes them with from_/to_ so the
// two sides stay distinct.
func JunctionColumns(m, target *ast.ModelDef) (own, other string) {
	own = m.Name + "_id"
	other = target.Name + "_id"
	if m.QualifiedName() == target.QualifiedName() {
		own = "from_" + m.Name + "_id"
		other = "to_" + target.Name + "_id"
	}
	return own, other
}

// refTableName resolves a relation field's target model to its table name.
func refTableName(schema *state.Schema, m *ast.ModelDef, f *ast.FieldDef) (string, error) {
	target, ok := schema.GetModel(f.Ref)
	if !ok {
		return "", merr.New(merr.ErrUnresolvedReference, "relation target does not exist").
			WithModel(m.Namespace, m.Name).
			WithField(f.Name).
			With("target", f.Ref)
	}
	return TableName(target), nil
}

// deleteAction maps an on-delete policy to its SQL referential action.
func deleteAction(p ast.DeletePolicy) string {
	switch p {
	case ast.DeleteSetNull:
		return "SET NULL"
	case ast.DeleteProtect:
		return "RESTRICT"
	case ast.DeleteNoAction:
		return "NO ACTION"
	default:
		return "CASCADE"
	}
}

// ----------------------------------------------------------------------------
// Whole-schema rendering
// ----------------------------------------------------------------------------

// SchemaDDL renders the complete schema as an ordered list of DDL statements.
//
// Model tables come first, then one ALTER TABLE ADD CONSTRAINT per foreign
// key on dialects that support it, then junction tables for many-to-many
// relations. Dialects without ADD CONSTRAINT get inline REFERENCES clauses
// instead, which forces the model tables into foreign-key dependency order.
// Junction tables always reference tables that already exist, so their
// foreign keys are inline on every dialect.
func (b *Builder) SchemaDDL(schema *state.Schema) ([]string, error) {
	models := schema.ModelList()

	ordered := models
	if !b.d.SupportsAddConstraint() {
		var err error
		ordered, err = orderByForeignKeys(models)
		if err != nil {
			return nil, err
		}
	}

	var stmts []string
	for _, m := range ordered {
		sql, err := b.CreateModelSQL(schema, m)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, sql)
	}

	if b.d.SupportsAddConstraint() {
		for _, m := range models {
			for _, f := range m.Relations() {
				if f.Type != ast.TypeForeignKey {
					continue
				}
				sql, err := b.AddForeignKeySQL(schema, m, f)
				if err != nil {
					return nil, err
				}
				stmts = append(stmts, sql)
			}
		}
	}

	for _, m := range models {
		for _, f := range m.Relations() {
			if f.Type != ast.TypeManyToMany {
				continue
			}
			sql, err := b.JunctionTableSQL(schema, m, f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, sql)
		}
	}

	return stmts, nil
}

// orderByForeignKeys sorts models so every foreign-key target precedes its
// referrers. Input is already name-sorted and ties keep that order, so the
// result is deterministic. Self-references impose no ordering.
func orderByForeignKeys(models []*ast.ModelDef) ([]*ast.ModelDef, error) {
	byName := make(map[string]*ast.ModelDef, len(models))
	indegree := make(map[string]int, len(models))
	dependents := make(map[string][]string, len(models))

	for _, m := range models {
		byName[m.QualifiedName()] = m
		indegree[m.QualifiedName()] = 0
	}
	for _, m := range models {
		name := m.QualifiedName()
		for _, f := range m.Relations() {
			if f.Type != ast.TypeForeignKey || f.Ref == name {
				continue
			}
			if _, ok := byName[f.Ref]; !ok {
				return nil, merr.New(merr.ErrUnresolvedReference, "relation target does not exist").
					WithModel(m.Namespace, m.Name).
					WithField(f.Name).
					With("target", f.Ref)
			}
			indegree[name]++
			dependents[f.Ref] = append(dependents[f.Ref], name)
		}
	}

	var frontier []string
	for name, n := range indegree {
		if n == 0 {
			frontier = append(frontier, name)
		}
	}
	sort.Strings(frontier)

	ordered := make([]*ast.ModelDef, 0, len(models))
	for len(frontier) > 0 {
		name := frontier[0]
		frontier = frontier[1:]
		ordered = append(ordered, byName[name])

		released := false
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				frontier = append(frontier, dep)
				released = true
			}
		}
		if released {
			sort.Strings(frontier)
		}
	}

	if len(ordered) != len(models) {
		var stuck []string
		for name, n := range indegree {
			if n > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, merr.New(merr.ErrCyclicDependency, "foreign keys form a cycle between models").
			With("models", strings.Join(stuck, ", "))
	}

	return ordered, nil
}

// ----------------------------------------------------------------------------
// Table rendering
// ----------------------------------------------------------------------------

// CreateModelSQL renders the CREATE TABLE statement for a model. Many-to-many
// fields are skipped here; they become junction tables. Foreign-key columns
// get an inline REFERENCES clause only when the dialect cannot add the
// constraint afterwards.
func (b *Builder) CreateModelSQL(schema *state.Schema, m *ast.ModelDef) (string, error) {
	return b.createModelNamed(schema, m, TableName(m))
}

// createModelNamed renders a model's CREATE TABLE under an explicit table
// name. Table rebuilds create the replacement under a temporary name.
func (b *Builder) createModelNamed(schema *state.Schema, m *ast.ModelDef, table string) (string, error) {
	lines := []string{b.keyColumnSQL()}

	for _, f := range m.Fields {
		if f.Type == ast.TypeManyToMany {
			continue
		}
		col, err := b.columnSQL(schema, m, f)
		if err != nil {
			return "", err
		}
		lines = append(lines, col)
	}

	for _, set := range m.UniqueTogether {
		lines = append(lines, b.uniqueTogetherSQL(m, set))
	}

	return b.createTable(table, lines), nil
}

// keyColumnSQL renders the generated primary key column.
func (b *Builder) keyColumnSQL() string {
	var sb strings.Builder
	sb.WriteString(b.d.QuoteIdent("id"))
	sb.WriteString(" ")
	sb.WriteString(b.d.KeyType())
	if def := b.d.KeyDefault(); def != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	sb.WriteString(" PRIMARY KEY")
	return sb.String()
}

// columnSQL renders one column definition for a plain or foreign-key field.
func (b *Builder) columnSQL(schema *state.Schema, m *ast.ModelDef, f *ast.FieldDef) (string, error) {
	var sb strings.Builder
	sb.WriteString(b.d.QuoteIdent(ColumnName(f)))
	sb.WriteString(" ")

	if f.Type == ast.TypeForeignKey {
		sb.WriteString(b.d.KeyType())
	} else {
		typ, err := b.d.ColumnType(f)
		if err != nil {
			return "", err
		}
		sb.WriteString(typ)
	}

	if !f.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if f.DefaultSet {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(b.d.Literal(f.Default))
	}
	if f.Unique {
		sb.WriteString(" UNIQUE")
	}
	if f.Type == ast.TypeEnum && len(f.Choices) > 0 {
		sb.WriteString(" CHECK (")
		sb.WriteString(b.d.QuoteIdent(f.Name))
		sb.WriteString(" IN (")
		for i, c := range f.Choices {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(b.d.Literal(c.Code))
		}
		sb.WriteString("))")
	}

	if f.Type == ast.TypeForeignKey && !b.d.SupportsAddConstraint() {
		table, err := refTableName(schema, m, f)
		if err != nil {
			return "", err
		}
		sb.WriteString(b.referencesSQL(table, f.OnDelete))
	}

	return sb.String(), nil
}

// uniqueTogetherSQL renders a multi-column UNIQUE table constraint.
// Members naming foreign-key fields map to their _id columns.
func (b *Builder) uniqueTogetherSQL(m *ast.ModelDef, set []string) string {
	cols := make([]string, len(set))
	for i, name := range set {
		col := name
		if f := m.GetField(name); f != nil {
			col = ColumnName(f)
		}
		cols[i] = b.d.QuoteIdent(col)
	}
	return "UNIQUE (" + strings.Join(cols, ", ") + ")"
}

// referencesSQL renders an inline foreign-key clause.
func (b *Builder) referencesSQL(table string, policy ast.DeletePolicy) string {
	return fmt.Sprintf(" REFERENCES %s(%s) ON DELETE %s",
		b.d.QuoteIdent(table), b.d.QuoteIdent("id"), deleteAction(policy))
}

// AddForeignKeySQL renders the ALTER TABLE ADD CONSTRAINT statement for one
// foreign-key field. Only valid on dialects where SupportsAddConstraint holds.
func (b *Builder) AddForeignKeySQL(schema *state.Schema, m *ast.ModelDef, f *ast.FieldDef) (string, error) {
	table, err := refTableName(schema, m, f)
	if err != nil {
		return "", err
	}
	own := TableName(m)
	col := ColumnName(f)
	constraint := "fk_" + own + "_" + col
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s)%s",
		b.d.QuoteIdent(own), b.d.QuoteIdent(constraint), b.d.QuoteIdent(col),
		b.referencesSQL(table, f.OnDelete)), nil
}

// ----------------------------------------------------------------------------
// Junction tables
// ----------------------------------------------------------------------------

// JunctionTableSQL renders the CREATE TABLE statement for a many-to-many
// relation. Both endpoint columns cascade on delete so junction rows never
// outlive either side. A relation from a model to itself prefixes the
// columns with from_/to_ to keep them distinct.
func (b *Builder) JunctionTableSQL(schema *state.Schema, m *ast.ModelDef, f *ast.FieldDef) (string, error) {
	target, ok := schema.GetModel(f.Ref)
	if !ok {
		return "", merr.New(merr.ErrUnresolvedReference, "relation target does not exist").
			WithModel(m.Namespace, m.Name).
			WithField(f.Name).
			With("target", f.Ref)
	}

	ownCol, targetCol := JunctionColumns(m, target)

	lines := []string{
		b.keyColumnSQL(),
		b.junctionColumnSQL(ownCol, TableName(m)),
		b.junctionColumnSQL(targetCol, TableName(target)),
		fmt.Sprintf("UNIQUE (%s, %s)", b.d.QuoteIdent(ownCol), b.d.QuoteIdent(targetCol)),
	}

	return b.createTable(JunctionTableName(m, f), lines), nil
}

// junctionColumnSQL renders one endpoint column of a junction table.
func (b *Builder) junctionColumnSQL(col, table string) string {
	return fmt.Sprintf("%s %s NOT NULL%s",
		b.d.QuoteIdent(col), b.d.KeyType(), b.referencesSQL(table, ast.DeleteCascade))
}

// createTable assembles a formatted CREATE TABLE statement.
func (b *Builder) createTable(name string, lines []string) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(b.d.QuoteIdent(name))
	sb.WriteString(" (\n")
	for i, line := range lines {
		sb.WriteString("    ")
		sb.WriteString(line)
		if i < len(lines)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")
	return sb.String()
}
