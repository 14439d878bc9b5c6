package sqlgen

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/merr"
)

// OperationSQL renders the statements that bring a database from the schema
// before an operation to the schema after it. The caller supplies both
// snapshots; replaying node operations one at a time yields the pairs.
//
// On dialects with ADD CONSTRAINT, field alters become ALTER TABLE ALTER
// COLUMN statements. Without it the table is rebuilt: the replacement is
// created under a temporary name, shared columns are copied across, and the
// rebuilt table takes over the original name. Foreign key enforcement must
// be off while a rebuild runs, so the rebuild emits the pragma toggles
// itself.
func (b *Builder) OperationSQL(before, after *state.Schema, op ast.Operation) ([]string, error) {
	switch o := op.(type) {
	case *ast.CreateModel:
		return b.createModelOps(after, o)
	case *ast.RenameModel:
		return b.renameModelOps(before, o)
	case *ast.RemoveModel:
		return b.removeModelOps(before, o)
	case *ast.AddField:
		return b.addFieldOps(after, o.Namespace, o.Model_, o.Field)
	case *ast.AddManyToMany:
		return b.addManyToManyOps(after, o.Namespace, o.Model_, o.Field)
	case *ast.RemoveField:
		return b.removeFieldOps(before, o)
	case *ast.AlterField:
		return b.alterFieldOps(before, after, o.Namespace, o.Model_, o.Field.Name)
	case *ast.AlterManyToMany:
		// Replacing a many-to-many descriptor changes reverse accessors,
		// not storage. The junction table is keyed by the field name,
		// which AlterManyToMany cannot change.
		return nil, nil
	case *ast.AlterUniqueTogether:
		return b.alterUniqueTogetherOps(before, after, o)
	default:
		return nil, merr.New(merr.ErrInvalidOperation, "unknown operation kind").
			With("kind", op.Kind().String())
	}
}

// mustGet resolves a model that replay has already validated.
func mustGet(schema *state.Schema, ns, name string) (*ast.ModelDef, error) {
	m, ok := schema.GetModelByParts(ns, name)
	if !ok {
		return nil, merr.New(merr.ErrUnknownModel, "model does not exist").
			WithModel(ns, name)
	}
	return m, nil
}

func (b *Builder) createModelOps(after *state.Schema, op *ast.CreateModel) ([]string, error) {
	m, err := mustGet(after, op.Namespace, op.Name)
	if err != nil {
		return nil, err
	}

	sql, err := b.CreateModelSQL(after, m)
	if err != nil {
		return nil, err
	}
	stmts := []string{sql}

	for _, f := range m.Relations() {
		switch f.Type {
		case ast.TypeForeignKey:
			if !b.d.SupportsAddConstraint() {
				continue
			}
			fk, err := b.AddForeignKeySQL(after, m, f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, fk)
		case ast.TypeManyToMany:
			junction, err := b.JunctionTableSQL(after, m, f)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, junction)
		}
	}
	return stmts, nil
}

func (b *Builder) renameModelOps(before *state.Schema, op *ast.RenameModel) ([]string, error) {
	old, err := mustGet(before, op.Namespace, op.OldName)
	if err != nil {
		return nil, err
	}
	renamed := &ast.ModelDef{Namespace: op.Namespace, Name: op.NewName}

	stmts := []string{fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		b.d.QuoteIdent(TableName(old)), b.d.QuoteIdent(TableName(renamed)))}

	// Junction tables carry the owning model's name.
	for _, f := range old.Relations() {
		if f.Type != ast.TypeManyToMany {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
			b.d.QuoteIdent(JunctionTableName(old, f)),
			b.d.QuoteIdent(JunctionTableName(renamed, f))))
	}
	return stmts, nil
}

func (b *Builder) removeModelOps(before *state.Schema, op *ast.RemoveModel) ([]string, error) {
	m, err := mustGet(before, op.Namespace, op.Name)
	if err != nil {
		return nil, err
	}

	var stmts []string
	for _, f := range m.Relations() {
		if f.Type == ast.TypeManyToMany {
			stmts = append(stmts, "DROP TABLE "+b.d.QuoteIdent(JunctionTableName(m, f)))
		}
	}
	stmts = append(stmts, "DROP TABLE "+b.d.QuoteIdent(TableName(m)))
	return stmts, nil
}

func (b *Builder) addFieldOps(after *state.Schema, ns, modelName string, field *ast.FieldDef) ([]string, error) {
	m, err := mustGet(after, ns, modelName)
	if err != nil {
		return nil, err
	}
	f := m.GetField(field.Name)
	if f == nil {
		return nil, merr.New(merr.ErrUnknownField, "field does not exist").
			WithModel(ns, modelName).
			WithField(field.Name)
	}

	col, err := b.columnSQL(after, m, f)
	if err != nil {
		return nil, err
	}
	stmts := []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		b.d.QuoteIdent(TableName(m)), col)}

	if f.Type == ast.TypeForeignKey && b.d.SupportsAddConstraint() {
		fk, err := b.AddForeignKeySQL(after, m, f)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, fk)
	}
	return stmts, nil
}

func (b *Builder) addManyToManyOps(after *state.Schema, ns, modelName string, field *ast.FieldDef) ([]string, error) {
	m, err := mustGet(after, ns, modelName)
	if err != nil {
		return nil, err
	}
	f := m.GetField(field.Name)
	if f == nil {
		return nil, merr.New(merr.ErrUnknownField, "field does not exist").
			WithModel(ns, modelName).
			WithField(field.Name)
	}

	junction, err := b.JunctionTableSQL(after, m, f)
	if err != nil {
		return nil, err
	}
	return []string{junction}, nil
}

func (b *Builder) removeFieldOps(before *state.Schema, op *ast.RemoveField) ([]string, error) {
	m, err := mustGet(before, op.Namespace, op.Model_)
	if err != nil {
		return nil, err
	}
	f := m.GetField(op.Name)
	if f == nil {
		return nil, merr.New(merr.ErrUnknownField, "field does not exist").
			WithModel(op.Namespace, op.Model_).
			WithField(op.Name)
	}

	if f.Type == ast.TypeManyToMany {
		return []string{"DROP TABLE " + b.d.QuoteIdent(JunctionTableName(m, f))}, nil
	}
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		b.d.QuoteIdent(TableName(m)), b.d.QuoteIdent(ColumnName(f)))}, nil
}

// physicalEqual reports whether two descriptors map to the same column
// definition. Reverse accessor names and documentation are metadata only.
func physicalEqual(a, z *ast.FieldDef) bool {
	if a.Name != z.Name || a.Type != z.Type || a.Nullable != z.Nullable ||
		a.Unique != z.Unique || a.MaxLength != z.MaxLength ||
		a.DefaultSet != z.DefaultSet || a.Ref != z.Ref || a.OnDelete != z.OnDelete {
		return false
	}
	if a.DefaultSet && !reflect.DeepEqual(a.Default, z.Default) {
		return false
	}
	if len(a.Choices) != len(z.Choices) {
		return false
	}
	for i := range a.Choices {
		if a.Choices[i].Code != z.Choices[i].Code {
			return false
		}
	}
	return true
}

func (b *Builder) alterFieldOps(before, after *state.Schema, ns, modelName, fieldName string) ([]string, error) {
	oldModel, err := mustGet(before, ns, modelName)
	if err != nil {
		return nil, err
	}
	newModel, err := mustGet(after, ns, modelName)
	if err != nil {
		return nil, err
	}
	oldField := oldModel.GetField(fieldName)
	newField := newModel.GetField(fieldName)
	if oldField == nil || newField == nil {
		return nil, merr.New(merr.ErrUnknownField, "field does not exist").
			WithModel(ns, modelName).
			WithField(fieldName)
	}

	if physicalEqual(oldField, newField) {
		return nil, nil
	}
	if !b.d.SupportsAddConstraint() {
		return b.rebuildTableOps(before, after, newModel)
	}
	return b.alterColumnOps(after, newModel, oldField, newField)
}

// alterColumnOps renders in-place column alters for dialects that support
// ALTER TABLE ALTER COLUMN. Constraint names follow the server's default
// naming for inline constraints, so alters line up with created tables.
func (b *Builder) alterColumnOps(after *state.Schema, m *ast.ModelDef, oldField, newField *ast.FieldDef) ([]string, error) {
	table := TableName(m)
	col := ColumnName(newField)
	alter := "ALTER TABLE " + b.d.QuoteIdent(table)
	var stmts []string

	typeChanged := oldField.Type != newField.Type || oldField.MaxLength != newField.MaxLength
	if typeChanged && newField.Type != ast.TypeForeignKey {
		typ, err := b.d.ColumnType(newField)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, fmt.Sprintf("%s ALTER COLUMN %s TYPE %s",
			alter, b.d.QuoteIdent(col), typ))
	}

	if oldField.Nullable != newField.Nullable {
		verb := "SET"
		if newField.Nullable {
			verb = "DROP"
		}
		stmts = append(stmts, fmt.Sprintf("%s ALTER COLUMN %s %s NOT NULL",
			alter, b.d.QuoteIdent(col), verb))
	}

	if oldField.DefaultSet != newField.DefaultSet ||
		(newField.DefaultSet && !reflect.DeepEqual(oldField.Default, newField.Default)) {
		if newField.DefaultSet {
			stmts = append(stmts, fmt.Sprintf("%s ALTER COLUMN %s SET DEFAULT %s",
				alter, b.d.QuoteIdent(col), b.d.Literal(newField.Default)))
		} else {
			stmts = append(stmts, fmt.Sprintf("%s ALTER COLUMN %s DROP DEFAULT",
				alter, b.d.QuoteIdent(col)))
		}
	}

	if oldField.Unique != newField.Unique {
		name := uniqueConstraintName(table, []string{col})
		if newField.Unique {
			stmts = append(stmts, fmt.Sprintf("%s ADD CONSTRAINT %s UNIQUE (%s)",
				alter, b.d.QuoteIdent(name), b.d.QuoteIdent(col)))
		} else {
			stmts = append(stmts, fmt.Sprintf("%s DROP CONSTRAINT %s",
				alter, b.d.QuoteIdent(name)))
		}
	}

	oldEnum := oldField.Type == ast.TypeEnum
	newEnum := newField.Type == ast.TypeEnum
	if oldEnum != newEnum || (newEnum && choicesChanged(oldField, newField)) {
		check := checkConstraintName(table, newField.Name)
		if oldEnum {
			stmts = append(stmts, fmt.Sprintf("%s DROP CONSTRAINT %s", alter, b.d.QuoteIdent(check)))
		}
		if newEnum {
			codes := make([]string, len(newField.Choices))
			for i, c := range newField.Choices {
				codes[i] = b.d.Literal(c.Code)
			}
			stmts = append(stmts, fmt.Sprintf("%s ADD CONSTRAINT %s CHECK (%s IN (%s))",
				alter, b.d.QuoteIdent(check), b.d.QuoteIdent(newField.Name),
				strings.Join(codes, ", ")))
		}
	}

	if oldField.Type == ast.TypeForeignKey || newField.Type == ast.TypeForeignKey {
		refChanged := oldField.Ref != newField.Ref || oldField.OnDelete != newField.OnDelete ||
			oldField.Type != newField.Type
		if refChanged {
			constraint := "fk_" + table + "_" + col
			if oldField.Type == ast.TypeForeignKey {
				stmts = append(stmts, fmt.Sprintf("%s DROP CONSTRAINT %s",
					alter, b.d.QuoteIdent(constraint)))
			}
			if newField.Type == ast.TypeForeignKey {
				fk, err := b.AddForeignKeySQL(after, m, newField)
				if err != nil {
					return nil, err
				}
				stmts = append(stmts, fk)
			}
		}
	}

	return stmts, nil
}

func choicesChanged(a, z *ast.FieldDef) bool {
	if len(a.Choices) != len(z.Choices) {
		return true
	}
	for i := range a.Choices {
		if a.Choices[i].Code != z.Choices[i].Code {
			return true
		}
	}
	return false
}

// uniqueConstraintName mirrors the server's default name for an inline
// UNIQUE constraint: table_col1_col2_key.
func uniqueConstraintName(table string, cols []string) string {
	return table + "_" + strings.Join(cols, "_") + "_key"
}

// checkConstraintName mirrors the server's default name for an inline
// CHECK constraint: table_col_check.
func checkConstraintName(table, col string) string {
	return table + "_" + col + "_check"
}

func (b *Builder) alterUniqueTogetherOps(before, after *state.Schema, op *ast.AlterUniqueTogether) ([]string, error) {
	oldModel, err := mustGet(before, op.Namespace, op.Model_)
	if err != nil {
		return nil, err
	}
	newModel, err := mustGet(after, op.Namespace, op.Model_)
	if err != nil {
		return nil, err
	}

	if !b.d.SupportsAddConstraint() {
		return b.rebuildTableOps(before, after, newModel)
	}

	table := TableName(newModel)
	alter := "ALTER TABLE " + b.d.QuoteIdent(table)

	key := func(set []string) string {
		cols := make([]string, len(set))
		for i, name := range set {
			cols[i] = name
			if f := newModel.GetField(name); f != nil {
				cols[i] = ColumnName(f)
			} else if f := oldModel.GetField(name); f != nil {
				cols[i] = ColumnName(f)
			}
		}
		return strings.Join(cols, "\x00")
	}

	oldSets := make(map[string][]string, len(oldModel.UniqueTogether))
	for _, set := range oldModel.UniqueTogether {
		oldSets[key(set)] = set
	}
	newSets := make(map[string][]string, len(newModel.UniqueTogether))
	for _, set := range newModel.UniqueTogether {
		newSets[key(set)] = set
	}

	var stmts []string
	for _, set := range oldModel.UniqueTogether {
		k := key(set)
		if _, kept := newSets[k]; kept {
			continue
		}
		cols := strings.Split(k, "\x00")
		stmts = append(stmts, fmt.Sprintf("%s DROP CONSTRAINT %s",
			alter, b.d.QuoteIdent(uniqueConstraintName(table, cols))))
	}
	for _, set := range newModel.UniqueTogether {
		k := key(set)
		if _, had := oldSets[k]; had {
			continue
		}
		cols := strings.Split(k, "\x00")
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = b.d.QuoteIdent(c)
		}
		stmts = append(stmts, fmt.Sprintf("%s ADD CONSTRAINT %s UNIQUE (%s)",
			alter, b.d.QuoteIdent(uniqueConstraintName(table, cols)),
			strings.Join(quoted, ", ")))
	}
	return stmts, nil
}

// rebuildTableOps replaces a table with a freshly rendered copy, keeping
// rows for every column the old and new definitions share.
func (b *Builder) rebuildTableOps(before, after *state.Schema, newModel *ast.ModelDef) ([]string, error) {
	oldModel, ok := before.GetModelByParts(newModel.Namespace, newModel.Name)
	if !ok {
		return nil, merr.New(merr.ErrUnknownModel, "model does not exist").
			WithModel(newModel.Namespace, newModel.Name)
	}

	table := TableName(newModel)
	tmp := table + "__new"

	create, err := b.createModelNamed(after, newModel, tmp)
	if err != nil {
		return nil, err
	}

	shared := []string{b.d.QuoteIdent("id")}
	for _, f := range newModel.Fields {
		if f.Type == ast.TypeManyToMany {
			continue
		}
		old := oldModel.GetField(f.Name)
		if old == nil || old.Type == ast.TypeManyToMany {
			continue
		}
		if ColumnName(old) == ColumnName(f) {
			shared = append(shared, b.d.QuoteIdent(ColumnName(f)))
		}
	}
	cols := strings.Join(shared, ", ")

	return []string{
		"PRAGMA foreign_keys = OFF",
		create,
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			b.d.QuoteIdent(tmp), cols, cols, b.d.QuoteIdent(table)),
		"DROP TABLE " + b.d.QuoteIdent(table),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", b.d.QuoteIdent(tmp), b.d.QuoteIdent(table)),
		"PRAGMA foreign_keys = ON",
	}, nil
}
