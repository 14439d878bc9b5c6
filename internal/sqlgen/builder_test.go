package sqlgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/dialect"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/merr"
)

func crisisOps() []ast.Operation {
	return []ast.Operation{
		&ast.CreateModel{
			ModelOp: ast.ModelOp{Namespace: "organization", Name: "organization"},
			Fields: []*ast.FieldDef{
				{Name: "name", Type: ast.TypeChar, MaxLength: 120, Unique: true},
				{Name: "active", Type: ast.TypeBool, Default: true, DefaultSet: true},
			},
		},
		&ast.CreateModel{
			ModelOp: ast.ModelOp{Namespace: "country", Name: "country"},
			Fields: []*ast.FieldDef{
				{Name: "name", Type: ast.TypeChar, MaxLength: 90},
				{Name: "iso_code", Type: ast.TypeChar, MaxLength: 2, Unique: true},
			},
		},
		&ast.CreateModel{
			ModelOp: ast.ModelOp{Namespace: "contact", Name: "contact"},
			Fields: []*ast.FieldDef{
				{Name: "name", Type: ast.TypeChar, MaxLength: 120},
				{Name: "email", Type: ast.TypeEmail, Unique: true},
				{
					Name:       "designation",
					Type:       ast.TypeEnum,
					Choices:    []ast.Choice{{Code: "0", Label: "Mr"}, {Code: "1", Label: "Ms"}},
					Default:    "0",
					DefaultSet: true,
				},
				{
					Name:        "organization",
					Type:        ast.TypeForeignKey,
					Ref:         "organization.organization",
					OnDelete:    ast.DeleteCascade,
					RelatedName: "contacts",
				},
				{
					Name:        "countries_of_operation",
					Type:        ast.TypeManyToMany,
					Ref:         "country.country",
					RelatedName: "operating_contacts",
				},
			},
			UniqueTogether: [][]string{{"name", "organization"}},
		},
	}
}

func buildSchema(t *testing.T, ops []ast.Operation) *state.Schema {
	t.Helper()
	schema, err := state.ReplayOperations(ops)
	if err != nil {
		t.Fatalf("ReplayOperations() error = %v", err)
	}
	return schema
}

func mustDialect(t *testing.T, name string) dialect.Dialect {
	t.Helper()
	d := dialect.Get(name)
	if d == nil {
		t.Fatalf("dialect.Get(%q) = nil", name)
	}
	return d
}

func mustModel(t *testing.T, schema *state.Schema, qualified string) *ast.ModelDef {
	t.Helper()
	m, ok := schema.GetModel(qualified)
	if !ok {
		t.Fatalf("model %s not in schema", qualified)
	}
	return m
}

// -----------------------------------------------------------------------------
// Naming Tests
// -----------------------------------------------------------------------------

func TestNaming(t *testing.T) {
	m := &ast.ModelDef{Namespace: "contact", Name: "contact"}

	if got := TableName(m); got != "contact_contact" {
		t.Errorf("TableName() = %q, want %q", got, "contact_contact")
	}

	m2m := &ast.FieldDef{Name: "countries_of_operation", Type: ast.TypeManyToMany}
	if got := JunctionTableName(m, m2m); got != "contact_contact_countries_of_operation" {
		t.Errorf("JunctionTableName() = %q, want %q", got, "contact_contact_countries_of_operation")
	}

	fk := &ast.FieldDef{Name: "organization", Type: ast.TypeForeignKey}
	if got := ColumnName(fk); got != "organization_id" {
		t.Errorf("ColumnName(fk) = %q, want %q", got, "organization_id")
	}
	plain := &ast.FieldDef{Name: "email", Type: ast.TypeEmail}
	if got := ColumnName(plain); got != "email" {
		t.Errorf("ColumnName(plain) = %q, want %q", got, "email")
	}
}

// -----------------------------------------------------------------------------
// CreateModelSQL Tests
// -----------------------------------------------------------------------------

func TestCreateModelSQL_Postgres(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	b := NewBuilder(mustDialect(t, "postgres"))

	got, err := b.CreateModelSQL(schema, mustModel(t, schema, "contact.contact"))
	if err != nil {
		t.Fatalf("CreateModelSQL() error = %v", err)
	}

	want := `CREATE TABLE "contact_contact" (
    "id" UUID DEFAULT gen_random_uuid() PRIMARY KEY,
    "name" VARCHAR(120) NOT NULL,
    "email" VARCHAR(254) NOT NULL UNIQUE,
    "designation" VARCHAR(64) NOT NULL DEFAULT '0' CHECK ("designation" IN ('0', '1')),
    "organization_id" UUID NOT NULL,
    UNIQUE ("name", "organization_id")
)`
	if got != want {
		t.Errorf("CreateModelSQL() =\n%s\nwant:\n%s", got, want)
	}
}

func TestCreateModelSQL_SQLiteInlineForeignKey(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	b := NewBuilder(mustDialect(t, "sqlite"))

	got, err := b.CreateModelSQL(schema, mustModel(t, schema, "contact.contact"))
	if err != nil {
		t.Fatalf("CreateModelSQL() error = %v", err)
	}

	want := `CREATE TABLE "contact_contact" (
    "id" TEXT PRIMARY KEY,
    "name" TEXT NOT NULL,
    "email" TEXT NOT NULL UNIQUE,
    "designation" TEXT NOT NULL DEFAULT '0' CHECK ("designation" IN ('0', '1')),
    "organization_id" TEXT NOT NULL REFERENCES "organization_organization"("id") ON DELETE CASCADE,
    UNIQUE ("name", "organization_id")
)`
	if got != want {
		t.Errorf("CreateModelSQL() =\n%s\nwant:\n%s", got, want)
	}
}

func TestCreateModelSQL_BoolDefault(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	org := mustModel(t, schema, "organization.organization")

	pg, err := NewBuilder(mustDialect(t, "postgres")).CreateModelSQL(schema, org)
	if err != nil {
		t.Fatalf("CreateModelSQL() error = %v", err)
	}
	if !strings.Contains(pg, `"active" BOOLEAN NOT NULL DEFAULT TRUE`) {
		t.Errorf("postgres bool default missing:\n%s", pg)
	}

	lite, err := NewBuilder(mustDialect(t, "sqlite")).CreateModelSQL(schema, org)
	if err != nil {
		t.Fatalf("CreateModelSQL() error = %v", err)
	}
	if !strings.Contains(lite, `"active" INTEGER NOT NULL DEFAULT 1`) {
		t.Errorf("sqlite bool default missing:\n%s", lite)
	}
}

func TestCreateModelSQL_NullablePolicy(t *testing.T) {
	schema := state.NewSchema()
	owner := &ast.ModelDef{
		Namespace: "event",
		Name:      "event",
		Fields: []*ast.FieldDef{
			{
				Name:     "country",
				Type:     ast.TypeForeignKey,
				Ref:      "country.country",
				OnDelete: ast.DeleteSetNull,
				Nullable: true,
			},
		},
	}
	target := &ast.ModelDef{Namespace: "country", Name: "country"}
	for _, m := range []*ast.ModelDef{owner, target} {
		if err := schema.AddModel(m); err != nil {
			t.Fatalf("AddModel() error = %v", err)
		}
	}

	got, err := NewBuilder(mustDialect(t, "sqlite")).CreateModelSQL(schema, owner)
	if err != nil {
		t.Fatalf("CreateModelSQL() error = %v", err)
	}
	want := `"country_id" TEXT REFERENCES "country_country"("id") ON DELETE SET NULL`
	if !strings.Contains(got, want) {
		t.Errorf("nullable set_null column missing:\ngot:\n%s\nwant fragment: %s", got, want)
	}
	if strings.Contains(got, `"country_id" TEXT NOT NULL`) {
		t.Errorf("nullable column rendered NOT NULL:\n%s", got)
	}
}

// -----------------------------------------------------------------------------
// Foreign Key Constraint Tests
// -----------------------------------------------------------------------------

func TestAddForeignKeySQL(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	contact := mustModel(t, schema, "contact.contact")
	b := NewBuilder(mustDialect(t, "postgres"))

	got, err := b.AddForeignKeySQL(schema, contact, contact.GetField("organization"))
	if err != nil {
		t.Fatalf("AddForeignKeySQL() error = %v", err)
	}
	want := `ALTER TABLE "contact_contact" ADD CONSTRAINT "fk_contact_contact_organization_id" ` +
		`FOREIGN KEY ("organization_id") REFERENCES "organization_organization"("id") ON DELETE CASCADE`
	if got != want {
		t.Errorf("AddForeignKeySQL() =\n%s\nwant:\n%s", got, want)
	}
}

func TestAddForeignKeySQL_DeleteActions(t *testing.T) {
	tests := []struct {
		policy ast.DeletePolicy
		want   string
	}{
		{ast.DeleteCascade, "ON DELETE CASCADE"},
		{ast.DeleteSetNull, "ON DELETE SET NULL"},
		{ast.DeleteProtect, "ON DELETE RESTRICT"},
		{ast.DeleteNoAction, "ON DELETE NO ACTION"},
	}

	schema := buildSchema(t, crisisOps())
	contact := mustModel(t, schema, "contact.contact")
	b := NewBuilder(mustDialect(t, "postgres"))

	for _, tt := range tests {
		f := contact.GetField("organization").Clone()
		f.OnDelete = tt.policy
		got, err := b.AddForeignKeySQL(schema, contact, f)
		if err != nil {
			t.Fatalf("AddForeignKeySQL(%s) error = %v", tt.policy, err)
		}
		if !strings.HasSuffix(got, tt.want) {
			t.Errorf("AddForeignKeySQL(%s) = %q, want suffix %q", tt.policy, got, tt.want)
		}
	}
}

func TestAddForeignKeySQL_UnresolvedTarget(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	contact := mustModel(t, schema, "contact.contact")
	f := contact.GetField("organization").Clone()
	f.Ref = "organization.branch"

	_, err := NewBuilder(mustDialect(t, "postgres")).AddForeignKeySQL(schema, contact, f)
	if !errors.Is(err, merr.New(merr.ErrUnresolvedReference, "")) {
		t.Fatalf("AddForeignKeySQL() error = %v, want E1006", err)
	}
}

// -----------------------------------------------------------------------------
// Junction Table Tests
// -----------------------------------------------------------------------------

func TestJunctionTableSQL(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	contact := mustModel(t, schema, "contact.contact")
	b := NewBuilder(mustDialect(t, "postgres"))

	got, err := b.JunctionTableSQL(schema, contact, contact.GetField("countries_of_operation"))
	if err != nil {
		t.Fatalf("JunctionTableSQL() error = %v", err)
	}

	want := `CREATE TABLE "contact_contact_countries_of_operation" (
    "id" UUID DEFAULT gen_random_uuid() PRIMARY KEY,
    "contact_id" UUID NOT NULL REFERENCES "contact_contact"("id") ON DELETE CASCADE,
    "country_id" UUID NOT NULL REFERENCES "country_country"("id") ON DELETE CASCADE,
    UNIQUE ("contact_id", "country_id")
)`
	if got != want {
		t.Errorf("JunctionTableSQL() =\n%s\nwant:\n%s", got, want)
	}
}

func TestJunctionTableSQL_SelfRelation(t *testing.T) {
	schema := buildSchema(t, []ast.Operation{
		&ast.CreateModel{
			ModelOp: ast.ModelOp{Namespace: "users", Name: "user"},
			Fields: []*ast.FieldDef{
				{Name: "name", Type: ast.TypeChar, MaxLength: 64},
				{Name: "friends", Type: ast.TypeManyToMany, Ref: "users.user"},
			},
		},
	})
	user := mustModel(t, schema, "users.user")

	got, err := NewBuilder(mustDialect(t, "sqlite")).JunctionTableSQL(schema, user, user.GetField("friends"))
	if err != nil {
		t.Fatalf("JunctionTableSQL() error = %v", err)
	}
	for _, frag := range []string{`"from_user_id"`, `"to_user_id"`, `UNIQUE ("from_user_id", "to_user_id")`} {
		if !strings.Contains(got, frag) {
			t.Errorf("self-relation junction missing %s:\n%s", frag, got)
		}
	}
}

// -----------------------------------------------------------------------------
// SchemaDDL Tests
// -----------------------------------------------------------------------------

func TestSchemaDDL_PostgresOrder(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	stmts, err := NewBuilder(mustDialect(t, "postgres")).SchemaDDL(schema)
	if err != nil {
		t.Fatalf("SchemaDDL() error = %v", err)
	}

	wantPrefixes := []string{
		`CREATE TABLE "contact_contact"`,
		`CREATE TABLE "country_country"`,
		`CREATE TABLE "organization_organization"`,
		`ALTER TABLE "contact_contact" ADD CONSTRAINT`,
		`CREATE TABLE "contact_contact_countries_of_operation"`,
	}
	if len(stmts) != len(wantPrefixes) {
		t.Fatalf("SchemaDDL() returned %d statements, want %d:\n%s",
			len(stmts), len(wantPrefixes), strings.Join(stmts, "\n---\n"))
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(stmts[i], prefix) {
			t.Errorf("statement %d = %q, want prefix %q", i, stmts[i], prefix)
		}
	}

	// Model tables carry no inline foreign keys on this dialect.
	for i := 0; i < 3; i++ {
		if strings.Contains(stmts[i], "REFERENCES") {
			t.Errorf("statement %d has inline foreign key:\n%s", i, stmts[i])
		}
	}
}

func TestSchemaDDL_SQLiteDependencyOrder(t *testing.T) {
	schema := buildSchema(t, crisisOps())
	stmts, err := NewBuilder(mustDialect(t, "sqlite")).SchemaDDL(schema)
	if err != nil {
		t.Fatalf("SchemaDDL() error = %v", err)
	}

	wantPrefixes := []string{
		`CREATE TABLE "country_country"`,
		`CREATE TABLE "organization_organization"`,
		`CREATE TABLE "contact_contact"`,
		`CREATE TABLE "contact_contact_countries_of_operation"`,
	}
	if len(stmts) != len(wantPrefixes) {
		t.Fatalf("SchemaDDL() returned %d statements, want %d:\n%s",
			len(stmts), len(wantPrefixes), strings.Join(stmts, "\n---\n"))
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(stmts[i], prefix) {
			t.Errorf("statement %d = %q, want prefix %q", i, stmts[i], prefix)
		}
	}
	for _, s := range stmts {
		if strings.Contains(s, "ADD CONSTRAINT") {
			t.Errorf("sqlite DDL contains ADD CONSTRAINT:\n%s", s)
		}
	}
}

func TestSchemaDDL_Deterministic(t *testing.T) {
	for _, name := range []string{"postgres", "sqlite"} {
		first, err := NewBuilder(mustDialect(t, name)).SchemaDDL(buildSchema(t, crisisOps()))
		if err != nil {
			t.Fatalf("SchemaDDL(%s) error = %v", name, err)
		}
		for i := 0; i < 5; i++ {
			again, err := NewBuilder(mustDialect(t, name)).SchemaDDL(buildSchema(t, crisisOps()))
			if err != nil {
				t.Fatalf("SchemaDDL(%s) error = %v", name, err)
			}
			if strings.Join(again, ";") != strings.Join(first, ";") {
				t.Fatalf("SchemaDDL(%s) not deterministic on run %d", name, i)
			}
		}
	}
}

func TestSchemaDDL_Empty(t *testing.T) {
	stmts, err := NewBuilder(mustDialect(t, "postgres")).SchemaDDL(state.NewSchema())
	if err != nil {
		t.Fatalf("SchemaDDL() error = %v", err)
	}
	if len(stmts) != 0 {
		t.Errorf("SchemaDDL(empty) returned %d statements, want 0", len(stmts))
	}
}

func TestSchemaDDL_ForeignKeyCycle(t *testing.T) {
	schema := state.NewSchema()
	report := &ast.ModelDef{
		Namespace: "review",
		Name:      "report",
		Fields:    []*ast.FieldDef{{Name: "followup", Type: ast.TypeForeignKey, Ref: "review.visit"}},
	}
	visit := &ast.ModelDef{
		Namespace: "review",
		Name:      "visit",
		Fields:    []*ast.FieldDef{{Name: "report", Type: ast.TypeForeignKey, Ref: "review.report"}},
	}
	for _, m := range []*ast.ModelDef{report, visit} {
		if err := schema.AddModel(m); err != nil {
			t.Fatalf("AddModel() error = %v", err)
		}
	}

	_, err := NewBuilder(mustDialect(t, "sqlite")).SchemaDDL(schema)
	if !errors.Is(err, merr.New(merr.ErrCyclicDependency, "")) {
		t.Fatalf("SchemaDDL() error = %v, want E3001", err)
	}

	// Constraints added after table creation make the same schema renderable
	// on postgres.
	if _, err := NewBuilder(mustDialect(t, "postgres")).SchemaDDL(schema); err != nil {
		t.Fatalf("SchemaDDL(postgres) error = %v", err)
	}
}

func TestSchemaDDL_SelfReferenceAllowed(t *testing.T) {
	schema := state.NewSchema()
	m := &ast.ModelDef{
		Namespace: "organization",
		Name:      "organization",
		Fields: []*ast.FieldDef{
			{Name: "name", Type: ast.TypeChar, MaxLength: 120},
			{Name: "parent", Type: ast.TypeForeignKey, Ref: "organization.organization", Nullable: true, OnDelete: ast.DeleteSetNull},
		},
	}
	if err := schema.AddModel(m); err != nil {
		t.Fatalf("AddModel() error = %v", err)
	}

	stmts, err := NewBuilder(mustDialect(t, "sqlite")).SchemaDDL(schema)
	if err != nil {
		t.Fatalf("SchemaDDL() error = %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("SchemaDDL() returned %d statements, want 1", len(stmts))
	}
	if !strings.Contains(stmts[0], `"parent_id" TEXT REFERENCES "organization_organization"("id") ON DELETE SET NULL`) {
		t.Errorf("self-reference column missing:\n%s", stmts[0])
	}
}
