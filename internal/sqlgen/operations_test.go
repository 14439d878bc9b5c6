package sqlgen

import (
	"strings"
	"testing"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/engine/state"
)

func applyOp(t *testing.T, before *state.Schema, op ast.Operation) *state.Schema {
	t.Helper()
	after := before.Clone()
	if err := state.Apply(after, op); err != nil {
		t.Fatalf("Apply(%s) error = %v", op.Kind(), err)
	}
	return after
}

func opSQL(t *testing.T, d string, before *state.Schema, op ast.Operation) ([]string, *state.Schema) {
	t.Helper()
	after := applyOp(t, before, op)
	stmts, err := NewBuilder(mustDialect(t, d)).OperationSQL(before, after, op)
	if err != nil {
		t.Fatalf("OperationSQL(%s) error = %v", op.Kind(), err)
	}
	return stmts, after
}

func wantStmts(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d statements, want %d:\n%s", len(got), len(want), strings.Join(got, "\n---\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d =\n%s\nwant:\n%s", i, got[i], want[i])
		}
	}
}

// -----------------------------------------------------------------------------
// Structural Operation Tests
// -----------------------------------------------------------------------------

func TestOperationSQL_CreateModel(t *testing.T) {
	before := buildSchema(t, crisisOps()[:2])
	stmts, _ := opSQL(t, "postgres", before, crisisOps()[2])

	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3:\n%s", len(stmts), strings.Join(stmts, "\n---\n"))
	}
	if !strings.HasPrefix(stmts[0], `CREATE TABLE "contact_contact"`) {
		t.Errorf("statement 0 = %q, want CREATE TABLE", stmts[0])
	}
	if !strings.HasPrefix(stmts[1], `ALTER TABLE "contact_contact" ADD CONSTRAINT "fk_contact_contact_organization_id"`) {
		t.Errorf("statement 1 = %q, want foreign key constraint", stmts[1])
	}
	if !strings.HasPrefix(stmts[2], `CREATE TABLE "contact_contact_countries_of_operation"`) {
		t.Errorf("statement 2 = %q, want junction table", stmts[2])
	}
}

func TestOperationSQL_AddField(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AddField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Field:    &ast.FieldDef{Name: "phone", Type: ast.TypeChar, MaxLength: 32, Nullable: true},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" ADD COLUMN "phone" VARCHAR(32)`,
	})

	stmts, _ = opSQL(t, "sqlite", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" ADD COLUMN "phone" TEXT`,
	})
}

func TestOperationSQL_AddForeignKeyField(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AddField{
		ModelRef: ast.ModelRef{Namespace: "organization", Model_: "organization"},
		Field: &ast.FieldDef{
			Name:     "country",
			Type:     ast.TypeForeignKey,
			Ref:      "country.country",
			OnDelete: ast.DeleteProtect,
			Nullable: true,
		},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "organization_organization" ADD COLUMN "country_id" UUID`,
		`ALTER TABLE "organization_organization" ADD CONSTRAINT "fk_organization_organization_country_id" ` +
			`FOREIGN KEY ("country_id") REFERENCES "country_country"("id") ON DELETE RESTRICT`,
	})

	stmts, _ = opSQL(t, "sqlite", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "organization_organization" ADD COLUMN "country_id" TEXT ` +
			`REFERENCES "country_country"("id") ON DELETE RESTRICT`,
	})
}

func TestOperationSQL_AddManyToMany(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AddManyToMany{
		ModelRef: ast.ModelRef{Namespace: "organization", Model_: "organization"},
		Field: &ast.FieldDef{
			Name: "countries",
			Type: ast.TypeManyToMany,
			Ref:  "country.country",
		},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	if len(stmts) != 1 || !strings.HasPrefix(stmts[0], `CREATE TABLE "organization_organization_countries"`) {
		t.Fatalf("OperationSQL() = %v, want single junction CREATE TABLE", stmts)
	}
}

func TestOperationSQL_RemoveField(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.RemoveField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Name:     "designation",
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" DROP COLUMN "designation"`,
	})
}

func TestOperationSQL_RemoveManyToManyField(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.RemoveField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Name:     "countries_of_operation",
	}

	stmts, _ := opSQL(t, "sqlite", before, op)
	wantStmts(t, stmts, []string{
		`DROP TABLE "contact_contact_countries_of_operation"`,
	})
}

func TestOperationSQL_RenameModel(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.RenameModel{Namespace: "contact", OldName: "contact", NewName: "person"}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" RENAME TO "contact_person"`,
		`ALTER TABLE "contact_contact_countries_of_operation" RENAME TO "contact_person_countries_of_operation"`,
	})
}

func TestOperationSQL_RemoveModel(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.RemoveModel{ModelOp: ast.ModelOp{Namespace: "contact", Name: "contact"}}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`DROP TABLE "contact_contact_countries_of_operation"`,
		`DROP TABLE "contact_contact"`,
	})
}

// -----------------------------------------------------------------------------
// AlterField Tests
// -----------------------------------------------------------------------------

func TestOperationSQL_AlterField_Postgres(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Field:    &ast.FieldDef{Name: "email", Type: ast.TypeEmail, Nullable: true, Unique: true},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" ALTER COLUMN "email" DROP NOT NULL`,
	})
}

func TestOperationSQL_AlterField_DefaultAndUnique(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Field:    &ast.FieldDef{Name: "email", Type: ast.TypeEmail, DefaultSet: true, Default: "unknown@example.org"},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" ALTER COLUMN "email" SET DEFAULT 'unknown@example.org'`,
		`ALTER TABLE "contact_contact" DROP CONSTRAINT "contact_contact_email_key"`,
	})
}

func TestOperationSQL_AlterField_EnumChoices(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Field: &ast.FieldDef{
			Name:       "designation",
			Type:       ast.TypeEnum,
			Choices:    []ast.Choice{{Code: "0", Label: "Mr"}, {Code: "1", Label: "Ms"}, {Code: "2", Label: "Mx"}},
			Default:    "0",
			DefaultSet: true,
		},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" DROP CONSTRAINT "contact_contact_designation_check"`,
		`ALTER TABLE "contact_contact" ADD CONSTRAINT "contact_contact_designation_check" ` +
			`CHECK ("designation" IN ('0', '1', '2'))`,
	})
}

func TestOperationSQL_AlterField_SQLiteRebuild(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Field:    &ast.FieldDef{Name: "email", Type: ast.TypeEmail, Nullable: true, Unique: true},
	}

	stmts, _ := opSQL(t, "sqlite", before, op)
	if len(stmts) != 6 {
		t.Fatalf("got %d statements, want 6:\n%s", len(stmts), strings.Join(stmts, "\n---\n"))
	}
	if stmts[0] != "PRAGMA foreign_keys = OFF" || stmts[5] != "PRAGMA foreign_keys = ON" {
		t.Errorf("rebuild not wrapped in pragma toggles: %v", []string{stmts[0], stmts[5]})
	}
	if !strings.HasPrefix(stmts[1], `CREATE TABLE "contact_contact__new"`) {
		t.Errorf("statement 1 = %q, want temp CREATE TABLE", stmts[1])
	}
	wantCopy := `INSERT INTO "contact_contact__new" ("id", "name", "email", "designation", "organization_id") ` +
		`SELECT "id", "name", "email", "designation", "organization_id" FROM "contact_contact"`
	if stmts[2] != wantCopy {
		t.Errorf("statement 2 =\n%s\nwant:\n%s", stmts[2], wantCopy)
	}
	if stmts[3] != `DROP TABLE "contact_contact"` {
		t.Errorf("statement 3 = %q", stmts[3])
	}
	if stmts[4] != `ALTER TABLE "contact_contact__new" RENAME TO "contact_contact"` {
		t.Errorf("statement 4 = %q", stmts[4])
	}
}

func TestOperationSQL_AlterField_MetadataOnly(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Field: &ast.FieldDef{
			Name:        "organization",
			Type:        ast.TypeForeignKey,
			Ref:         "organization.organization",
			OnDelete:    ast.DeleteCascade,
			RelatedName: "members",
		},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	if len(stmts) != 0 {
		t.Errorf("reverse-name change produced DDL: %v", stmts)
	}
}

func TestOperationSQL_AlterManyToMany_NoDDL(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterManyToMany{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "contact"},
		Field: &ast.FieldDef{
			Name:        "countries_of_operation",
			Type:        ast.TypeManyToMany,
			Ref:         "country.country",
			RelatedName: "operating_contacts_renamed",
		},
	}

	stmts, _ := opSQL(t, "sqlite", before, op)
	if len(stmts) != 0 {
		t.Errorf("many-to-many alter produced DDL: %v", stmts)
	}
}

// -----------------------------------------------------------------------------
// AlterUniqueTogether Tests
// -----------------------------------------------------------------------------

func TestOperationSQL_AlterUniqueTogether_Postgres(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterUniqueTogether{
		ModelRef:       ast.ModelRef{Namespace: "contact", Model_: "contact"},
		UniqueTogether: [][]string{{"email", "organization"}},
	}

	stmts, _ := opSQL(t, "postgres", before, op)
	wantStmts(t, stmts, []string{
		`ALTER TABLE "contact_contact" DROP CONSTRAINT "contact_contact_name_organization_id_key"`,
		`ALTER TABLE "contact_contact" ADD CONSTRAINT "contact_contact_email_organization_id_key" ` +
			`UNIQUE ("email", "organization_id")`,
	})
}

func TestOperationSQL_AlterUniqueTogether_SQLiteRebuild(t *testing.T) {
	before := buildSchema(t, crisisOps())
	op := &ast.AlterUniqueTogether{
		ModelRef:       ast.ModelRef{Namespace: "contact", Model_: "contact"},
		UniqueTogether: nil,
	}

	stmts, _ := opSQL(t, "sqlite", before, op)
	if len(stmts) != 6 {
		t.Fatalf("got %d statements, want rebuild sequence of 6:\n%s",
			len(stmts), strings.Join(stmts, "\n---\n"))
	}
	if strings.Contains(stmts[1], "UNIQUE (") && strings.Contains(stmts[1], `"name", "organization_id"`) {
		t.Errorf("rebuilt table still has unique-together constraint:\n%s", stmts[1])
	}
}
