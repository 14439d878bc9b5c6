package dialect

import (
	"testing"

	"github.com/migral/migral/internal/ast"
)

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		want string // dialect name, "" for nil
	}{
		{"postgres", "postgres"},
		{"postgresql", "postgres"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
		{"mysql", ""},
		{"", ""},
	}
	for _, tt := range tests {
		d := Get(tt.name)
		if tt.want == "" {
			if d != nil {
				t.Errorf("Get(%q) = %v, want nil", tt.name, d)
			}
			continue
		}
		if d == nil || d.Name() != tt.want {
			t.Errorf("Get(%q) = %v, want %s", tt.name, d, tt.want)
		}
	}
}

// -----------------------------------------------------------------------------
// Identifiers and placeholders
// -----------------------------------------------------------------------------

func TestQuoteIdent(t *testing.T) {
	for _, d := range []Dialect{Postgres(), SQLite()} {
		if got := d.QuoteIdent("contact_contact"); got != `"contact_contact"` {
			t.Errorf("%s: QuoteIdent = %s", d.Name(), got)
		}
		// Embedded quotes are doubled, not stripped.
		if got := d.QuoteIdent(`evil"name`); got != `"evil""name"` {
			t.Errorf("%s: QuoteIdent = %s", d.Name(), got)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	pg := Postgres()
	if got := pg.Placeholder(3); got != "$3" {
		t.Errorf("postgres Placeholder(3) = %q", got)
	}
	sq := SQLite()
	if got := sq.Placeholder(3); got != "?" {
		t.Errorf("sqlite Placeholder(3) = %q", got)
	}
}

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

func TestLiteral(t *testing.T) {
	pg := Postgres()
	sq := SQLite()

	tests := []struct {
		value  any
		wantPG string
		wantSQ string
	}{
		{nil, "NULL", "NULL"},
		{true, "TRUE", "1"},
		{false, "FALSE", "0"},
		{"0", "'0'", "'0'"},
		{"it's", "'it''s'", "'it''s'"},
		{42, "42", "42"},
		{2.5, "2.5", "2.5"},
	}
	for _, tt := range tests {
		if got := pg.Literal(tt.value); got != tt.wantPG {
			t.Errorf("postgres Literal(%v) = %q, want %q", tt.value, got, tt.wantPG)
		}
		if got := sq.Literal(tt.value); got != tt.wantSQ {
			t.Errorf("sqlite Literal(%v) = %q, want %q", tt.value, got, tt.wantSQ)
		}
	}
}

// -----------------------------------------------------------------------------
// Column types
// -----------------------------------------------------------------------------

func TestColumnType(t *testing.T) {
	charField := &ast.FieldDef{Name: "name", Type: ast.TypeChar, MaxLength: 256}

	pgType, err := Postgres().ColumnType(charField)
	if err != nil {
		t.Fatalf("ColumnType() error = %v", err)
	}
	if pgType != "VARCHAR(256)" {
		t.Errorf("postgres char = %q", pgType)
	}

	sqType, err := SQLite().ColumnType(charField)
	if err != nil {
		t.Fatalf("ColumnType() error = %v", err)
	}
	if sqType != "TEXT" {
		t.Errorf("sqlite char = %q", sqType)
	}
}

func TestColumnType_Relation(t *testing.T) {
	fk := &ast.FieldDef{Name: "organization", Type: ast.TypeForeignKey, Ref: "organization.organization"}
	if _, err := Postgres().ColumnType(fk); err == nil {
		t.Error("relation fields should not have a direct column type")
	}
}

// -----------------------------------------------------------------------------
// Feature flags
// -----------------------------------------------------------------------------

func TestFeatureFlags(t *testing.T) {
	if !Postgres().SupportsAddConstraint() {
		t.Error("postgres should support ADD CONSTRAINT")
	}
	if SQLite().SupportsAddConstraint() {
		t.Error("sqlite should not support ADD CONSTRAINT")
	}
	for _, d := range []Dialect{Postgres(), SQLite()} {
		if !d.SupportsTransactionalDDL() {
			t.Errorf("%s should support transactional DDL", d.Name())
		}
		if !d.SupportsIfExists() {
			t.Errorf("%s should support IF EXISTS", d.Name())
		}
	}
}
