// Package devdb verifies generated DDL against an ephemeral in-memory
// SQLite database. Executing the statements catches rendering bugs that
// string inspection cannot, before anything touches a real database.
package devdb

import (
	"context"
	"database/sql"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/migral/migral/internal/dialect"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/merr"
	"github.com/migral/migral/internal/sqlgen"
)

// DevDatabase is an ephemeral SQLite database used to execute generated
// DDL before it is shown to or run against a real target.
type DevDatabase struct {
	db *sql.DB
}

// New creates an in-memory dev database with foreign key enforcement on.
func New() (*DevDatabase, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, merr.Wrap(merr.ErrDDLVerify, err, "could not open dev database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, merr.Wrap(merr.ErrDDLVerify, err, "could not ping dev database")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, merr.Wrap(merr.ErrDDLVerify, err, "could not enable foreign keys")
	}
	return &DevDatabase{db: db}, nil
}

// Close closes the dev database.
func (d *DevDatabase) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// VerifySchema renders the schema as SQLite DDL and executes every statement.
// An error means the rendered schema is not executable; the failing statement
// is attached to the error context.
func (d *DevDatabase) VerifySchema(ctx context.Context, schema *state.Schema) error {
	stmts, err := sqlgen.NewBuilder(dialect.SQLite()).SchemaDDL(schema)
	if err != nil {
		return err
	}
	return d.VerifyStatements(ctx, stmts)
}

// VerifyStatements executes a list of DDL statements in order.
func (d *DevDatabase) VerifyStatements(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return merr.Wrap(merr.ErrDDLVerify, err, "generated DDL failed to execute").
				With("statement", stmt).
				With("position", i+1)
		}
	}
	return nil
}

// TableNames returns the sorted names of user tables created so far.
// SQLite bookkeeping tables are excluded.
func (d *DevDatabase) TableNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, merr.Wrap(merr.ErrDDLVerify, err, "could not list dev database tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, merr.Wrap(merr.ErrDDLVerify, err, "could not scan table name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, merr.Wrap(merr.ErrDDLVerify, err, "could not list dev database tables")
	}
	sort.Strings(names)
	return names, nil
}
