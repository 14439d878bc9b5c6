// Package history persists the applied-node ledger inside the target
// database. One row per applied node; the checksum column lets the chain
// detect edits to node files that were already applied.
package history

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"    // postgres driver
	_ "modernc.org/sqlite"   // sqlite driver

	"github.com/migral/migral/internal/chain"
	"github.com/migral/migral/internal/dialect"
	"github.com/migral/migral/internal/engine"
	"github.com/migral/migral/internal/merr"
)

// TableName is the ledger table created in the target database.
const TableName = "migral_history"

// timeFormat is how applied_at is stored. Text keeps the column portable
// across dialects; the value is always UTC.
const timeFormat = "2006-01-02 15:04:05"

// Ledger reads and writes the applied-node table of one database.
type Ledger struct {
	db *sql.DB
	d  dialect.Dialect
}

// driverName maps a dialect to its database/sql driver.
func driverName(d dialect.Dialect) string {
	if d.Name() == "postgres" {
		return "postgres"
	}
	return "sqlite"
}

// Open connects to the database named by dsn and prepares a ledger for it.
// The ledger table is created on first use via EnsureTable.
func Open(dialectName, dsn string) (*Ledger, error) {
	d := dialect.Get(dialectName)
	if d == nil {
		return nil, merr.New(merr.ErrLedgerConnect, "unsupported dialect").
			With("dialect", dialectName)
	}

	db, err := sql.Open(driverName(d), dsn)
	if err != nil {
		return nil, merr.Wrap(merr.ErrLedgerConnect, err, "could not open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, merr.Wrap(merr.ErrLedgerConnect, err, "could not connect to database")
	}

	return &Ledger{db: db, d: d}, nil
}

// NewLedger wraps an existing connection. The caller keeps ownership of db.
func NewLedger(db *sql.DB, d dialect.Dialect) *Ledger {
	return &Ledger{db: db, d: d}
}

// Close closes the underlying connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// DB exposes the underlying connection for statement execution alongside
// ledger writes.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// Dialect returns the dialect the ledger connects with.
func (l *Ledger) Dialect() dialect.Dialect {
	return l.d
}

// EnsureTable creates the ledger table if it does not exist.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + l.d.QuoteIdent(TableName) + ` (
    namespace     TEXT NOT NULL,
    name          TEXT NOT NULL,
    checksum      TEXT NOT NULL,
    applied_at    TEXT NOT NULL,
    exec_time_ms  INTEGER NOT NULL,
    PRIMARY KEY (namespace, name)
)`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return merr.Wrap(merr.ErrLedgerWrite, err, "could not create history table")
	}
	return nil
}

// Applied returns every recorded node, oldest first.
func (l *Ledger) Applied(ctx context.Context) ([]engine.AppliedNode, error) {
	query := `SELECT namespace, name, checksum, applied_at, exec_time_ms FROM ` +
		l.d.QuoteIdent(TableName) + ` ORDER BY applied_at, namespace, name`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, merr.Wrap(merr.ErrLedgerQuery, err, "could not read history table")
	}
	defer rows.Close()

	var applied []engine.AppliedNode
	for rows.Next() {
		var (
			a  engine.AppliedNode
			at string
		)
		if err := rows.Scan(&a.Namespace, &a.Name, &a.Checksum, &at, &a.ExecTimeMs); err != nil {
			return nil, merr.Wrap(merr.ErrLedgerQuery, err, "could not scan history row")
		}
		ts, err := time.Parse(timeFormat, at)
		if err != nil {
			return nil, merr.Wrap(merr.ErrLedgerQuery, err, "invalid applied_at in history table").
				WithNode(a.Namespace, a.Name)
		}
		a.AppliedAt = ts.UTC()
		applied = append(applied, a)
	}
	if err := rows.Err(); err != nil {
		return nil, merr.Wrap(merr.ErrLedgerQuery, err, "could not read history table")
	}
	return applied, nil
}

// AppliedForNamespace returns the namespace's recorded nodes in the form
// the chain verifier consumes.
func (l *Ledger) AppliedForNamespace(ctx context.Context, namespace string) ([]chain.Applied, error) {
	query := `SELECT name, checksum, applied_at FROM ` + l.d.QuoteIdent(TableName) +
		` WHERE namespace = ` + l.d.Placeholder(1) + ` ORDER BY applied_at, name`

	rows, err := l.db.QueryContext(ctx, query, namespace)
	if err != nil {
		return nil, merr.Wrap(merr.ErrLedgerQuery, err, "could not read history table")
	}
	defer rows.Close()

	var applied []chain.Applied
	for rows.Next() {
		var a chain.Applied
		if err := rows.Scan(&a.Name, &a.Checksum, &a.AppliedAt); err != nil {
			return nil, merr.Wrap(merr.ErrLedgerQuery, err, "could not scan history row")
		}
		applied = append(applied, a)
	}
	if err := rows.Err(); err != nil {
		return nil, merr.Wrap(merr.ErrLedgerQuery, err, "could not read history table")
	}
	return applied, nil
}

// Record inserts one applied node.
func (l *Ledger) Record(ctx context.Context, a engine.AppliedNode) error {
	query := `INSERT INTO ` + l.d.QuoteIdent(TableName) +
		` (namespace, name, checksum, applied_at, exec_time_ms) VALUES (` +
		l.d.Placeholder(1) + `, ` + l.d.Placeholder(2) + `, ` + l.d.Placeholder(3) + `, ` +
		l.d.Placeholder(4) + `, ` + l.d.Placeholder(5) + `)`

	at := a.AppliedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := l.db.ExecContext(ctx, query,
		a.Namespace, a.Name, a.Checksum, at.UTC().Format(timeFormat), a.ExecTimeMs)
	if err != nil {
		return merr.Wrap(merr.ErrLedgerWrite, err, "could not record applied node").
			WithNode(a.Namespace, a.Name)
	}
	return nil
}

// Remove deletes one recorded node. Used by reset to rewind the ledger
// without touching schema objects.
func (l *Ledger) Remove(ctx context.Context, namespace, name string) error {
	query := `DELETE FROM ` + l.d.QuoteIdent(TableName) +
		` WHERE namespace = ` + l.d.Placeholder(1) + ` AND name = ` + l.d.Placeholder(2)

	res, err := l.db.ExecContext(ctx, query, namespace, name)
	if err != nil {
		return merr.Wrap(merr.ErrLedgerWrite, err, "could not remove applied node").
			WithNode(namespace, name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return merr.New(merr.ErrLedgerWrite, "node is not recorded as applied").
			WithNode(namespace, name)
	}
	return nil
}

// Clear deletes every recorded node.
func (l *Ledger) Clear(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM `+l.d.QuoteIdent(TableName)); err != nil {
		return merr.Wrap(merr.ErrLedgerWrite, err, "could not clear history table")
	}
	return nil
}
