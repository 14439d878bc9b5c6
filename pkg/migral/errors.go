// Package migral provides the public API for the migral schema migration
// engine. It wraps loading YAML node definitions, dependency planning,
// schema replay, DDL rendering, and the applied-history ledger behind a
// single Client.
package migral

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors.
var (
	// ErrMissingDatabaseURL is returned when no database URL is provided.
	ErrMissingDatabaseURL = errors.New("migral: database URL required")

	// ErrUnsupportedDialect is returned when the dialect is not supported.
	ErrUnsupportedDialect = errors.New("migral: unsupported dialect")

	// ErrOffline is returned when an operation needs the database but the
	// client was built with WithOffline.
	ErrOffline = errors.New("migral: operation requires a database connection")

	// ErrApplyFailed is returned when applying a node fails.
	ErrApplyFailed = errors.New("migral: apply failed")
)

// ConnectionError reports a failed database connection with the dialect
// and a credential-free rendering of the URL.
type ConnectionError struct {
	URL     string
	Dialect string
	Cause   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("migral: could not connect to %s database at %s: %v",
		e.Dialect, e.URL, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// ApplyError reports a node whose SQL failed mid-apply. Earlier nodes
// stay recorded; the failing node is not.
type ApplyError struct {
	// Node is the failing node reference ("namespace.name").
	Node string

	// SQL is the statement that failed, if the failure happened during
	// execution rather than rendering.
	SQL string

	// Cause is the underlying error.
	Cause error
}

func (e *ApplyError) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("migral: applying %s failed: %v\nSQL: %s", e.Node, e.Cause, e.SQL)
	}
	return fmt.Sprintf("migral: applying %s failed: %v", e.Node, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ApplyError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
func (e *ApplyError) Is(target error) bool {
	return target == ErrApplyFailed
}
