package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/migral/migral/internal/cli"
	"github.com/migral/migral/internal/merr"
	"github.com/migral/migral/pkg/migral"
)

// printConnectionError prints a helpful message for connection failures.
func printConnectionError(connErr *migral.ConnectionError) {
	fmt.Fprintln(os.Stderr, cli.Error("Error")+": Failed to connect to database")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintf(os.Stderr, "  Dialect: %s\n", connErr.Dialect)
	fmt.Fprintf(os.Stderr, "  URL:     %s\n", connErr.URL)
	fmt.Fprintf(os.Stderr, "  Cause:   %v\n", connErr.Cause)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Troubleshooting:")
	for _, line := range getConnectionHelp(connErr.Dialect, connErr.Cause.Error()) {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
}

// printApplyError prints a failed node with the statement that broke.
func printApplyError(applyErr *migral.ApplyError) {
	fmt.Fprintln(os.Stderr, cli.Error("Error")+": node "+cli.Code(applyErr.Node)+" failed")
	fmt.Fprintln(os.Stderr, "")
	if applyErr.SQL != "" {
		fmt.Fprintf(os.Stderr, "  SQL:   %s\n", applyErr.SQL)
	}
	fmt.Fprintf(os.Stderr, "  Cause: %v\n", applyErr.Cause)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, cli.Help("hint")+": earlier nodes stay applied; fix the node and re-run apply")
}

// handleClientError prints a friendly rendering of known error shapes.
// Returns true when the error was handled and the process should exit.
func handleClientError(err error) bool {
	if errors.Is(err, migral.ErrMissingDatabaseURL) {
		printHelp("missing_db_url")
		return true
	}

	var connErr *migral.ConnectionError
	if errors.As(err, &connErr) {
		printConnectionError(connErr)
		return true
	}

	var applyErr *migral.ApplyError
	if errors.As(err, &applyErr) {
		printApplyError(applyErr)
		return true
	}

	var structured *merr.Error
	if errors.As(err, &structured) {
		fmt.Fprintln(os.Stderr, cli.FormatError(structured))
		return true
	}

	return false
}

// exitOnError prints err (friendly when possible) and exits non-zero.
func exitOnError(err error) error {
	if err == nil {
		return nil
	}
	if handleClientError(err) {
		os.Exit(1)
	}
	return err
}
