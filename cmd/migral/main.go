// Package main provides the CLI for the migral schema migration engine.
// Migral manages schema evolution through declarative YAML migration
// nodes grouped by namespace, with dependency-ordered planning and
// checksum chains for tamper detection.
//
// Usage:
//
//	migral init                  # Create migrations/ and migral.yaml
//	migral new <ns> <label>      # Create the next node file in a namespace
//	migral check                 # Validate node files and replay the schema
//	migral plan                  # Show nodes that would be applied
//	migral apply                 # Apply pending nodes
//	migral status                # Show applied/pending nodes
//	migral verify                # Verify checksum chains against the ledger
//	migral schema                # Show the replayed schema snapshot
//	migral meta                  # Export schema metadata to JSON
//	migral lock                  # Write or check the lock file
//	migral watch                 # Re-check on every node file change
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Database drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// Global flags
var (
	databaseURL   string
	configFile    string
	migrationsDir string
)

// customHelp displays a styled help message for the root command.
func customHelp(cmd *cobra.Command) {
	categories := []CommandCategory{
		{
			Title: "Setup",
			Commands: []CommandInfo{
				{"init", "Initialize project structure (migrations/, migral.yaml)"},
				{"new", "Create the next node file in a namespace"},
			},
		},
		{
			Title: "Validation",
			Commands: []CommandInfo{
				{"check", "Validate node files and replay the full schema"},
				{"verify", "Verify checksum chains against the ledger"},
				{"lock", "Write or check the node lock file"},
			},
		},
		{
			Title: "Migrations",
			Commands: []CommandInfo{
				{"plan", "Show nodes that would be applied, in order"},
				{"apply", "Apply pending nodes to the database"},
				{"status", "Show applied/pending nodes"},
				{"history", "Show the ledger's applied records"},
			},
		},
		{
			Title: "Development",
			Commands: []CommandInfo{
				{"schema", "Show the replayed schema, its DDL, or its fingerprint"},
				{"meta", "Export schema metadata to a JSON file"},
				{"watch", "Re-run check on every node file change"},
			},
		},
	}

	flags := []struct{ flag, desc string }{
		{"-c, --config", "Path to config file (default: migral.yaml)"},
		{"-d, --database-url", "Database connection URL"},
		{"-m, --migrations-dir", "Migration tree root (default: ./migrations)"},
		{"-h, --help", "Show help information"},
		{"-v, --version", "Show version information"},
	}

	renderCategoryHelp(
		"⧖ Migral",
		"★  Declarative schema migrations with checksum chains",
		categories,
		flags,
	)
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "migral",
		Short:   "Declarative schema migration engine",
		Long:    `Migral manages schema evolution through declarative YAML migration nodes grouped by namespace, with dependency-ordered planning and checksum chains for tamper detection.`,
		Version: version,
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		customHelp(cmd)
	})

	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&databaseURL, "database-url", "d", "", "Database connection URL")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "migral.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&migrationsDir, "migrations-dir", "m", "", "Migration tree root")

	rootCmd.AddCommand(
		initCmd(),
		newCmd(),
		checkCmd(),
		planCmd(),
		applyCmd(),
		statusCmd(),
		historyCmd(),
		verifyCmd(),
		schemaCmd(),
		metaCmd(),
		lockCmd(),
		watchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
