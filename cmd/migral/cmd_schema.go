package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/cli"
)

// schemaCmd shows the replayed schema snapshot, its DDL, or its fingerprint.
func schemaCmd() *cobra.Command {
	var showDDL, showFingerprint bool
	var dialectName string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the replayed schema, its DDL, or its fingerprint",
		Example: `  # Model-by-model snapshot
  migral schema

  # Full DDL script for postgres
  migral schema --ddl --dialect postgres

  # Merkle fingerprint of the snapshot
  migral schema --fingerprint`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newOfflineClient()
			if err != nil {
				return exitOnError(err)
			}

			if showDDL {
				script, err := client.SchemaScript(dialectName)
				if err != nil {
					return exitOnError(err)
				}
				fmt.Print(script)
				return nil
			}

			if showFingerprint {
				fp, err := client.Fingerprint()
				if err != nil {
					return exitOnError(err)
				}
				fmt.Println(cli.KeyValue("fingerprint", fp.Root))

				names := make([]string, 0, len(fp.Models))
				for name := range fp.Models {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Println("  " + cli.KeyValue(name, shortChecksum(fp.Models[name].Hash)))
				}
				return nil
			}

			schema, err := client.Schema()
			if err != nil {
				return exitOnError(err)
			}

			models := schema.ModelList()
			if len(models) == 0 {
				fmt.Println(cli.Info("Schema is empty."))
				return nil
			}

			for _, m := range models {
				fmt.Println(cli.Header(m.Namespace + "." + m.Name))
				for _, f := range m.Fields {
					fmt.Println("  " + cli.KeyValue(f.Name, describeField(f)))
				}
				for _, set := range m.UniqueTogether {
					fmt.Println("  " + cli.Dim(fmt.Sprintf("unique together: %v", set)))
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDDL, "ddl", false, "Render the schema as a DDL script")
	cmd.Flags().StringVar(&dialectName, "dialect", "", "Dialect for --ddl (default: the configured dialect)")
	cmd.Flags().BoolVar(&showFingerprint, "fingerprint", false, "Show the schema's merkle fingerprint")
	return cmd
}

// describeField renders one field for the snapshot listing.
func describeField(f *ast.FieldDef) string {
	s := string(f.Type)
	switch f.Type {
	case ast.TypeChar:
		s = fmt.Sprintf("char(%d)", f.MaxLength)
	case ast.TypeForeignKey, ast.TypeManyToMany:
		s += " -> " + f.Ref
	}
	if f.Nullable {
		s += ", nullable"
	}
	if f.Unique {
		s += ", unique"
	}
	return s
}
