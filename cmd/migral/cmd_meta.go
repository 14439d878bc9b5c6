package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
	"github.com/migral/migral/internal/metadata"
)

// metaCmd exports schema metadata to a JSON file.
func metaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Export schema metadata to a JSON file",
		Long: `Export the schema's physical layout to a JSON file.

The metadata lists every model's table and column names, its foreign
key columns, and the junction tables generated for many-to-many
relations. External tools can read it instead of replaying node files.`,
		Example: `  # Export to the default location (.migral/metadata.json)
  migral meta

  # Export to a custom file
  migral meta --output schema-metadata.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newOfflineClient()
			if err != nil {
				return exitOnError(err)
			}

			if output == "" {
				output = filepath.Join(metadata.DefaultDir, "metadata.json")
			}
			absPath, err := filepath.Abs(output)
			if err != nil {
				return exitOnError(err)
			}

			if err := client.SaveMetadataToFile(absPath); err != nil {
				return exitOnError(err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				return exitOnError(err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("wrote %s (%d bytes)", absPath, info.Size())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: .migral/metadata.json)")
	return cmd
}
