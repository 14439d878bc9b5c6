package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
)

const configTemplate = `# migral configuration
#
# database_url supports ${VAR} interpolation from the environment.
database_url: ${DATABASE_URL}

# Root of the migration tree, one subdirectory per namespace.
migrations_dir: ./migrations

# Dialect is auto-detected from database_url when omitted.
# Valid values: postgres, sqlite
# dialect: postgres

# Lock file recording node order, checksums, and the schema fingerprint.
lockfile: migral.lock
`

// initCmd creates the migrations directory and a starter config file.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize project structure (migrations/, migral.yaml)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitOnError(err)
			}

			created := cli.NewList()

			if _, err := os.Stat(cfg.MigrationsDir); os.IsNotExist(err) {
				if err := os.MkdirAll(cfg.MigrationsDir, DirPerm); err != nil {
					return err
				}
				created.AddSuccess("created " + cfg.MigrationsDir + string(filepath.Separator))
			} else {
				created.AddInfo(cfg.MigrationsDir + string(filepath.Separator) + " already exists")
			}

			if _, err := os.Stat(configFile); os.IsNotExist(err) {
				if err := os.WriteFile(configFile, []byte(configTemplate), FilePerm); err != nil {
					return err
				}
				created.AddSuccess("created " + configFile)
			} else {
				created.AddInfo(configFile + " already exists")
			}

			fmt.Println(cli.RenderSuccessPanel("Project Initialized", created.String()))
			fmt.Println(cli.Help("next") + ": create your first node with " +
				cli.Code("migral new <namespace> initial"))
			return nil
		},
	}
}
