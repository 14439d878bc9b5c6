package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
)

// checkCmd validates every node file without touching the database.
func checkCmd() *cobra.Command {
	var skipExec bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate node files and replay the full schema",
		Long: `Validate node files and replay the full schema.

Parses every node file, resolves the dependency order, replays all
operations into a schema snapshot, and executes the resulting DDL
against a throwaway in-memory database to catch statements that only
fail at execution time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitOnError(err)
			}
			requireMigrationsDir(cfg)

			client, err := newOfflineClient()
			if err != nil {
				return exitOnError(err)
			}

			nodes, err := client.Load()
			if err != nil {
				return exitOnError(err)
			}
			if len(nodes) == 0 {
				fmt.Println(cli.Info("No nodes found in " + cfg.MigrationsDir))
				return nil
			}

			schema, err := client.Schema()
			if err != nil {
				return exitOnError(err)
			}

			if !skipExec {
				spin := cli.NewSpinner("executing DDL on a throwaway database")
				spin.Start()
				if err := client.VerifySchema(context.Background()); err != nil {
					spin.StopWithError("DDL execution failed")
					fmt.Fprintln(os.Stderr, cli.FormatError(err))
					os.Exit(1)
				}
				spin.Stop()
			}

			summary := cli.NewList()
			summary.AddSuccess(pluralize(len(nodes), "node parses", "nodes parse"))
			summary.AddSuccess(pluralize(len(schema.Models), "model replays", "models replay"))
			if !skipExec {
				summary.AddSuccess("DDL executes on a throwaway database")
			}
			fmt.Println(cli.RenderSuccessPanel("Check Passed", summary.String()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipExec, "skip-exec", false, "Skip executing the DDL on a throwaway database")
	return cmd
}
