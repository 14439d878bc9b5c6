package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
	"github.com/migral/migral/internal/git"
	"github.com/migral/migral/pkg/migral"
)

// applyCmd applies pending nodes to the database.
func applyCmd() *cobra.Command {
	var dryRun, skipVerify, force bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply pending nodes to the database",
		Long: `Apply pending nodes to the database.

Each node's operations are rendered to DDL and executed in order; the
node is recorded in the ledger as soon as it lands. Checksum chains are
verified first so tampered files never reach the database.`,
		Example: `  # Apply all pending nodes
  migral apply

  # Preview the SQL without executing
  migral apply --dry

  # Skip chain verification (not recommended)
  migral apply --skip-verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitOnError(err)
			}

			// Pre-apply git checks
			if !force && !dryRun {
				check, err := git.CheckBeforeApply(cfg.MigrationsDir)
				if err != nil {
					return err
				}
				for _, w := range check.Warnings {
					fmt.Fprintln(os.Stderr, cli.Warning("git")+": "+w)
				}
				for _, e := range check.Errors {
					fmt.Fprintln(os.Stderr, cli.Error("git")+": "+e)
				}
				// Modified node files are errors, don't proceed.
				if len(check.Errors) > 0 {
					fmt.Fprintln(os.Stderr, cli.Help("hint")+": use --force to proceed anyway")
					os.Exit(1)
				}
			}

			client, err := newClient()
			if err != nil {
				return exitOnError(err)
			}
			defer client.Close()

			ctx := context.Background()

			if !skipVerify && !dryRun {
				reports, err := client.VerifyChains(ctx)
				if err != nil {
					return exitOnError(err)
				}
				bad := false
				for _, r := range reports {
					for _, p := range r.Problems {
						fmt.Fprintln(os.Stderr, cli.Error("chain")+" "+r.Namespace+": "+p)
						bad = true
					}
				}
				if bad {
					fmt.Fprintln(os.Stderr, cli.Help("hint")+": use --skip-verify to proceed anyway")
					os.Exit(1)
				}
			}

			var opts []migral.ApplyOption
			if dryRun {
				opts = append(opts, migral.DryRun(os.Stdout))
			}

			result, err := client.Apply(ctx, opts...)
			if err != nil {
				return exitOnError(err)
			}

			if len(result.Applied) == 0 {
				fmt.Println(cli.FormatSuccess("Nothing to apply"))
				return nil
			}
			if dryRun {
				fmt.Println(cli.Info(fmt.Sprintf("dry run: %s across %s",
					pluralize(result.Statements, "statement", "statements"),
					pluralize(len(result.Applied), "node", "nodes"))))
				return nil
			}

			list := cli.NewList()
			for _, id := range result.Applied {
				list.AddSuccess(id)
			}
			fmt.Println(cli.RenderSuccessPanel("Nodes Applied", list.String()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry", false, "Print SQL without executing")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip chain verification before applying")
	cmd.Flags().BoolVar(&force, "force", false, "Skip git safety checks")
	return cmd
}
