package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
	"github.com/migral/migral/pkg/migral"
)

// planCmd shows the nodes that would be applied, in execution order.
func planCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show nodes that would be applied, in order",
		Long: `Show nodes that would be applied, in order.

With a database the ledger filters out applied nodes. With --offline
every node is listed in its global execution order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var client *migral.Client
			var err error
			if offline {
				client, err = newOfflineClient()
			} else {
				client, err = newClient()
			}
			if err != nil {
				return exitOnError(err)
			}
			defer client.Close()

			pending, err := client.Plan(context.Background())
			if err != nil {
				return exitOnError(err)
			}

			if len(pending) == 0 {
				fmt.Println(cli.FormatSuccess("Nothing to apply"))
				return nil
			}

			table := cli.NewStyledTable("#", "NODE", "OPERATIONS", "FILE")
			for i, p := range pending {
				table.AddRow(
					fmt.Sprintf("%d", i+1),
					p.Namespace+"."+p.Name,
					fmt.Sprintf("%d", p.Operations),
					p.Path,
				)
			}
			fmt.Println(table.String())
			fmt.Println(cli.Info(pluralize(len(pending), "node pending", "nodes pending")))
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Plan without a database; every node is pending")
	return cmd
}
