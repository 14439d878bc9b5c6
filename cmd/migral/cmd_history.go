package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
)

// historyCmd shows the ledger's applied records.
func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the ledger's applied records",
		Long: `Show the ledger's applied records, oldest first.

Unlike status this reads only the database, so it works even when the
node files are gone. Useful for auditing what actually ran.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return exitOnError(err)
			}
			defer client.Close()

			entries, err := client.History(context.Background())
			if err != nil {
				return exitOnError(err)
			}

			if len(entries) == 0 {
				fmt.Println(cli.Info("No nodes have been applied."))
				return nil
			}

			table := cli.NewStyledTable("NODE", "APPLIED AT", "TOOK", "CHECKSUM")
			for _, e := range entries {
				table.AddRow(
					e.Namespace+"."+e.Name,
					e.AppliedAt.Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%dms", e.ExecTimeMs),
					shortChecksum(e.Checksum),
				)
			}
			fmt.Println(table.String())
			fmt.Println(cli.Info(pluralize(len(entries), "node applied", "nodes applied")))
			return nil
		},
	}
}

// shortChecksum abbreviates a checksum for table display.
func shortChecksum(sum string) string {
	if len(sum) <= 12 {
		return sum
	}
	return sum[:12]
}
