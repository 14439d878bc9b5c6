package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
)

// statusCmd shows every node's state against the ledger.
func statusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied/pending nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return exitOnError(err)
			}
			defer client.Close()

			statuses, err := client.Status(context.Background())
			if err != nil {
				return exitOnError(err)
			}

			// JSON output mode for CI/CD integration
			if jsonOutput {
				var applied, pending int
				for _, s := range statuses {
					if s.Status == "applied" {
						applied++
					} else {
						pending++
					}
				}

				nodes := make([]map[string]any, len(statuses))
				for i, s := range statuses {
					m := map[string]any{
						"namespace":  s.Namespace,
						"name":       s.Name,
						"status":     s.Status,
						"applied_at": nil,
					}
					if s.AppliedAt != nil {
						m["applied_at"] = s.AppliedAt.Format(TimeJSON)
					}
					nodes[i] = m
				}

				output := map[string]any{
					"applied": applied,
					"pending": pending,
					"nodes":   nodes,
				}

				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(output); err != nil {
					return err
				}

				// Non-zero exit lets pipelines detect pending work.
				if pending > 0 {
					os.Exit(1)
				}
				return nil
			}

			if len(statuses) == 0 {
				fmt.Println(cli.Info("No nodes found."))
				return nil
			}

			table := cli.NewStyledTable("NODE", "STATUS", "APPLIED AT")
			var appliedCount, pendingCount int
			for _, s := range statuses {
				var badge, appliedAt string
				switch s.Status {
				case "applied":
					badge = cli.RenderAppliedBadge()
					appliedCount++
				case "pending":
					badge = cli.RenderPendingBadge()
					pendingCount++
				default:
					badge = cli.RenderErrorBadge()
				}
				if s.AppliedAt != nil {
					appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				table.AddRow(s.Namespace+"."+s.Name, badge, appliedAt)
			}
			fmt.Println(table.String())

			line := cli.NewStatusLine()
			line.AddSuccess(pluralize(appliedCount, "applied", "applied"))
			if pendingCount > 0 {
				line.AddWarning(pluralize(pendingCount, "pending", "pending"))
			}
			fmt.Println(line.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON (exits 1 when nodes are pending)")
	return cmd
}
