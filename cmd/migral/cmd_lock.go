package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
)

// lockCmd writes or checks the node lock file.
func lockCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Write or check the node lock file",
		Long: `Write or check the node lock file.

The lock file records every node's checksum, the global order, and the
schema fingerprint. Committing it makes node drift visible in review
and lets CI fail fast with --check.`,
		Example: `  # Record the current node tree
  migral lock

  # CI: fail when the tree no longer matches the lock
  migral lock --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newOfflineClient()
			if err != nil {
				return exitOnError(err)
			}
			cfg := client.Config()

			if !check {
				if err := client.WriteLock(); err != nil {
					return exitOnError(err)
				}
				fmt.Println(cli.FormatSuccess("wrote " + cfg.LockfilePath))
				return nil
			}

			result, err := client.CheckLock()
			if err != nil {
				return exitOnError(err)
			}
			if result.Valid {
				fmt.Println(cli.FormatSuccess(cfg.LockfilePath + " matches the node tree"))
				return nil
			}

			if !result.LockFileExists {
				fmt.Fprintln(os.Stderr, cli.Error("lock")+": "+cfg.LockfilePath+" does not exist")
			}
			if !result.FingerprintMatch && result.LockFileExists {
				fmt.Fprintln(os.Stderr, cli.Error("lock")+": schema fingerprint changed")
			}
			for _, n := range result.NewNodes {
				fmt.Fprintln(os.Stderr, cli.Warning("new")+": "+n)
			}
			for _, n := range result.RemovedNodes {
				fmt.Fprintln(os.Stderr, cli.Error("removed")+": "+n)
			}
			for _, n := range result.ModifiedNodes {
				fmt.Fprintln(os.Stderr, cli.Error("modified")+": "+n)
			}
			if result.OrderChanged {
				fmt.Fprintln(os.Stderr, cli.Error("lock")+": node order changed")
			}
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, cli.Help("hint")+": run "+cli.Code("migral lock")+" to accept the current tree")
			os.Exit(1)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Verify the lock file instead of writing it")
	return cmd
}
