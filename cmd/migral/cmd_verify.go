package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/chain"
	"github.com/migral/migral/internal/cli"
	"github.com/migral/migral/internal/git"
)

// verifyCmd checks chain integrity against the ledger.
func verifyCmd() *cobra.Command {
	var atCommit string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify checksum chains against the ledger",
		Long: `Verify checksum chains against the ledger.

Each namespace's node files form a checksum chain; editing an applied
file, or deleting one, breaks its chain. Verification compares every
chain to the checksums recorded at apply time.

With --at, the current node files are instead compared against the tree
at an older git commit, so rewritten history shows up in review.`,
		Example: `  # Compare chains to the ledger
  migral verify

  # Compare chains to the tree at a git revision
  migral verify --at origin/main`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if atCommit != "" {
				return verifyAtCommit(atCommit)
			}
			client, err := newClient()
			if err != nil {
				return exitOnError(err)
			}
			defer client.Close()

			reports, err := client.VerifyChains(context.Background())
			if err != nil {
				return exitOnError(err)
			}

			if len(reports) == 0 {
				fmt.Println(cli.Info("No namespaces found."))
				return nil
			}

			allValid := true
			for _, r := range reports {
				if r.Valid {
					fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s: %s, %s",
						r.Namespace,
						pluralize(len(r.Applied), "node applied", "nodes applied"),
						pluralize(len(r.Pending), "pending", "pending"))))
					continue
				}
				allValid = false
				for _, p := range r.Problems {
					fmt.Fprintln(os.Stderr, cli.Error(r.Namespace)+": "+p)
				}
			}

			if !allValid {
				fmt.Fprintln(os.Stderr)
				fmt.Fprintln(os.Stderr, cli.Help("hint")+": restore the original files from version control")
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&atCommit, "at", "", "Compare against the migration tree at a git revision")
	return cmd
}

// verifyAtCommit compares today's chains with the chains at an older
// commit: any node that existed then must carry the same checksum now.
func verifyAtCommit(commit string) error {
	cfg, err := loadConfig()
	if err != nil {
		return exitOnError(err)
	}
	requireMigrationsDir(cfg)

	historical, err := git.ChainsAtCommit(cfg.MigrationsDir, commit)
	if err != nil {
		return exitOnError(err)
	}
	current, err := chain.ComputeAll(cfg.MigrationsDir)
	if err != nil {
		return exitOnError(err)
	}

	rewritten := false
	for ns, old := range historical {
		now, ok := current[ns]
		if !ok {
			fmt.Fprintln(os.Stderr, cli.Error(ns)+": namespace existed at "+commit+" but is gone")
			rewritten = true
			continue
		}
		nowSums := now.Checksums()
		for _, link := range old.Links {
			sum, exists := nowSums[link.Name]
			switch {
			case !exists:
				fmt.Fprintln(os.Stderr, cli.Error(ns)+": node "+link.Name+" existed at "+commit+" but is gone")
				rewritten = true
			case sum != link.Checksum:
				fmt.Fprintln(os.Stderr, cli.Error(ns)+": node "+link.Name+" changed since "+commit)
				rewritten = true
			}
		}
	}

	if rewritten {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, cli.Help("hint")+": applied nodes are append-only; add a new node instead of editing old ones")
		os.Exit(1)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("chains are append-only since %s (%s)",
		commit, pluralize(len(historical), "namespace", "namespaces"))))
	return nil
}
