package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/cli"
)

// watchCmd re-runs the check pipeline whenever a node file changes.
func watchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run check on every node file change",
		Long: `Re-run check on every node file change.

Watches the migration tree and re-validates on save: every node file
is parsed, the dependency order resolved, the schema replayed, and the
DDL executed against a throwaway in-memory database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return exitOnError(err)
			}
			requireMigrationsDir(cfg)

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			// Watch the tree recursively; new namespace dirs get added
			// as create events arrive.
			filepath.Walk(cfg.MigrationsDir, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return nil
				}
				if info.IsDir() {
					watcher.Add(path)
				}
				return nil
			})

			fmt.Println(cli.Info("Watching " + cfg.MigrationsDir + " (Ctrl+C to stop)"))
			runCheckOnce(cfg)

			var timer *time.Timer
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&fsnotify.Create != 0 {
						if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
							watcher.Add(event.Name)
							continue
						}
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
						continue
					}
					if !strings.HasSuffix(event.Name, ".yaml") {
						continue
					}
					// Editors fire bursts of events per save.
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, func() {
						runCheckOnce(cfg)
					})
				case watchErr, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintln(os.Stderr, cli.Warning("watch")+": "+watchErr.Error())
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Delay before re-checking after a change")
	return cmd
}

// runCheckOnce validates the tree and prints a one-line verdict.
func runCheckOnce(cfg *Config) {
	stamp := time.Now().Format("15:04:05")

	client, err := newOfflineClient()
	if err != nil {
		fmt.Println(cli.Dim(stamp) + " " + cli.Failed("check failed"))
		fmt.Println(cli.FormatError(err))
		return
	}

	nodes, err := client.Load()
	if err == nil {
		_, err = client.Schema()
	}
	if err == nil {
		err = client.VerifySchema(context.Background())
	}
	if err != nil {
		fmt.Println(cli.Dim(stamp) + " " + cli.Failed("check failed"))
		fmt.Println(cli.FormatError(err))
		return
	}

	fmt.Println(cli.Dim(stamp) + " " + cli.Done("ok") + " " +
		cli.Dim(pluralize(len(nodes), "node", "nodes")))
}
