package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/migral/migral/internal/chain"
	"github.com/migral/migral/internal/cli"
	"github.com/migral/migral/internal/git"
	"github.com/migral/migral/internal/strutil"
	"github.com/migral/migral/internal/validate"
)

const initialNodeTemplate = `docs: Describe what this namespace models.
operations:
  - kind: create_model
    model: %s
    fields:
      - name: name
        type: char
        max_length: 256
`

const followupNodeTemplate = `depends_on:
  - %s
operations: []
`

// newCmd creates the next node file in a namespace.
func newCmd() *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "new <namespace> <label>",
		Short: "Create the next node file in a namespace",
		Long: `Create the next node file in a namespace.

The sequence number is derived from existing files, and the new node
depends on the namespace's latest node so the chain stays linear.`,
		Example: `  # First node of a namespace
  migral new country initial

  # Any free-form label is slugged into a filename
  migral new contact "add email to contacts"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				printHelp("new_args_required")
				os.Exit(1)
			}
			namespace := args[0]
			label := strutil.LabelSlug(args[1])

			if err := validate.Namespace(namespace); err != nil {
				return exitOnError(err)
			}
			if label == "" {
				printHelp("new_args_required")
				os.Exit(1)
			}

			cfg, err := loadConfig()
			if err != nil {
				return exitOnError(err)
			}

			nsDir := filepath.Join(cfg.MigrationsDir, namespace)
			if err := os.MkdirAll(nsDir, DirPerm); err != nil {
				return err
			}

			ch, err := chain.ComputeNamespace(cfg.MigrationsDir, namespace)
			if err != nil {
				return exitOnError(err)
			}

			filename := chain.FormatFilename(ch.NextSequence(), label)
			path := filepath.Join(nsDir, filename)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("node file already exists: %s", path)
			}

			var content string
			if len(ch.Links) == 0 {
				content = fmt.Sprintf(initialNodeTemplate, namespace)
			} else {
				prev := ch.Links[len(ch.Links)-1]
				content = fmt.Sprintf(followupNodeTemplate, prev.Name)
			}

			if err := os.WriteFile(path, []byte(content), FilePerm); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("created " + path))

			if commit {
				repo, err := git.Open(cfg.MigrationsDir)
				if err != nil {
					return exitOnError(err)
				}
				msg := fmt.Sprintf("Add %s node %s", namespace, filename)
				if err := repo.CommitFiles(msg, path); err != nil {
					return exitOnError(err)
				}
				fmt.Println(cli.FormatSuccess("committed " + filename))
			}

			fmt.Println(cli.Help("next") + ": edit the file, then run " + cli.Code("migral check"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "Commit the new node file to git")
	return cmd
}
