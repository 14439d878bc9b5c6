package git

import (
	"fmt"
	"path/filepath"

	"github.com/migral/migral/internal/chain"
)

// PreApplyCheck summarizes the git state of the migration tree before
// nodes are applied.
type PreApplyCheck struct {
	InGitRepo          bool
	HasUncommittedWork bool
	UncommittedFiles   []FileStatus
	Warnings           []string
	Errors             []string
}

// CheckBeforeApply inspects the migration tree's git state. Untracked
// node files are warnings; modified ones are errors, because a node
// edited after commit may already be applied elsewhere under its old
// checksum.
func CheckBeforeApply(migrationsDir string) (*PreApplyCheck, error) {
	result := &PreApplyCheck{}

	repo, err := Open(migrationsDir)
	if err != nil {
		result.Warnings = append(result.Warnings,
			"Not in a git repository. Node history won't be tracked in git.")
		return result, nil
	}
	result.InGitRepo = true

	uncommitted, err := repo.UncommittedNodes(migrationsDir)
	if err != nil {
		return nil, err
	}
	if len(uncommitted) == 0 {
		return result, nil
	}

	result.HasUncommittedWork = true
	result.UncommittedFiles = uncommitted
	for _, f := range uncommitted {
		switch f.Status {
		case StatusUntracked:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Untracked: %s", filepath.Base(f.Path)))
		case StatusModified:
			result.Errors = append(result.Errors,
				fmt.Sprintf("Modified: %s - this node may have been applied elsewhere", filepath.Base(f.Path)))
		case StatusDeleted:
			result.Errors = append(result.Errors,
				fmt.Sprintf("Deleted: %s - applied nodes must keep their files", filepath.Base(f.Path)))
		}
	}

	return result, nil
}

// ChainsAtCommit computes every namespace's checksum chain from the
// migration tree as it existed at the commit.
func ChainsAtCommit(migrationsDir, commit string) (map[string]*chain.Chain, error) {
	repo, err := Open(migrationsDir)
	if err != nil {
		return nil, err
	}

	byNamespace, err := repo.NodeFilesAtCommit(migrationsDir, commit)
	if err != nil {
		return nil, err
	}

	chains := make(map[string]*chain.Chain, len(byNamespace))
	for ns, files := range byNamespace {
		chains[ns] = chain.ComputeFromFiles(ns, files)
	}
	return chains, nil
}
