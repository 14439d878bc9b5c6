// Package git shells out to git for node-file tracking: dirty-tree
// checks before apply, auto-committing new node files, and reading the
// migration tree as it existed at an older commit.
package git

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/migral/migral/internal/merr"
)

// Status represents the git status of a file.
type Status int

const (
	StatusUnknown Status = iota
	StatusUntracked
	StatusModified
	StatusStaged
	StatusCommitted
	StatusDeleted
)

// String returns the human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusUntracked:
		return "untracked"
	case StatusModified:
		return "modified"
	case StatusStaged:
		return "staged"
	case StatusCommitted:
		return "committed"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileStatus holds the status of a specific file.
type FileStatus struct {
	Path   string
	Status Status
}

// RepoInfo holds information about a git repository.
type RepoInfo struct {
	IsRepo        bool
	RootDir       string
	CurrentBranch string
	IsDirty       bool
}

// Repo provides git operations for one repository.
type Repo struct {
	rootDir string
}

// Open opens the git repository containing path.
func Open(path string) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, merr.Wrap(merr.ErrInternal, err, "could not resolve path")
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absPath
	out, err := cmd.Output()
	if err != nil {
		return nil, merr.New(merr.ErrNotGitRepo, "not a git repository").
			With("path", absPath)
	}

	return &Repo{rootDir: strings.TrimSpace(string(out))}, nil
}

// RootDir returns the root directory of the repository.
func (r *Repo) RootDir() string {
	return r.rootDir
}

// Info returns branch and dirtiness information.
func (r *Repo) Info() (*RepoInfo, error) {
	info := &RepoInfo{
		IsRepo:  true,
		RootDir: r.rootDir,
	}

	if branch, err := r.runGit("rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		info.CurrentBranch = strings.TrimSpace(branch)
	}
	if status, err := r.runGit("status", "--porcelain"); err == nil {
		info.IsDirty = len(strings.TrimSpace(status)) > 0
	}

	return info, nil
}

// IsTracked reports whether the file is tracked by git.
func (r *Repo) IsTracked(path string) (bool, error) {
	relPath, err := r.relativePath(path)
	if err != nil {
		return false, err
	}

	_, err = r.runGit("ls-files", "--error-unmatch", relPath)
	return err == nil, nil
}

// UncommittedNodes returns node files under the migration tree that are
// untracked, modified, staged, or deleted.
func (r *Repo) UncommittedNodes(migrationsDir string) ([]FileStatus, error) {
	relDir, err := r.relativePath(migrationsDir)
	if err != nil {
		// Tree doesn't exist yet, nothing to report.
		return nil, nil
	}

	// -uall lists individual files inside untracked directories.
	status, err := r.runGit("status", "--porcelain", "-uall", relDir)
	if err != nil {
		return nil, err
	}

	var files []FileStatus
	for _, line := range strings.Split(status, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) < 4 {
			continue
		}

		// Status line: "XY path" or "XY path -> newpath"
		statusCode := line[0:2]
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx != -1 {
			path = path[idx+4:]
		}

		var s Status
		switch {
		case statusCode[0] == '?' || statusCode[1] == '?':
			s = StatusUntracked
		case statusCode[0] == 'M' || statusCode[1] == 'M':
			s = StatusModified
		case statusCode[0] == 'A':
			s = StatusStaged
		case statusCode[0] == 'D' || statusCode[1] == 'D':
			s = StatusDeleted
		default:
			s = StatusModified
		}

		if !strings.HasSuffix(path, ".yaml") {
			continue
		}

		files = append(files, FileStatus{
			Path:   filepath.Join(r.rootDir, path),
			Status: s,
		})
	}

	return files, nil
}

// Add stages files for commit.
func (r *Repo) Add(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	args := append([]string{"add"}, paths...)
	_, err := r.runGit(args...)
	return err
}

// Commit creates a commit with the given message.
func (r *Repo) Commit(message string) error {
	_, err := r.runGit("commit", "-m", message)
	return err
}

// CommitFiles stages and commits specific files.
func (r *Repo) CommitFiles(message string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	if err := r.Add(paths...); err != nil {
		return err
	}
	return r.Commit(message)
}

// FileAtCommit returns the content of a file at a specific commit.
func (r *Repo) FileAtCommit(path, commit string) ([]byte, error) {
	relPath, err := r.relativePath(path)
	if err != nil {
		return nil, err
	}

	out, err := r.runGit("show", fmt.Sprintf("%s:%s", commit, relPath))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// NodeFilesAtCommit returns every node file under the migration tree as
// it existed at the commit, keyed namespace -> filename -> content.
func (r *Repo) NodeFilesAtCommit(migrationsDir, commit string) (map[string]map[string][]byte, error) {
	relDir, err := r.relativePath(migrationsDir)
	if err != nil {
		relDir = filepath.ToSlash(migrationsDir)
	}

	out, err := r.runGit("ls-tree", "-r", "--name-only", commit, relDir+"/")
	if err != nil {
		return nil, err
	}

	files := make(map[string]map[string][]byte)
	for _, path := range strings.Split(out, "\n") {
		path = strings.TrimSpace(path)
		if path == "" || !strings.HasSuffix(path, ".yaml") {
			continue
		}

		// Namespace is the directory directly under the tree root.
		rel := strings.TrimPrefix(path, relDir+"/")
		parts := strings.SplitN(rel, "/", 2)
		if len(parts) != 2 {
			continue
		}
		namespace, filename := parts[0], parts[1]

		content, err := r.runGit("show", fmt.Sprintf("%s:%s", commit, path))
		if err != nil {
			continue
		}

		if files[namespace] == nil {
			files[namespace] = make(map[string][]byte)
		}
		files[namespace][filename] = []byte(content)
	}

	return files, nil
}

// relativePath returns the path relative to the repository root, with
// forward slashes as git expects.
func (r *Repo) relativePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(r.rootDir, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(relPath), nil
}

// runGit runs a git command in the repository root.
func (r *Repo) runGit(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.rootDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", merr.New(merr.ErrGit, strings.TrimSpace(stderr.String())).
			With("command", "git "+strings.Join(args, " "))
	}

	return stdout.String(), nil
}
