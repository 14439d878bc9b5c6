// Package lockfile reads and writes migral.lock. The lock file pins the
// planned apply order, each node's chained checksum, and the fingerprint of
// the schema the plan produces, so reviews and CI can detect drift between
// what was committed and what the tree now plans.
package lockfile

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/migral/migral/internal/engine"
	"github.com/migral/migral/internal/merr"
)

// DefaultName is the lock file name, placed next to migral.yaml.
const DefaultName = "migral.lock"

// Version is the current lock file format version.
const Version = 1

// Node is one planned node entry.
type Node struct {
	Namespace string `yaml:"namespace"`
	Name      string `yaml:"name"`
	Checksum  string `yaml:"checksum"`
}

// LockFile is the parsed contents of a migral.lock file.
type LockFile struct {
	Version     int    `yaml:"version"`
	Fingerprint string `yaml:"fingerprint"`
	Nodes       []Node `yaml:"nodes"`
}

// FromPlan builds the lock contents for a plan and the fingerprint of the
// schema it replays to.
func FromPlan(plan *engine.Plan, fingerprint string) *LockFile {
	lf := &LockFile{
		Version:     Version,
		Fingerprint: fingerprint,
		Nodes:       make([]Node, 0, len(plan.Nodes)),
	}
	for _, n := range plan.Nodes {
		lf.Nodes = append(lf.Nodes, Node{
			Namespace: n.Namespace,
			Name:      n.Name,
			Checksum:  n.Checksum,
		})
	}
	return lf
}

// Read reads and parses a lock file. A missing file returns (nil, nil);
// callers treat that as "no lock yet".
func Read(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, merr.Wrap(merr.ErrLockfile, err, "could not read lock file").
			WithFile(path)
	}

	var lf LockFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, merr.Wrap(merr.ErrLockfile, err, "lock file is not valid YAML").
			WithFile(path)
	}
	if lf.Version != Version {
		return nil, merr.New(merr.ErrLockfile, "unsupported lock file version").
			WithFile(path).
			With("version", lf.Version)
	}
	return &lf, nil
}

// Write serializes the lock file to path, creating parent directories.
func (lf *LockFile) Write(path string) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return merr.Wrap(merr.ErrLockfile, err, "could not serialize lock file")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return merr.Wrap(merr.ErrLockfile, err, "could not create lock file directory").
				WithFile(path)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return merr.Wrap(merr.ErrLockfile, err, "could not write lock file").
			WithFile(path)
	}
	return nil
}

// VerificationResult describes how a recorded lock compares to the lock the
// current tree would produce.
type VerificationResult struct {
	Valid            bool
	LockFileExists   bool
	FingerprintMatch bool

	// Node references ("namespace.name") by kind of difference.
	NewNodes      []string
	RemovedNodes  []string
	ModifiedNodes []string

	// OrderChanged is set when both locks hold the same nodes but the
	// planned order differs.
	OrderChanged bool
}

// Verify compares a recorded lock file against the current lock contents.
func Verify(path string, current *LockFile) (*VerificationResult, error) {
	result := &VerificationResult{
		Valid:            true,
		LockFileExists:   true,
		FingerprintMatch: true,
	}

	recorded, err := Read(path)
	if err != nil {
		return nil, err
	}
	if recorded == nil {
		result.LockFileExists = false
		result.Valid = false
		return result, nil
	}

	if recorded.Fingerprint != current.Fingerprint {
		result.FingerprintMatch = false
		result.Valid = false
	}

	recordedSums := make(map[string]string, len(recorded.Nodes))
	for _, n := range recorded.Nodes {
		recordedSums[n.Namespace+"."+n.Name] = n.Checksum
	}

	currentRefs := make(map[string]bool, len(current.Nodes))
	for _, n := range current.Nodes {
		ref := n.Namespace + "." + n.Name
		currentRefs[ref] = true

		sum, ok := recordedSums[ref]
		switch {
		case !ok:
			result.NewNodes = append(result.NewNodes, ref)
			result.Valid = false
		case sum != n.Checksum:
			result.ModifiedNodes = append(result.ModifiedNodes, ref)
			result.Valid = false
		}
	}

	for _, n := range recorded.Nodes {
		ref := n.Namespace + "." + n.Name
		if !currentRefs[ref] {
			result.RemovedNodes = append(result.RemovedNodes, ref)
			result.Valid = false
		}
	}

	if result.Valid && len(recorded.Nodes) == len(current.Nodes) {
		for i := range recorded.Nodes {
			r, c := recorded.Nodes[i], current.Nodes[i]
			if r.Namespace != c.Namespace || r.Name != c.Name {
				result.OrderChanged = true
				result.Valid = false
				break
			}
		}
	}

	return result, nil
}
