// Package chain implements per-namespace checksum chains for tamper
// detection. Each node file's checksum is computed as
// sha256(content + prev_checksum), so editing any node file invalidates
// every later checksum in its namespace.
package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/migral/migral/internal/merr"
)

// GenesisChecksum seeds the first link of every namespace chain.
const GenesisChecksum = "genesis"

// Link is a single node file in a namespace chain.
type Link struct {
	Sequence     string // e.g., "0001"
	Label        string // e.g., "initial"
	Name         string // e.g., "0001_initial" (node name)
	Filename     string // e.g., "0001_initial.yaml"
	Checksum     string // sha256(content + prev_checksum)
	PrevChecksum string // previous link's checksum
	Content      []byte // raw file content
}

// Chain is the computed checksum chain of one namespace.
type Chain struct {
	Namespace string
	Links     []Link
}

// Applied is a node recorded in the history ledger, as seen by the chain.
type Applied struct {
	Name      string
	Checksum  string
	AppliedAt string
}

// VerificationResult describes how a chain compares to the ledger.
type VerificationResult struct {
	Valid           bool
	Errors          []ChainError
	PendingLinks    []Link           // links not yet applied
	AppliedLinks    []Link           // links that match the ledger
	MismatchedLinks []MismatchedLink // links whose checksum changed after apply
	MissingFiles    []Applied        // applied but the file is gone
}

// MismatchedLink pairs a link with the checksum the ledger recorded for it.
type MismatchedLink struct {
	Link             Link
	ExpectedChecksum string // from the ledger
	ActualChecksum   string // computed from the file
}

// ChainError is one integrity failure found during verification.
type ChainError struct {
	Type    ErrorType
	Name    string
	Message string
	Details string
}

// ErrorType categorizes chain errors.
type ErrorType int

const (
	ErrorTampered ErrorType = iota // file modified after being applied
	ErrorMissing                   // applied node file is missing
	ErrorGap                       // gap in sequence numbering
)

// ComputeNamespace reads one namespace directory and computes its chain.
// A missing directory yields an empty chain, not an error.
func ComputeNamespace(dir, namespace string) (*Chain, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Chain{Namespace: namespace}, nil
		}
		return nil, merr.Wrap(merr.ErrDefinitionRead, err, "failed to read namespace directory").
			With("path", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isNodeFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	// Filename order is sequence order thanks to the numeric prefix.
	sort.Strings(files)

	chain := &Chain{
		Namespace: namespace,
		Links:     make([]Link, 0, len(files)),
	}
	prevChecksum := GenesisChecksum
	for _, filename := range files {
		content, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return nil, merr.Wrap(merr.ErrDefinitionRead, err, "failed to read node file").
				WithFile(filepath.Join(dir, filename))
		}
		link := makeLink(filename, content, prevChecksum)
		chain.Links = append(chain.Links, link)
		prevChecksum = link.Checksum
	}
	return chain, nil
}

// ComputeAll walks a migrations root where each subdirectory is a namespace
// and returns the chain of every namespace found.
func ComputeAll(root string) (map[string]*Chain, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*Chain{}, nil
		}
		return nil, merr.Wrap(merr.ErrDefinitionRead, err, "failed to read migrations root").
			With("path", root)
	}

	chains := make(map[string]*Chain)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ns := entry.Name()
		chain, err := ComputeNamespace(filepath.Join(root, ns), ns)
		if err != nil {
			return nil, err
		}
		chains[ns] = chain
	}
	return chains, nil
}

// ComputeFromFiles computes a namespace chain from filename -> content.
// Useful for verifying the chain at a specific VCS revision.
func ComputeFromFiles(namespace string, files map[string][]byte) *Chain {
	var filenames []string
	for name := range files {
		if isNodeFile(name) {
			filenames = append(filenames, name)
		}
	}
	sort.Strings(filenames)

	chain := &Chain{
		Namespace: namespace,
		Links:     make([]Link, 0, len(filenames)),
	}
	prevChecksum := GenesisChecksum
	for _, filename := range filenames {
		link := makeLink(filename, files[filename], prevChecksum)
		chain.Links = append(chain.Links, link)
		prevChecksum = link.Checksum
	}
	return chain
}

// Verify compares the computed chain against the ledger's applied records
// and checks that sequence numbers run 0001, 0002, ... without holes.
func (c *Chain) Verify(applied []Applied) *VerificationResult {
	result := &VerificationResult{Valid: true}

	prev := 0
	for _, link := range c.Links {
		n, err := strconv.Atoi(link.Sequence)
		if err != nil {
			continue
		}
		if n != prev+1 {
			result.Valid = false
			result.Errors = append(result.Errors, ChainError{
				Type:    ErrorGap,
				Name:    link.Name,
				Message: fmt.Sprintf("node %s has sequence %s, expected %04d", link.Filename, link.Sequence, prev+1),
				Details: fmt.Sprintf("namespace: %s", c.Namespace),
			})
		}
		prev = n
	}

	appliedByName := make(map[string]Applied, len(applied))
	for _, a := range applied {
		appliedByName[a.Name] = a
	}
	linkByName := make(map[string]Link, len(c.Links))
	for _, l := range c.Links {
		linkByName[l.Name] = l
	}

	for _, link := range c.Links {
		record, wasApplied := appliedByName[link.Name]
		if !wasApplied {
			result.PendingLinks = append(result.PendingLinks, link)
			continue
		}
		if record.Checksum != link.Checksum {
			result.Valid = false
			result.MismatchedLinks = append(result.MismatchedLinks, MismatchedLink{
				Link:             link,
				ExpectedChecksum: record.Checksum,
				ActualChecksum:   link.Checksum,
			})
			result.Errors = append(result.Errors, ChainError{
				Type:    ErrorTampered,
				Name:    link.Name,
				Message: fmt.Sprintf("node %s was modified after being applied", link.Filename),
				Details: fmt.Sprintf("expected checksum: %s\nactual checksum: %s", record.Checksum, link.Checksum),
			})
		} else {
			result.AppliedLinks = append(result.AppliedLinks, link)
		}
	}

	for _, record := range applied {
		if _, hasFile := linkByName[record.Name]; !hasFile {
			result.Valid = false
			result.MissingFiles = append(result.MissingFiles, record)
			result.Errors = append(result.Errors, ChainError{
				Type:    ErrorMissing,
				Name:    record.Name,
				Message: fmt.Sprintf("applied node %s.%s is missing from the filesystem", c.Namespace, record.Name),
				Details: fmt.Sprintf("checksum in ledger: %s", record.Checksum),
			})
		}
	}

	return result
}

// GetLink returns the link with the given node name, or nil.
func (c *Chain) GetLink(name string) *Link {
	for i := range c.Links {
		if c.Links[i].Name == name {
			return &c.Links[i]
		}
	}
	return nil
}

// LastChecksum returns the checksum of the last link, or genesis if empty.
func (c *Chain) LastChecksum() string {
	if len(c.Links) == 0 {
		return GenesisChecksum
	}
	return c.Links[len(c.Links)-1].Checksum
}

// NextSequence returns the zero-padded sequence number after the last link.
func (c *Chain) NextSequence() string {
	max := 0
	for _, l := range c.Links {
		var n int
		if _, err := fmt.Sscanf(l.Sequence, "%d", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%04d", max+1)
}

// Checksums returns node name -> chained checksum for every link.
func (c *Chain) Checksums() map[string]string {
	out := make(map[string]string, len(c.Links))
	for _, l := range c.Links {
		out[l.Name] = l.Checksum
	}
	return out
}

func makeLink(filename string, content []byte, prevChecksum string) Link {
	sequence, label := parseFilename(filename)
	return Link{
		Sequence:     sequence,
		Label:        label,
		Name:         strings.TrimSuffix(filename, ".yaml"),
		Filename:     filename,
		Checksum:     computeChecksum(content, prevChecksum),
		PrevChecksum: prevChecksum,
		Content:      content,
	}
}

// computeChecksum computes sha256(content + prevChecksum).
func computeChecksum(content []byte, prevChecksum string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte(prevChecksum))
	return hex.EncodeToString(h.Sum(nil))
}

// isNodeFile reports whether a filename looks like a node definition:
// a numeric prefix and a .yaml extension.
func isNodeFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") && len(name) > 5 &&
		name[0] >= '0' && name[0] <= '9'
}

// parseFilename extracts sequence and label from a node filename.
// e.g., "0001_initial.yaml" -> ("0001", "initial")
func parseFilename(filename string) (sequence, label string) {
	base := strings.TrimSuffix(filename, ".yaml")
	idx := strings.Index(base, "_")
	if idx == -1 {
		return base, ""
	}
	return base[:idx], base[idx+1:]
}

// FormatFilename creates a node filename from sequence and label.
func FormatFilename(sequence, label string) string {
	return fmt.Sprintf("%s_%s.yaml", sequence, label)
}
