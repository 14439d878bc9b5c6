package engine

import (
	"slices"

	"github.com/migral/migral/internal/merr"
)

// PlanPending returns the ordered plan restricted to nodes not yet recorded
// in the applied-history ledger. The full node set still participates in
// graph resolution so dependency order holds across applied and pending
// nodes alike.
//
// Checksums of applied nodes are verified against the current files first:
// a node file modified after being applied fails with ErrNodeChecksum.
func PlanPending(all []*Node, applied []AppliedNode) (*Plan, error) {
	appliedSet := make(map[NodeRef]bool, len(applied))
	appliedChecksums := make(map[NodeRef]string, len(applied))
	for _, a := range applied {
		appliedSet[a.Ref()] = true
		appliedChecksums[a.Ref()] = a.Checksum
	}

	if err := verifyChecksums(all, appliedChecksums); err != nil {
		return nil, err
	}

	full, err := PlanNodes(all)
	if err != nil {
		return nil, err
	}

	pending := &Plan{}
	for _, n := range full.Nodes {
		if !appliedSet[n.Ref()] {
			pending.Nodes = append(pending.Nodes, n)
		}
	}
	return pending, nil
}

// verifyChecksums checks that all applied nodes still match their recorded checksums.
func verifyChecksums(all []*Node, appliedChecksums map[NodeRef]string) error {
	for _, n := range all {
		recorded, ok := appliedChecksums[n.Ref()]
		if !ok {
			continue // not applied yet
		}
		if recorded == "" || n.Checksum == "" {
			continue // no checksum to compare
		}
		if recorded != n.Checksum {
			return merr.New(merr.ErrNodeChecksum, "node file was modified after being applied").
				WithNode(n.Namespace, n.Name).
				With("expected", recorded).
				With("actual", n.Checksum)
		}
	}
	return nil
}

// GetStatus returns the status of every node known to either the files or
// the ledger, sorted by (namespace, name).
func GetStatus(all []*Node, applied []AppliedNode) []Status {
	nodeMap := ToMap(all, func(n *Node) NodeRef { return n.Ref() })
	appliedMap := ToMap(applied, func(a AppliedNode) NodeRef { return a.Ref() })

	refSet := make(map[NodeRef]bool, len(all)+len(applied))
	for _, n := range all {
		refSet[n.Ref()] = true
	}
	for _, a := range applied {
		refSet[a.Ref()] = true
	}

	refs := make([]NodeRef, 0, len(refSet))
	for r := range refSet {
		refs = append(refs, r)
	}
	slices.SortFunc(refs, ByRef)

	statuses := make([]Status, 0, len(refs))
	for _, ref := range refs {
		status := Status{Ref: ref}

		n, hasNode := nodeMap[ref]
		a, wasApplied := appliedMap[ref]

		if hasNode {
			status.Checksum = n.Checksum
		}

		if wasApplied {
			appliedStr := a.AppliedAt.Format("2006-01-02 15:04:05")
			status.AppliedAt = &appliedStr

			switch {
			case !hasNode:
				status.Status = StatusMissing
			case a.Checksum != "" && n.Checksum != "" && a.Checksum != n.Checksum:
				status.Status = StatusModified
			default:
				status.Status = StatusApplied
			}
		} else {
			status.Status = StatusPending
		}

		statuses = append(statuses, status)
	}

	return statuses
}
