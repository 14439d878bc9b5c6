// Package engine provides migration node planning and replay.
// Nodes parsed from declarative definitions are resolved into one global
// application order and replayed into a schema snapshot.
package engine

import (
	"time"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/engine/state"
)

// NodeRef identifies a migration node, possibly in another namespace.
type NodeRef struct {
	Namespace string
	Name      string
}

// String returns the dot-separated reference (namespace.name).
func (r NodeRef) String() string {
	return r.Namespace + "." + r.Name
}

// Node is a named unit of schema evolution: an ordered list of operations
// plus dependency references to other nodes. Nodes are created once from a
// declarative source and never mutated afterwards.
type Node struct {
	// Namespace groups related models (an application boundary).
	Namespace string

	// Name is the node's file-derived identifier (e.g., "0004_auto_20200818").
	// The numeric prefix orders nodes for humans; dependencies are authoritative.
	Name string

	// Path is the definition file this node was loaded from.
	Path string

	// Checksum is the chained SHA256 of the definition content, for tamper detection.
	Checksum string

	// Operations apply strictly in sequence within the node.
	Operations []ast.Operation

	// DependsOn lists nodes that must be applied before this one.
	DependsOn []NodeRef

	// Initial marks the first node of a namespace.
	Initial bool
}

// Ref returns the node's own reference.
func (n *Node) Ref() NodeRef {
	return NodeRef{Namespace: n.Namespace, Name: n.Name}
}

// ID returns the dot-separated node identifier (namespace.name).
func (n *Node) ID() string {
	return n.Ref().String()
}

// Plan is an ordered sequence of nodes ready to replay.
type Plan struct {
	Nodes []*Node
}

// IsEmpty returns true if the plan has no nodes to execute.
func (p *Plan) IsEmpty() bool {
	return len(p.Nodes) == 0
}

// Schema replays the plan's operations from an empty schema and returns the
// resulting snapshot.
func (p *Plan) Schema() (*state.Schema, error) {
	schema := state.NewSchema()
	if err := ApplyAll(p.Nodes, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// AppliedNode represents a node recorded in the applied-history ledger.
type AppliedNode struct {
	Namespace  string
	Name       string
	AppliedAt  time.Time
	Checksum   string
	ExecTimeMs int
}

// Ref returns the applied node's reference.
func (a AppliedNode) Ref() NodeRef {
	return NodeRef{Namespace: a.Namespace, Name: a.Name}
}

// NodeStatus classifies one node against the applied-history ledger.
type NodeStatus int

const (
	// StatusPending means the node has not been applied.
	StatusPending NodeStatus = iota
	// StatusApplied means the node has been applied.
	StatusApplied
	// StatusMissing means the node file is missing but was previously applied.
	StatusMissing
	// StatusModified means the node checksum doesn't match the recorded value.
	StatusModified
)

// String returns the string representation of the status.
func (s NodeStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApplied:
		return "applied"
	case StatusMissing:
		return "missing"
	case StatusModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Status pairs a node reference with its ledger state.
type Status struct {
	Ref       NodeRef
	Status    NodeStatus
	AppliedAt *string // nil if not applied
	Checksum  string
}
