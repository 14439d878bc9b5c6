package engine

import (
	"slices"
	"strings"

	"github.com/migral/migral/internal/merr"
)

// ByRef sorts node references ascending by (namespace, name). This is the
// tie-break order used whenever several nodes are simultaneously ready, which
// makes planning reproducible regardless of input iteration order.
func ByRef(a, b NodeRef) int {
	if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// PlanNodes resolves the dependency graph of the given nodes into one valid
// linear application order.
//
// Each dependency reference is a directed edge dependency -> dependent; the
// result is a topological order computed with Kahn's algorithm. Among nodes
// whose dependencies are all satisfied at a given step, the (namespace, name)
// ascending order decides, so repeated calls with the same input always
// return the same plan.
//
// Fails with ErrMissingDep if a node references a node not in the set,
// ErrNodeConflict if two nodes share a reference, and ErrCyclicDependency
// if no topological order exists.
func PlanNodes(nodes []*Node) (*Plan, error) {
	if len(nodes) == 0 {
		return &Plan{}, nil
	}

	// Index nodes and reject duplicates.
	nodeMap := make(map[NodeRef]*Node, len(nodes))
	for _, n := range nodes {
		ref := n.Ref()
		if prev, exists := nodeMap[ref]; exists {
			return nil, merr.New(merr.ErrNodeConflict, "two nodes share the same name").
				WithNode(n.Namespace, n.Name).
				With("first", prev.Path).
				With("second", n.Path)
		}
		nodeMap[ref] = n
	}

	// Every dependency must be present; dangling references are an error,
	// not an implicit no-op.
	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			if _, ok := nodeMap[dep]; !ok {
				return nil, merr.New(merr.ErrMissingDep, "node depends on an unknown node").
					WithNode(n.Namespace, n.Name).
					With("dependency", dep.String())
			}
		}
	}

	// In-degree per node and reverse adjacency (dependency -> dependents).
	inDegree := make(map[NodeRef]int, len(nodes))
	dependents := make(map[NodeRef][]NodeRef, len(nodes))
	for _, n := range nodes {
		ref := n.Ref()
		inDegree[ref] += 0
		for _, dep := range n.DependsOn {
			inDegree[ref]++
			dependents[dep] = append(dependents[dep], ref)
		}
	}

	// Frontier of ready nodes, kept sorted for deterministic output.
	var queue []NodeRef
	for _, n := range nodes {
		if inDegree[n.Ref()] == 0 {
			queue = append(queue, n.Ref())
		}
	}
	slices.SortFunc(queue, ByRef)

	ordered := make([]*Node, 0, len(nodes))
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		ordered = append(ordered, nodeMap[ref])

		released := false
		for _, dep := range dependents[ref] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
				released = true
			}
		}
		if released {
			slices.SortFunc(queue, ByRef)
		}
	}

	// Nodes left with positive in-degree form at least one cycle.
	if len(ordered) != len(nodes) {
		var stuck []string
		for ref, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, ref.String())
			}
		}
		slices.Sort(stuck)
		return nil, merr.New(merr.ErrCyclicDependency, "migration nodes form a dependency cycle").
			With("nodes", strings.Join(stuck, ", "))
	}

	return &Plan{Nodes: ordered}, nil
}
