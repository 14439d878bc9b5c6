package engine

import (
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/merr"
)

// ApplyAll replays each node's operations, in node order then intra-node
// sequence order, against the given schema state.
//
// The first operation failure aborts the whole call with that operation's
// error annotated with the node and operation index. The schema is then in an
// unspecified partial state; callers wanting atomicity replay onto a
// schema.Clone() and discard it on failure. There is no rollback mechanism.
func ApplyAll(ordered []*Node, schema *state.Schema) error {
	for _, n := range ordered {
		for i, op := range n.Operations {
			if err := state.Apply(schema, op); err != nil {
				if e, ok := err.(*merr.Error); ok {
					return e.WithNode(n.Namespace, n.Name).
						WithOpIndex(i).
						With("kind", op.Kind().String())
				}
				return merr.Wrap(merr.ErrApplyFailed, err, "operation failed").
					WithNode(n.Namespace, n.Name).
					WithOpIndex(i).
					With("kind", op.Kind().String())
			}
		}
	}
	return nil
}

// Replay plans the given nodes and replays them from an empty schema,
// returning both the plan and the resulting snapshot.
func Replay(nodes []*Node) (*Plan, *state.Schema, error) {
	plan, err := PlanNodes(nodes)
	if err != nil {
		return nil, nil, err
	}
	schema, err := plan.Schema()
	if err != nil {
		return nil, nil, err
	}
	return plan, schema, nil
}
