package migral

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/migral/migral/internal/chain"
	"github.com/migral/migral/internal/engine"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/loader"
	"github.com/migral/migral/internal/sqlgen"
)

// Planning, status, and execution of migration nodes.

// PendingNode describes one node that has not been applied yet, in the
// order it would execute.
type PendingNode struct {
	Namespace  string
	Name       string
	Path       string
	Operations int
}

// NodeState pairs a node with its ledger status: "pending", "applied",
// "missing", or "modified".
type NodeState struct {
	Namespace string
	Name      string
	Status    string
	Checksum  string
	AppliedAt *time.Time // nil unless applied
}

// ApplyResult summarizes one Apply run.
type ApplyResult struct {
	// Applied lists the node IDs ("namespace.name") in execution order.
	Applied []string

	// Statements counts the DDL statements rendered (and, outside
	// dry-run, executed).
	Statements int

	// DryRun is true when the SQL was printed instead of executed.
	DryRun bool
}

// HistoryEntry is one ledger record, oldest first.
type HistoryEntry struct {
	Namespace  string
	Name       string
	Checksum   string
	AppliedAt  time.Time
	ExecTimeMs int
}

// ChainReport is the integrity verdict for one namespace chain.
type ChainReport struct {
	Namespace string
	Valid     bool
	Pending   []string // node names not yet applied
	Applied   []string // node names matching the ledger
	Problems  []string // human-readable integrity failures
}

// Load parses every node definition under the migrations directory.
func (c *Client) Load() ([]*engine.Node, error) {
	return loader.LoadDir(c.config.MigrationsDir)
}

// Plan returns the nodes that would be applied, in execution order. In
// offline mode every node is pending.
func (c *Client) Plan(ctx context.Context) ([]PendingNode, error) {
	plan, err := c.pendingPlan(ctx, nil)
	if err != nil {
		return nil, err
	}

	result := make([]PendingNode, len(plan.Nodes))
	for i, n := range plan.Nodes {
		result[i] = PendingNode{
			Namespace:  n.Namespace,
			Name:       n.Name,
			Path:       n.Path,
			Operations: len(n.Operations),
		}
	}
	return result, nil
}

// Status compares every node file against the ledger.
func (c *Client) Status(ctx context.Context) ([]NodeState, error) {
	if c.ledger == nil {
		return nil, ErrOffline
	}

	nodes, err := c.Load()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context(ctx)
	defer cancel()
	applied, err := c.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}

	statuses := engine.GetStatus(nodes, applied)
	result := make([]NodeState, len(statuses))
	for i, s := range statuses {
		result[i] = NodeState{
			Namespace: s.Ref.Namespace,
			Name:      s.Ref.Name,
			Status:    s.Status.String(),
			Checksum:  s.Checksum,
		}
		if s.AppliedAt != nil {
			if t, err := time.Parse("2006-01-02 15:04:05", *s.AppliedAt); err == nil {
				t = t.UTC()
				result[i].AppliedAt = &t
			}
		}
	}
	return result, nil
}

// History returns the ledger's applied records, oldest first. Unlike
// Status it reads only the database, so it works without node files.
func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	if c.ledger == nil {
		return nil, ErrOffline
	}

	ctx, cancel := c.context(ctx)
	defer cancel()
	applied, err := c.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, len(applied))
	for i, a := range applied {
		entries[i] = HistoryEntry{
			Namespace:  a.Namespace,
			Name:       a.Name,
			Checksum:   a.Checksum,
			AppliedAt:  a.AppliedAt,
			ExecTimeMs: a.ExecTimeMs,
		}
	}
	return entries, nil
}

// Apply executes every pending node against the database, recording each
// one in the ledger as it lands. On dialects with transactional DDL each
// node runs in its own transaction, so a failure leaves earlier nodes
// applied and the failing node fully rolled back.
func (c *Client) Apply(ctx context.Context, opts ...ApplyOption) (*ApplyResult, error) {
	cfg := &ApplyConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.DryRun && c.ledger == nil {
		return nil, ErrOffline
	}

	nodes, err := c.Load()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context(ctx)
	defer cancel()

	var applied []engine.AppliedNode
	if c.ledger != nil {
		applied, err = c.ledger.Applied(ctx)
		if err != nil {
			return nil, err
		}
	}

	plan, err := engine.PlanPending(nodes, applied)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{DryRun: cfg.DryRun}
	if plan.IsEmpty() {
		c.log("No pending nodes")
		return result, nil
	}
	c.log("Found %d pending nodes", len(plan.Nodes))

	base, err := baseSchema(nodes, applied)
	if err != nil {
		return nil, err
	}

	builder := sqlgen.NewBuilder(c.dialect)
	for _, node := range plan.Nodes {
		start := time.Now()
		stmts, next, err := renderNode(builder, base, node)
		if err != nil {
			return result, err
		}

		if cfg.DryRun {
			if cfg.Output != nil {
				fmt.Fprintf(cfg.Output, "-- %s\n", node.ID())
				for _, stmt := range stmts {
					fmt.Fprintf(cfg.Output, "%s;\n", stmt)
				}
			}
		} else {
			if err := c.execNode(ctx, node, stmts); err != nil {
				return result, err
			}
			record := engine.AppliedNode{
				Namespace:  node.Namespace,
				Name:       node.Name,
				Checksum:   node.Checksum,
				ExecTimeMs: int(time.Since(start).Milliseconds()),
			}
			if err := c.ledger.Record(ctx, record); err != nil {
				return result, err
			}
			c.log("Applied %s (%d statements)", node.ID(), len(stmts))
		}

		base = next
		result.Applied = append(result.Applied, node.ID())
		result.Statements += len(stmts)
	}

	return result, nil
}

// execNode runs one node's statements, in a transaction when the dialect
// supports transactional DDL.
func (c *Client) execNode(ctx context.Context, node *engine.Node, stmts []string) error {
	db := c.ledger.DB()

	if !c.dialect.SupportsTransactionalDDL() {
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return &ApplyError{Node: node.ID(), SQL: stmt, Cause: err}
			}
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &ApplyError{Node: node.ID(), Cause: err}
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return &ApplyError{Node: node.ID(), SQL: stmt, Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &ApplyError{Node: node.ID(), Cause: err}
	}
	return nil
}

// renderNode renders one node's operations against the evolving schema
// and returns the statements plus the schema after the node.
func renderNode(builder *sqlgen.Builder, base *state.Schema, node *engine.Node) ([]string, *state.Schema, error) {
	var stmts []string
	for _, op := range node.Operations {
		after := base.Clone()
		if err := state.Apply(after, op); err != nil {
			return nil, nil, &ApplyError{Node: node.ID(), Cause: err}
		}
		opStmts, err := builder.OperationSQL(base, after, op)
		if err != nil {
			return nil, nil, &ApplyError{Node: node.ID(), Cause: err}
		}
		stmts = append(stmts, opStmts...)
		base = after
	}
	return stmts, base, nil
}

// baseSchema replays the already-applied subset of nodes into the schema
// the pending nodes start from.
func baseSchema(all []*engine.Node, applied []engine.AppliedNode) (*state.Schema, error) {
	appliedSet := make(map[engine.NodeRef]struct{}, len(applied))
	for _, a := range applied {
		appliedSet[a.Ref()] = struct{}{}
	}

	var subset []*engine.Node
	for _, n := range all {
		if _, ok := appliedSet[n.Ref()]; ok {
			subset = append(subset, n)
		}
	}

	plan, err := engine.PlanNodes(subset)
	if err != nil {
		return nil, err
	}
	return plan.Schema()
}

// pendingPlan loads all nodes and plans the pending subset. A nil ledger
// (offline mode) treats every node as pending.
func (c *Client) pendingPlan(ctx context.Context, nodes []*engine.Node) (*engine.Plan, error) {
	var err error
	if nodes == nil {
		nodes, err = c.Load()
		if err != nil {
			return nil, err
		}
	}

	if c.ledger == nil {
		return engine.PlanNodes(nodes)
	}

	ctx, cancel := c.context(ctx)
	defer cancel()
	applied, err := c.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return engine.PlanPending(nodes, applied)
}

// VerifyChains checks every namespace's checksum chain against the
// ledger and returns one report per namespace, sorted by namespace.
func (c *Client) VerifyChains(ctx context.Context) ([]ChainReport, error) {
	if c.ledger == nil {
		return nil, ErrOffline
	}

	chains, err := chain.ComputeAll(c.config.MigrationsDir)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context(ctx)
	defer cancel()

	reports := make([]ChainReport, 0, len(chains))
	for ns, ch := range chains {
		applied, err := c.ledger.AppliedForNamespace(ctx, ns)
		if err != nil {
			return nil, err
		}
		verdict := ch.Verify(applied)

		report := ChainReport{Namespace: ns, Valid: verdict.Valid}
		for _, l := range verdict.PendingLinks {
			report.Pending = append(report.Pending, l.Name)
		}
		for _, l := range verdict.AppliedLinks {
			report.Applied = append(report.Applied, l.Name)
		}
		for _, e := range verdict.Errors {
			report.Problems = append(report.Problems, e.Message)
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Namespace < reports[j].Namespace
	})
	return reports, nil
}
