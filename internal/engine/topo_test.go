package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/migral/migral/internal/merr"
)

// -----------------------------------------------------------------------------
// Test Helpers
// -----------------------------------------------------------------------------

// newNode creates a test node with the given namespace, name, and dependencies.
func newNode(ns, name string, deps ...NodeRef) *Node {
	return &Node{Namespace: ns, Name: name, DependsOn: deps}
}

// ref builds a NodeRef.
func ref(ns, name string) NodeRef {
	return NodeRef{Namespace: ns, Name: name}
}

// planIDs extracts the ordered IDs from a plan.
func planIDs(p *Plan) []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID()
	}
	return ids
}

// indexOf returns the position of id in ids, or -1.
func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// -----------------------------------------------------------------------------
// PlanNodes Tests
// -----------------------------------------------------------------------------

func TestPlanNodes_Empty(t *testing.T) {
	plan, err := PlanNodes(nil)
	if err != nil {
		t.Fatalf("PlanNodes() error = %v", err)
	}
	if !plan.IsEmpty() {
		t.Error("expected empty plan")
	}
}

func TestPlanNodes_LinearChain(t *testing.T) {
	nodes := []*Node{
		newNode("contact", "0003_communication", ref("contact", "0002_contact_country")),
		newNode("contact", "0002_contact_country", ref("contact", "0001_initial")),
		newNode("contact", "0001_initial"),
	}

	plan, err := PlanNodes(nodes)
	if err != nil {
		t.Fatalf("PlanNodes() error = %v", err)
	}

	want := []string{
		"contact.0001_initial",
		"contact.0002_contact_country",
		"contact.0003_communication",
	}
	got := planIDs(plan)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("plan = %v, want %v", got, want)
		}
	}
}

func TestPlanNodes_CrossNamespace(t *testing.T) {
	// contact's initial node depends on organization's initial node.
	nodes := []*Node{
		newNode("contact", "0001_initial", ref("organization", "0001_initial")),
		newNode("organization", "0001_initial"),
	}

	plan, err := PlanNodes(nodes)
	if err != nil {
		t.Fatalf("PlanNodes() error = %v", err)
	}

	got := planIDs(plan)
	if got[0] != "organization.0001_initial" || got[1] != "contact.0001_initial" {
		t.Errorf("plan = %v", got)
	}
}

func TestPlanNodes_DiamondDeterministic(t *testing.T) {
	// A with no deps; B and C depend on A; D depends on B and C.
	a := newNode("app", "0001_a")
	b := newNode("app", "0002_b", ref("app", "0001_a"))
	c := newNode("app", "0003_c", ref("app", "0001_a"))
	d := newNode("app", "0004_d", ref("app", "0002_b"), ref("app", "0003_c"))

	nodes := []*Node{a, b, c, d}
	rng := rand.New(rand.NewSource(7))

	var first []string
	for trial := 0; trial < 25; trial++ {
		shuffled := make([]*Node, len(nodes))
		copy(shuffled, nodes)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		plan, err := PlanNodes(shuffled)
		if err != nil {
			t.Fatalf("PlanNodes() error = %v", err)
		}
		got := planIDs(plan)

		// Constraint: B and C come after A, D comes last.
		if indexOf(got, "app.0001_a") != 0 || indexOf(got, "app.0004_d") != 3 {
			t.Fatalf("constraint violated: %v", got)
		}
		// Tie-break makes the full order reproducible, not just valid.
		if first == nil {
			first = got
			continue
		}
		for i := range first {
			if got[i] != first[i] {
				t.Fatalf("plan not deterministic across input orders:\n%v\nvs\n%v", got, first)
			}
		}
	}

	// With (namespace, name) ascending tie-break, B plans before C.
	if indexOf(first, "app.0002_b") != 1 || indexOf(first, "app.0003_c") != 2 {
		t.Errorf("tie-break order = %v, want b before c", first)
	}
}

func TestPlanNodes_DependenciesBeforeDependents(t *testing.T) {
	// A larger randomized acyclic set: every node depends on a few earlier ones.
	rng := rand.New(rand.NewSource(42))
	var nodes []*Node
	names := []string{
		"0001_a", "0002_b", "0003_c", "0004_d", "0005_e",
		"0006_f", "0007_g", "0008_h", "0009_i", "0010_j",
	}
	for i, name := range names {
		var deps []NodeRef
		for j := 0; j < i; j++ {
			if rng.Intn(3) == 0 {
				deps = append(deps, ref("app", names[j]))
			}
		}
		nodes = append(nodes, newNode("app", name, deps...))
	}

	plan, err := PlanNodes(nodes)
	if err != nil {
		t.Fatalf("PlanNodes() error = %v", err)
	}
	got := planIDs(plan)

	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			if indexOf(got, dep.String()) > indexOf(got, n.ID()) {
				t.Fatalf("dependency %s planned after dependent %s:\n%v", dep, n.ID(), got)
			}
		}
	}
}

func TestPlanNodes_Cycle(t *testing.T) {
	nodes := []*Node{
		newNode("event", "0001_a", ref("event", "0002_b")),
		newNode("event", "0002_b", ref("event", "0001_a")),
	}

	_, err := PlanNodes(nodes)
	if !errors.Is(err, merr.New(merr.ErrCyclicDependency, "")) {
		t.Errorf("error = %v, want ErrCyclicDependency", err)
	}
}

func TestPlanNodes_SelfCycle(t *testing.T) {
	nodes := []*Node{
		newNode("event", "0001_a", ref("event", "0001_a")),
	}
	_, err := PlanNodes(nodes)
	if !errors.Is(err, merr.New(merr.ErrCyclicDependency, "")) {
		t.Errorf("error = %v, want ErrCyclicDependency", err)
	}
}

func TestPlanNodes_MissingDependency(t *testing.T) {
	nodes := []*Node{
		newNode("contact", "0001_initial", ref("organization", "0001_initial")),
	}

	_, err := PlanNodes(nodes)
	if !errors.Is(err, merr.New(merr.ErrMissingDep, "")) {
		t.Fatalf("error = %v, want ErrMissingDep", err)
	}

	var e *merr.Error
	if errors.As(err, &e) {
		if e.GetContext()["dependency"] != "organization.0001_initial" {
			t.Errorf("dependency context = %v", e.GetContext()["dependency"])
		}
	}
}

func TestPlanNodes_DuplicateNode(t *testing.T) {
	nodes := []*Node{
		newNode("users", "0001_initial"),
		newNode("users", "0001_initial"),
	}
	_, err := PlanNodes(nodes)
	if !errors.Is(err, merr.New(merr.ErrNodeConflict, "")) {
		t.Errorf("error = %v, want ErrNodeConflict", err)
	}
}
