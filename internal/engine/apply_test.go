package engine

import (
	"errors"
	"testing"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/merr"
)

func organizationInitial() *Node {
	return &Node{
		Namespace: "organization",
		Name:      "0001_initial",
		Initial:   true,
		Operations: []ast.Operation{
			&ast.CreateModel{
				ModelOp: ast.ModelOp{Namespace: "organization", Name: "organization"},
				Fields: []*ast.FieldDef{
					{Name: "name", Type: ast.TypeChar, MaxLength: 256},
				},
			},
		},
	}
}

func contactInitial() *Node {
	return &Node{
		Namespace: "contact",
		Name:      "0001_initial",
		Initial:   true,
		DependsOn: []NodeRef{{Namespace: "organization", Name: "0001_initial"}},
		Operations: []ast.Operation{
			&ast.CreateModel{
				ModelOp: ast.ModelOp{Namespace: "contact", Name: "contact"},
				Fields: []*ast.FieldDef{
					{Name: "name", Type: ast.TypeChar, MaxLength: 256},
					{
						Name:        "organization",
						Type:        ast.TypeForeignKey,
						Ref:         "organization.organization",
						OnDelete:    ast.DeleteCascade,
						RelatedName: "contacts",
					},
				},
			},
		},
	}
}

// -----------------------------------------------------------------------------
// ApplyAll Tests
// -----------------------------------------------------------------------------

func TestApplyAll(t *testing.T) {
	schema := state.NewSchema()
	if err := ApplyAll([]*Node{organizationInitial(), contactInitial()}, schema); err != nil {
		t.Fatalf("ApplyAll() error = %v", err)
	}

	org, ok := schema.GetModel("organization.organization")
	if !ok {
		t.Fatal("organization.organization not in schema")
	}
	if org.ReverseNames["contacts"] != "contact.contact.organization" {
		t.Errorf("reverse name source = %q", org.ReverseNames["contacts"])
	}
}

func TestApplyAll_AnnotatesFailure(t *testing.T) {
	bad := contactInitial()
	// Second operation targets a model that doesn't exist.
	bad.Operations = append(bad.Operations, &ast.AddField{
		ModelRef: ast.ModelRef{Namespace: "contact", Model_: "nonexistent"},
		Field:    &ast.FieldDef{Name: "note", Type: ast.TypeText},
	})

	schema := state.NewSchema()
	err := ApplyAll([]*Node{organizationInitial(), bad}, schema)
	if !errors.Is(err, merr.New(merr.ErrUnknownModel, "")) {
		t.Fatalf("error = %v, want ErrUnknownModel", err)
	}

	var e *merr.Error
	if !errors.As(err, &e) {
		t.Fatal("expected *merr.Error")
	}
	ctx := e.GetContext()
	if ctx["node"] != "contact.0001_initial" {
		t.Errorf("node context = %v", ctx["node"])
	}
	if ctx["operation"] != 1 {
		t.Errorf("operation context = %v", ctx["operation"])
	}
}

// -----------------------------------------------------------------------------
// Replay Tests
// -----------------------------------------------------------------------------

func TestReplay(t *testing.T) {
	// Input order is reversed; planning must fix it before replay.
	plan, schema, err := Replay([]*Node{contactInitial(), organizationInitial()})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if got := planIDs(plan); got[0] != "organization.0001_initial" {
		t.Errorf("plan = %v", got)
	}
	if _, ok := schema.GetModel("contact.contact"); !ok {
		t.Error("contact.contact not in schema")
	}
}

func TestReplay_FailedOperationLeavesNoResult(t *testing.T) {
	// Planning succeeds but replay hits an unresolved reference.
	orphan := contactInitial()
	orphan.DependsOn = nil

	_, schema, err := Replay([]*Node{orphan})
	if !errors.Is(err, merr.New(merr.ErrUnresolvedReference, "")) {
		t.Errorf("error = %v, want ErrUnresolvedReference", err)
	}
	if schema != nil {
		t.Error("schema should be nil on failure")
	}
}
