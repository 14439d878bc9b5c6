// Package loader reads migration node definitions from YAML files.
//
// The on-disk layout is one namespace per directory and one node per file:
//
//	migrations/
//	  organization/
//	    0001_initial.yaml
//	  contact/
//	    0001_initial.yaml
//	    0002_contact_country.yaml
//
// Node names are the filename without extension; the numeric prefix orders
// files for humans while depends_on entries remain authoritative for the
// planner.
package loader

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/chain"
	"github.com/migral/migral/internal/engine"
	"github.com/migral/migral/internal/merr"
	"github.com/migral/migral/internal/validate"
)

// nodeYAML is the top-level shape of a node definition file.
type nodeYAML struct {
	DependsOn  []string `yaml:"depends_on"`
	Initial    *bool    `yaml:"initial"`
	Operations []opYAML `yaml:"operations"`
	Docs       string   `yaml:"docs"`
}

// opYAML is one operation entry. Kind selects which of the remaining
// keys are meaningful.
type opYAML struct {
	Kind           string       `yaml:"kind"`
	Model          string       `yaml:"model"`    // qualified "ns.model" or bare (file namespace)
	NewName        string       `yaml:"new_name"` // rename_model
	Fields         []*fieldYAML `yaml:"fields"`   // create_model
	Field          *fieldYAML   `yaml:"field"`    // add/alter field and many-to-many ops
	Name           string       `yaml:"name"`     // remove_field
	UniqueTogether [][]string   `yaml:"unique_together"`
	Docs           string       `yaml:"docs"`
}

// fieldYAML is the YAML shape of a field descriptor.
type fieldYAML struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"`
	Nullable    bool         `yaml:"nullable"`
	Default     yaml.Node    `yaml:"default"`
	MaxLength   int          `yaml:"max_length"`
	Unique      bool         `yaml:"unique"`
	Choices     []choiceYAML `yaml:"choices"`
	Target      string       `yaml:"target"` // relation target, "ns.model"
	OnDelete    string       `yaml:"on_delete"`
	RelatedName string       `yaml:"related_name"`
	Docs        string       `yaml:"docs"`
}

// choiceYAML is one enum choice. Codes are often written as bare
// integers in YAML; they are normalized to strings.
type choiceYAML struct {
	Code  yaml.Node `yaml:"code"`
	Label string    `yaml:"label"`
}

// LoadDir loads every node definition under the migrations root. Checksums
// come from the per-namespace chains, so a returned node carries its chained
// checksum. Node order within the result is unspecified; callers plan.
func LoadDir(root string) ([]*engine.Node, error) {
	chains, err := chain.ComputeAll(root)
	if err != nil {
		return nil, err
	}

	var nodes []*engine.Node
	for ns, c := range chains {
		if err := validate.Namespace(ns); err != nil {
			return nil, merr.Wrap(merr.ErrDefinitionInvalid, err, "directory name is not a valid namespace").
				With("namespace", ns)
		}
		for _, link := range c.Links {
			node, err := ParseNode(ns, link)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// ParseNode decodes one chain link's content into an engine node.
func ParseNode(namespace string, link chain.Link) (*engine.Node, error) {
	path := namespace + "/" + link.Filename

	var raw nodeYAML
	if err := yaml.Unmarshal(link.Content, &raw); err != nil {
		return nil, merr.Wrap(merr.ErrDefinitionParse, err, "node definition is not valid YAML").
			WithFile(path)
	}

	node := &engine.Node{
		Namespace: namespace,
		Name:      link.Name,
		Path:      path,
		Checksum:  link.Checksum,
	}

	if raw.Initial != nil {
		node.Initial = *raw.Initial
	} else {
		node.Initial = link.Sequence == "0001"
	}

	for _, dep := range raw.DependsOn {
		ref, err := parseNodeRef(dep, namespace)
		if err != nil {
			return nil, merr.Wrap(merr.ErrDefinitionInvalid, err, "invalid depends_on entry").
				WithFile(path).
				With("depends_on", dep)
		}
		node.DependsOn = append(node.DependsOn, ref)
	}

	if len(raw.Operations) == 0 {
		return nil, merr.New(merr.ErrDefinitionInvalid, "node defines no operations").
			WithFile(path)
	}
	for i, op := range raw.Operations {
		parsed, err := parseOperation(op, namespace)
		if err != nil {
			if e, ok := err.(*merr.Error); ok {
				err = e.WithFile(path).WithOpIndex(i)
			}
			return nil, err
		}
		if err := parsed.Validate(); err != nil {
			if e, ok := err.(*merr.Error); ok {
				err = e.WithFile(path).WithOpIndex(i)
			}
			return nil, err
		}
		node.Operations = append(node.Operations, parsed)
	}

	return node, nil
}

// parseNodeRef parses "namespace.node_name" or a bare node name that
// resolves against the file's own namespace.
func parseNodeRef(s, fileNS string) (engine.NodeRef, error) {
	if s == "" {
		return engine.NodeRef{}, merr.New(merr.ErrDefinitionInvalid, "empty node reference")
	}
	ns, name, found := strings.Cut(s, ".")
	if !found {
		return engine.NodeRef{Namespace: fileNS, Name: s}, nil
	}
	if ns == "" || name == "" {
		return engine.NodeRef{}, merr.New(merr.ErrDefinitionInvalid, "node reference must be 'namespace.node_name'").
			With("reference", s)
	}
	return engine.NodeRef{Namespace: ns, Name: name}, nil
}

// parseModelRef splits a model reference into namespace and model name.
// Bare names resolve against the file's namespace.
func parseModelRef(s, fileNS string) (ns, model string, err error) {
	if s == "" {
		return "", "", merr.New(merr.ErrInvalidOperation, "operation is missing its model")
	}
	ns, model, found := strings.Cut(s, ".")
	if !found {
		return fileNS, s, nil
	}
	if ns == "" || model == "" {
		return "", "", merr.New(merr.ErrInvalidOperation, "model reference must be 'namespace.model' or a bare name").
			With("model", s)
	}
	return ns, model, nil
}

func parseOperation(op opYAML, fileNS string) (ast.Operation, error) {
	ns, model, err := parseModelRef(op.Model, fileNS)
	if err != nil {
		return nil, err
	}

	switch op.Kind {
	case "create_model":
		fields, err := parseFields(op.Fields)
		if err != nil {
			return nil, err
		}
		return &ast.CreateModel{
			ModelOp:        ast.ModelOp{Namespace: ns, Name: model},
			Fields:         fields,
			UniqueTogether: op.UniqueTogether,
			Docs:           op.Docs,
		}, nil

	case "rename_model":
		return &ast.RenameModel{
			Namespace: ns,
			OldName:   model,
			NewName:   op.NewName,
		}, nil

	case "remove_model":
		return &ast.RemoveModel{
			ModelOp: ast.ModelOp{Namespace: ns, Name: model},
		}, nil

	case "add_field":
		field, err := parseRequiredField(op)
		if err != nil {
			return nil, err
		}
		return &ast.AddField{
			ModelRef: ast.ModelRef{Namespace: ns, Model_: model},
			Field:    field,
		}, nil

	case "alter_field":
		field, err := parseRequiredField(op)
		if err != nil {
			return nil, err
		}
		return &ast.AlterField{
			ModelRef: ast.ModelRef{Namespace: ns, Model_: model},
			Field:    field,
		}, nil

	case "remove_field":
		return &ast.RemoveField{
			ModelRef: ast.ModelRef{Namespace: ns, Model_: model},
			Name:     op.Name,
		}, nil

	case "add_many_to_many":
		field, err := parseRequiredField(op)
		if err != nil {
			return nil, err
		}
		return &ast.AddManyToMany{
			ModelRef: ast.ModelRef{Namespace: ns, Model_: model},
			Field:    field,
		}, nil

	case "alter_many_to_many":
		field, err := parseRequiredField(op)
		if err != nil {
			return nil, err
		}
		return &ast.AlterManyToMany{
			ModelRef: ast.ModelRef{Namespace: ns, Model_: model},
			Field:    field,
		}, nil

	case "alter_unique_together":
		return &ast.AlterUniqueTogether{
			ModelRef:       ast.ModelRef{Namespace: ns, Model_: model},
			UniqueTogether: op.UniqueTogether,
		}, nil

	case "":
		return nil, merr.New(merr.ErrInvalidOperation, "operation is missing a kind")

	default:
		err := merr.New(merr.ErrInvalidOperation, "unknown operation kind").
			With("kind", op.Kind)
		if help := merr.SuggestSimilar(op.Kind, knownKinds); help != "" {
			err = err.WithHelp(help)
		}
		return nil, err
	}
}

// knownKinds lists every accepted operation kind for suggestions.
var knownKinds = []string{
	"create_model", "rename_model", "remove_model",
	"add_field", "alter_field", "remove_field",
	"add_many_to_many", "alter_many_to_many",
	"alter_unique_together",
}

func parseRequiredField(op opYAML) (*ast.FieldDef, error) {
	if op.Field == nil {
		return nil, merr.New(merr.ErrInvalidOperation, "operation is missing its field descriptor").
			With("kind", op.Kind)
	}
	return parseField(op.Field)
}

func parseFields(raw []*fieldYAML) ([]*ast.FieldDef, error) {
	fields := make([]*ast.FieldDef, 0, len(raw))
	for _, f := range raw {
		field, err := parseField(f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func parseField(f *fieldYAML) (*ast.FieldDef, error) {
	field := &ast.FieldDef{
		Name:        f.Name,
		Type:        ast.FieldType(f.Type),
		Nullable:    f.Nullable,
		MaxLength:   f.MaxLength,
		Unique:      f.Unique,
		Ref:         f.Target,
		OnDelete:    ast.DeletePolicy(f.OnDelete),
		RelatedName: f.RelatedName,
		Docs:        f.Docs,
	}

	for _, c := range f.Choices {
		code, err := scalarString(&c.Code)
		if err != nil {
			return nil, merr.Wrap(merr.ErrInvalidField, err, "enum choice code must be a scalar").
				WithField(f.Name)
		}
		field.Choices = append(field.Choices, ast.Choice{Code: code, Label: c.Label})
	}

	if !f.Default.IsZero() {
		field.DefaultSet = true
		if field.Type == ast.TypeEnum {
			// Choice codes compare as strings even when written as bare ints.
			code, err := scalarString(&f.Default)
			if err != nil {
				return nil, merr.Wrap(merr.ErrInvalidField, err, "enum default must be a scalar").
					WithField(f.Name)
			}
			field.Default = code
		} else {
			var v any
			if err := f.Default.Decode(&v); err != nil {
				return nil, merr.Wrap(merr.ErrInvalidField, err, "invalid default value").
					WithField(f.Name)
			}
			field.Default = v
		}
	}

	return field, nil
}

// scalarString renders a YAML scalar as its literal string form.
func scalarString(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected scalar, got %s", kindName(n.Kind))
	}
	return n.Value, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
