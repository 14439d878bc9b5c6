package ast

import (
	"slices"

	"github.com/migral/migral/internal/merr"
	"github.com/migral/migral/internal/validate"
)

// -----------------------------------------------------------------------------
// ModelDef - complete model definition
// -----------------------------------------------------------------------------

// ModelDef represents a complete model with its ordered fields, unique-together
// constraints, and registered reverse relation names. This is the unit stored
// in a schema snapshot after replaying migration operations.
type ModelDef struct {
	Namespace string      // Application boundary (e.g., "contact", "event")
	Name      string      // Model name (snake_case)
	Fields    []*FieldDef // Field definitions in declaration order

	// UniqueTogether holds multi-field uniqueness constraints; each entry is
	// an ordered list of field names.
	UniqueTogether [][]string

	// ReverseNames maps a reverse relation name to the qualified source field
	// ("namespace.model.field") that registered it. Used for collision
	// detection across relations pointing at this model.
	ReverseNames map[string]string

	Docs string // Optional description
}

// QualifiedName returns the dot-separated qualified name (namespace.name).
func (m *ModelDef) QualifiedName() string {
	return Qualify(m.Namespace, m.Name)
}

// Qualify returns the dot-separated qualified name for a namespace and model.
func Qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}

// HasField reports whether the model has a field with the given name.
func (m *ModelDef) HasField(name string) bool {
	return m.GetField(name) != nil
}

// GetField returns the field with the given name, or nil if absent.
func (m *ModelDef) GetField(name string) *FieldDef {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldNames returns the model's field names in declaration order.
func (m *ModelDef) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Relations returns the model's relation-typed fields in declaration order.
func (m *ModelDef) Relations() []*FieldDef {
	var rels []*FieldDef
	for _, f := range m.Fields {
		if f.IsRelation() {
			rels = append(rels, f)
		}
	}
	return rels
}

// Clone returns a deep copy of the model definition.
func (m *ModelDef) Clone() *ModelDef {
	cp := &ModelDef{
		Namespace: m.Namespace,
		Name:      m.Name,
		Docs:      m.Docs,
		Fields:    make([]*FieldDef, len(m.Fields)),
	}
	for i, f := range m.Fields {
		cp.Fields[i] = f.Clone()
	}
	if m.UniqueTogether != nil {
		cp.UniqueTogether = make([][]string, len(m.UniqueTogether))
		for i, set := range m.UniqueTogether {
			cp.UniqueTogether[i] = slices.Clone(set)
		}
	}
	if m.ReverseNames != nil {
		cp.ReverseNames = make(map[string]string, len(m.ReverseNames))
		for k, v := range m.ReverseNames {
			cp.ReverseNames[k] = v
		}
	}
	return cp
}

// Validate checks the model definition: names, fields, and that every
// unique-together entry references declared fields.
func (m *ModelDef) Validate() error {
	if m.Name == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required")
	}
	if err := validate.ModelName(m.Name); err != nil {
		return err
	}
	if m.Namespace != "" {
		if err := validate.Namespace(m.Namespace); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if err := f.Validate(); err != nil {
			return merr.Wrap(merr.ErrInvalidOperation, err, "invalid field").
				WithModel(m.Namespace, m.Name).
				WithField(f.Name)
		}
		if seen[f.Name] {
			return merr.New(merr.ErrDuplicateField, "field declared twice").
				WithModel(m.Namespace, m.Name).
				WithField(f.Name)
		}
		seen[f.Name] = true
	}

	for _, set := range m.UniqueTogether {
		if len(set) == 0 {
			return merr.New(merr.ErrInvalidOperation, "unique-together entry cannot be empty").
				WithModel(m.Namespace, m.Name)
		}
		for _, name := range set {
			if !seen[name] {
				return merr.New(merr.ErrUnknownField, "unique-together references undeclared field").
					WithModel(m.Namespace, m.Name).
					WithField(name)
			}
		}
	}

	return nil
}
