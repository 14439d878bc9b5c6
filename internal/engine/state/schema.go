// Package state provides schema state management for the engine.
// It contains the Schema type and the replay logic that applies migration
// operations to compute the schema snapshot at a given point in history.
package state

import (
	"sort"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/merr"
)

// Schema represents a complete application schema containing multiple models.
// It is the single mutable resource a migration run accumulates into; callers
// wanting all-or-nothing semantics apply onto a Clone and discard it on error.
type Schema struct {
	Models map[string]*ast.ModelDef // key: "namespace.model"
}

// NewSchema creates a new empty Schema.
func NewSchema() *Schema {
	return &Schema{
		Models: make(map[string]*ast.ModelDef),
	}
}

// SchemaFromModels creates a Schema from a slice of model definitions.
func SchemaFromModels(models []*ast.ModelDef) (*Schema, error) {
	s := NewSchema()
	for _, m := range models {
		if err := s.AddModel(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddModel adds a single model definition to the schema.
// Returns an error if the model already exists.
func (s *Schema) AddModel(m *ast.ModelDef) error {
	if m == nil {
		return merr.New(merr.ErrInvalidOperation, "model definition cannot be nil")
	}

	key := m.QualifiedName()
	if _, exists := s.Models[key]; exists {
		return merr.New(merr.ErrDuplicateModel, "model already exists in schema").
			WithModel(m.Namespace, m.Name)
	}

	s.Models[key] = m
	return nil
}

// GetModel retrieves a model by its qualified name (namespace.model).
func (s *Schema) GetModel(qualifiedName string) (*ast.ModelDef, bool) {
	m, ok := s.Models[qualifiedName]
	return m, ok
}

// GetModelByParts retrieves a model by namespace and model name.
func (s *Schema) GetModelByParts(namespace, name string) (*ast.ModelDef, bool) {
	m, ok := s.Models[ast.Qualify(namespace, name)]
	return m, ok
}

// RemoveModel removes a model from the schema.
func (s *Schema) RemoveModel(qualifiedName string) {
	delete(s.Models, qualifiedName)
}

// ModelNames returns a sorted list of all qualified model names.
func (s *Schema) ModelNames() []string {
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelList returns all models as a slice sorted by qualified name.
func (s *Schema) ModelList() []*ast.ModelDef {
	models := make([]*ast.ModelDef, 0, len(s.Models))
	for _, m := range s.Models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].QualifiedName() < models[j].QualifiedName()
	})
	return models
}

// Namespaces returns the sorted set of namespaces present in the schema.
func (s *Schema) Namespaces() []string {
	seen := make(map[string]bool)
	for _, m := range s.Models {
		seen[m.Namespace] = true
	}
	names := make([]string, 0, len(seen))
	for ns := range seen {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the schema. Replaying onto a clone gives
// callers the copy-on-call atomicity convention: discard the clone if the
// replay fails.
func (s *Schema) Clone() *Schema {
	cp := NewSchema()
	for key, m := range s.Models {
		cp.Models[key] = m.Clone()
	}
	return cp
}

// Validate checks cross-model invariants of the accumulated schema:
// every relation target resolves, and reverse relation names are unique
// within the target's namespace.
func (s *Schema) Validate() error {
	for _, m := range s.ModelList() {
		for _, f := range m.Relations() {
			target, ok := s.Models[f.Ref]
			if !ok {
				return merr.New(merr.ErrUnresolvedReference, "relation target does not exist").
					WithModel(m.Namespace, m.Name).
					WithField(f.Name).
					With("target", f.Ref)
			}
			if f.RelatedName == "" {
				continue
			}
			source := m.QualifiedName() + "." + f.Name
			if owner, taken := target.ReverseNames[f.RelatedName]; taken && owner != source {
				return merr.New(merr.ErrReverseNameCollision, "reverse name already registered").
					WithModel(m.Namespace, m.Name).
					WithField(f.Name).
					With("reverse_name", f.RelatedName).
					With("taken_by", owner)
			}
		}
	}
	return nil
}
