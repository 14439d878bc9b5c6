package state

import (
	"slices"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/merr"
)

// modelNotFoundErr creates a standard "model does not exist" error with fuzzy suggestions.
func modelNotFoundErr(schema *Schema, ns, name string) *merr.Error {
	err := merr.New(merr.ErrUnknownModel, "model does not exist").
		WithModel(ns, name)
	names := make([]string, 0, len(schema.Models))
	for k := range schema.Models {
		names = append(names, k)
	}
	if suggestion := merr.SuggestSimilar(ast.Qualify(ns, name), names); suggestion != "" {
		err.WithHelp(suggestion)
	}
	return err
}

// fieldNotFoundErr creates a standard "field does not exist" error with fuzzy suggestions.
func fieldNotFoundErr(model *ast.ModelDef, ns, modelName, fieldName string) *merr.Error {
	err := merr.New(merr.ErrUnknownField, "field does not exist").
		WithModel(ns, modelName).
		WithField(fieldName)
	if suggestion := merr.SuggestSimilar(fieldName, model.FieldNames()); suggestion != "" {
		err.WithHelp(suggestion)
	}
	return err
}

// lookupModel finds a model by namespace and name, returning a not-found error if missing.
func lookupModel(schema *Schema, ns, name string) (*ast.ModelDef, error) {
	model, exists := schema.Models[ast.Qualify(ns, name)]
	if !exists {
		return nil, modelNotFoundErr(schema, ns, name)
	}
	return model, nil
}

// ReplayOperations applies a sequence of operations to build the resulting schema state.
// This is used for computing what the schema looks like at a specific point in history.
func ReplayOperations(ops []ast.Operation) (*Schema, error) {
	schema := NewSchema()

	for _, op := range ops {
		if err := Apply(schema, op); err != nil {
			return nil, err
		}
	}

	return schema, nil
}

// Apply applies a single operation to the schema state. The schema is mutated
// in place; on error it is left as-is up to the failing operation.
func Apply(schema *Schema, op ast.Operation) error {
	switch o := op.(type) {
	case *ast.CreateModel:
		return applyCreateModel(schema, o)
	case *ast.RenameModel:
		return applyRenameModel(schema, o)
	case *ast.RemoveModel:
		return applyRemoveModel(schema, o)
	case *ast.AddField:
		return applyAddField(schema, o.Namespace, o.Model_, o.Field)
	case *ast.AlterField:
		return applyAlterField(schema, o.Namespace, o.Model_, o.Field)
	case *ast.RemoveField:
		return applyRemoveField(schema, o)
	case *ast.AddManyToMany:
		return applyAddField(schema, o.Namespace, o.Model_, o.Field)
	case *ast.AlterManyToMany:
		return applyAlterField(schema, o.Namespace, o.Model_, o.Field)
	case *ast.AlterUniqueTogether:
		return applyAlterUniqueTogether(schema, o)
	default:
		return merr.New(merr.ErrInvalidOperation, "unknown operation kind").
			With("kind", op.Kind().String())
	}
}

// registerReverse registers a relation field's reverse name on its target model.
// The target must already exist in the schema; resolution happens at apply
// time against the accumulated state, never against a global registry.
func registerReverse(schema *Schema, owner *ast.ModelDef, field *ast.FieldDef) error {
	target, ok := schema.Models[field.Ref]
	if !ok {
		return merr.New(merr.ErrUnresolvedReference, "relation target does not exist").
			WithModel(owner.Namespace, owner.Name).
			WithField(field.Name).
			With("target", field.Ref)
	}

	if field.RelatedName == "" {
		return nil
	}

	source := owner.QualifiedName() + "." + field.Name
	if prev, taken := target.ReverseNames[field.RelatedName]; taken && prev != source {
		return merr.New(merr.ErrReverseNameCollision, "reverse name already registered on target").
			WithModel(owner.Namespace, owner.Name).
			WithField(field.Name).
			With("reverse_name", field.RelatedName).
			With("taken_by", prev)
	}

	if target.ReverseNames == nil {
		target.ReverseNames = make(map[string]string)
	}
	target.ReverseNames[field.RelatedName] = source
	return nil
}

// unregisterReverse removes a relation field's reverse-name registration, if any.
func unregisterReverse(schema *Schema, owner *ast.ModelDef, field *ast.FieldDef) {
	if !field.IsRelation() || field.RelatedName == "" {
		return
	}
	target, ok := schema.Models[field.Ref]
	if !ok {
		return
	}
	source := owner.QualifiedName() + "." + field.Name
	if target.ReverseNames[field.RelatedName] == source {
		delete(target.ReverseNames, field.RelatedName)
	}
}

// applyCreateModel adds a new model to the schema.
func applyCreateModel(schema *Schema, op *ast.CreateModel) error {
	qualifiedName := op.Model()

	if _, exists := schema.Models[qualifiedName]; exists {
		return merr.New(merr.ErrDuplicateModel, "model already exists").
			WithModel(op.Namespace, op.Name)
	}

	model := &ast.ModelDef{
		Namespace: op.Namespace,
		Name:      op.Name,
		Fields:    make([]*ast.FieldDef, 0, len(op.Fields)),
		Docs:      op.Docs,
	}

	if op.UniqueTogether != nil {
		model.UniqueTogether = make([][]string, len(op.UniqueTogether))
		for i, set := range op.UniqueTogether {
			model.UniqueTogether[i] = slices.Clone(set)
		}
	}

	// Insert before wiring relations so self-references resolve.
	schema.Models[qualifiedName] = model

	for _, f := range op.Fields {
		if model.HasField(f.Name) {
			schema.RemoveModel(qualifiedName)
			return merr.New(merr.ErrDuplicateField, "field already exists").
				WithModel(op.Namespace, op.Name).
				WithField(f.Name)
		}
		fieldCopy := f.Clone()
		model.Fields = append(model.Fields, fieldCopy)
		if fieldCopy.IsRelation() {
			if err := registerReverse(schema, model, fieldCopy); err != nil {
				schema.RemoveModel(qualifiedName)
				return err
			}
		}
	}

	return nil
}

// applyRenameModel renames a model, rewriting inbound references and the
// sources of reverse names the model registered on its targets.
func applyRenameModel(schema *Schema, op *ast.RenameModel) error {
	oldQualified := ast.Qualify(op.Namespace, op.OldName)
	newQualified := ast.Qualify(op.Namespace, op.NewName)

	model, exists := schema.Models[oldQualified]
	if !exists {
		return modelNotFoundErr(schema, op.Namespace, op.OldName)
	}

	if _, exists := schema.Models[newQualified]; exists {
		return merr.New(merr.ErrDuplicateModel, "target model name already exists").
			WithModel(op.Namespace, op.NewName)
	}

	model.Name = op.NewName
	delete(schema.Models, oldQualified)
	schema.Models[newQualified] = model

	// Rewrite inbound relation references to the new qualified name.
	for _, other := range schema.Models {
		for _, f := range other.Relations() {
			if f.Ref == oldQualified {
				f.Ref = newQualified
			}
		}
	}

	// Rewrite reverse-name sources registered by the renamed model.
	prefix := oldQualified + "."
	for _, other := range schema.Models {
		for name, source := range other.ReverseNames {
			if len(source) > len(prefix) && source[:len(prefix)] == prefix {
				other.ReverseNames[name] = newQualified + "." + source[len(prefix):]
			}
		}
	}

	return nil
}

// applyRemoveModel removes a model from the schema, unregistering any reverse
// names its relations hold on other models.
func applyRemoveModel(schema *Schema, op *ast.RemoveModel) error {
	model, err := lookupModel(schema, op.Namespace, op.Name)
	if err != nil {
		return err
	}

	for _, f := range model.Relations() {
		unregisterReverse(schema, model, f)
	}

	schema.RemoveModel(op.Model())
	return nil
}

// applyAddField adds a field (plain or relation) to an existing model.
func applyAddField(schema *Schema, ns, modelName string, field *ast.FieldDef) error {
	model, err := lookupModel(schema, ns, modelName)
	if err != nil {
		return err
	}

	if model.HasField(field.Name) {
		return merr.New(merr.ErrDuplicateField, "field already exists").
			WithModel(ns, modelName).
			WithField(field.Name)
	}

	fieldCopy := field.Clone()
	if fieldCopy.IsRelation() {
		if err := registerReverse(schema, model, fieldCopy); err != nil {
			return err
		}
	}
	model.Fields = append(model.Fields, fieldCopy)

	return nil
}

// applyAlterField replaces a field's descriptor. Full replacement semantics:
// no part of the old descriptor survives, and relation reverse names are
// re-registered against the (possibly different) target.
func applyAlterField(schema *Schema, ns, modelName string, field *ast.FieldDef) error {
	model, err := lookupModel(schema, ns, modelName)
	if err != nil {
		return err
	}

	old := model.GetField(field.Name)
	if old == nil {
		return fieldNotFoundErr(model, ns, modelName, field.Name)
	}

	fieldCopy := field.Clone()
	if fieldCopy.IsRelation() {
		// Release the old registration first so altering only the target or
		// choice set of the same relation does not collide with itself.
		unregisterReverse(schema, model, old)
		if err := registerReverse(schema, model, fieldCopy); err != nil {
			// Restore the old registration; the schema must be unchanged on error.
			_ = registerReverse(schema, model, old)
			return err
		}
	} else {
		unregisterReverse(schema, model, old)
	}

	*old = *fieldCopy
	return nil
}

// applyRemoveField removes a field and prunes unique-together entries that
// reference it.
func applyRemoveField(schema *Schema, op *ast.RemoveField) error {
	model, err := lookupModel(schema, op.Namespace, op.Model_)
	if err != nil {
		return err
	}

	found := false
	newFields := make([]*ast.FieldDef, 0, len(model.Fields))
	for _, f := range model.Fields {
		if f.Name == op.Name {
			found = true
			unregisterReverse(schema, model, f)
			continue
		}
		newFields = append(newFields, f)
	}

	if !found {
		return fieldNotFoundErr(model, op.Namespace, op.Model_, op.Name)
	}

	model.Fields = newFields

	// Prune unique-together entries naming the removed field.
	if len(model.UniqueTogether) > 0 {
		kept := make([][]string, 0, len(model.UniqueTogether))
		for _, set := range model.UniqueTogether {
			if !slices.Contains(set, op.Name) {
				kept = append(kept, set)
			}
		}
		model.UniqueTogether = kept
	}

	return nil
}

// applyAlterUniqueTogether replaces a model's unique-together constraint set.
func applyAlterUniqueTogether(schema *Schema, op *ast.AlterUniqueTogether) error {
	model, err := lookupModel(schema, op.Namespace, op.Model_)
	if err != nil {
		return err
	}

	for _, set := range op.UniqueTogether {
		for _, name := range set {
			if !model.HasField(name) {
				return fieldNotFoundErr(model, op.Namespace, op.Model_, name)
			}
		}
	}

	if op.UniqueTogether == nil {
		model.UniqueTogether = nil
		return nil
	}

	replacement := make([][]string, len(op.UniqueTogether))
	for i, set := range op.UniqueTogether {
		replacement[i] = slices.Clone(set)
	}
	model.UniqueTogether = replacement
	return nil
}
