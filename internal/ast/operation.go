package ast

import (
	"github.com/migral/migral/internal/merr"
	"github.com/migral/migral/internal/validate"
)

// Operation represents a single atomic change to the application schema.
// All schema changes are expressed as Operations before being replayed
// against a schema snapshot.
type Operation interface {
	// Kind returns the operation kind (OpCreateModel, OpAddField, etc.)
	Kind() OpKind

	// Model returns the qualified target model name (namespace.model).
	Model() string

	// Validate checks that the operation is well-formed.
	// Returns an error if the operation has invalid or missing fields.
	Validate() error
}

// -----------------------------------------------------------------------------
// Embedded types for DRY operation definitions
// -----------------------------------------------------------------------------

// ModelOp provides common Namespace+Name fields for model-level operations.
// Operations that create or remove models embed this type.
type ModelOp struct {
	Namespace string
	Name      string
}

// Model returns the qualified model name (namespace.model).
func (m ModelOp) Model() string {
	return Qualify(m.Namespace, m.Name)
}

// ModelRef provides common Namespace+Model_ fields for field-level operations.
// Operations that target fields within a model embed this type.
type ModelRef struct {
	Namespace string
	Model_    string
}

// Model returns the qualified model name (namespace.model).
func (m ModelRef) Model() string {
	return Qualify(m.Namespace, m.Model_)
}

// -----------------------------------------------------------------------------
// CreateModel - creates a new model
// -----------------------------------------------------------------------------

// CreateModel represents creating a new model with its initial field set
// and unique-together constraints, inserted into the schema in one step.
type CreateModel struct {
	ModelOp
	Fields         []*FieldDef
	UniqueTogether [][]string
	Docs           string
}

func (op *CreateModel) Kind() OpKind { return OpCreateModel }

func (op *CreateModel) Validate() error {
	if op.Name == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required")
	}
	if len(op.Fields) == 0 {
		return merr.New(merr.ErrInvalidOperation, "model must have at least one field").
			WithModel(op.Namespace, op.Name)
	}
	// Structural validation (fields, duplicates, unique-together) is shared
	// with ModelDef.
	def := &ModelDef{
		Namespace:      op.Namespace,
		Name:           op.Name,
		Fields:         op.Fields,
		UniqueTogether: op.UniqueTogether,
	}
	return def.Validate()
}

// -----------------------------------------------------------------------------
// RenameModel - renames an existing model
// -----------------------------------------------------------------------------

// RenameModel represents renaming an existing model within its namespace.
type RenameModel struct {
	Namespace string
	OldName   string
	NewName   string
}

func (op *RenameModel) Kind() OpKind { return OpRenameModel }

func (op *RenameModel) Model() string {
	return Qualify(op.Namespace, op.OldName)
}

func (op *RenameModel) Validate() error {
	if op.OldName == "" {
		return merr.New(merr.ErrInvalidOperation, "old model name is required for rename")
	}
	if op.NewName == "" {
		return merr.New(merr.ErrInvalidOperation, "new model name is required for rename")
	}
	if op.OldName == op.NewName {
		return merr.New(merr.ErrInvalidOperation, "old and new model names must be different").
			WithModel(op.Namespace, op.OldName)
	}
	return validate.ModelName(op.NewName)
}

// -----------------------------------------------------------------------------
// RemoveModel - removes an existing model
// -----------------------------------------------------------------------------

// RemoveModel represents removing an existing model.
type RemoveModel struct {
	ModelOp
}

func (op *RemoveModel) Kind() OpKind { return OpRemoveModel }

func (op *RemoveModel) Validate() error {
	if op.Name == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required for remove")
	}
	return nil
}

// -----------------------------------------------------------------------------
// AddField - adds a field to an existing model
// -----------------------------------------------------------------------------

// AddField represents adding a new field to an existing model.
type AddField struct {
	ModelRef
	Field *FieldDef
}

func (op *AddField) Kind() OpKind { return OpAddField }

func (op *AddField) Validate() error {
	if op.Model_ == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required for add field")
	}
	if op.Field == nil {
		return merr.New(merr.ErrInvalidOperation, "field descriptor is required").
			WithModel(op.Namespace, op.Model_)
	}
	if op.Field.Type == TypeManyToMany {
		return merr.New(merr.ErrInvalidOperation,
			"many_to_many fields must be added with AddManyToMany").
			WithModel(op.Namespace, op.Model_).
			WithField(op.Field.Name)
	}
	if err := op.Field.Validate(); err != nil {
		return merr.Wrap(merr.ErrInvalidOperation, err, "invalid field").
			WithModel(op.Namespace, op.Model_).
			WithField(op.Field.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AlterField - replaces a field's descriptor
// -----------------------------------------------------------------------------

// AlterField represents replacing a field's descriptor. The replacement is
// total: no part of the old descriptor survives. This matches the dominant
// pattern in application histories of rewriting a field's whole choice set.
type AlterField struct {
	ModelRef
	Field *FieldDef // Field.Name selects the field to replace
}

func (op *AlterField) Kind() OpKind { return OpAlterField }

func (op *AlterField) Validate() error {
	if op.Model_ == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required for alter field")
	}
	if op.Field == nil {
		return merr.New(merr.ErrInvalidOperation, "field descriptor is required").
			WithModel(op.Namespace, op.Model_)
	}
	if op.Field.Type == TypeManyToMany {
		return merr.New(merr.ErrInvalidOperation,
			"many_to_many fields must be altered with AlterManyToMany").
			WithModel(op.Namespace, op.Model_).
			WithField(op.Field.Name)
	}
	if err := op.Field.Validate(); err != nil {
		return merr.Wrap(merr.ErrInvalidOperation, err, "invalid field").
			WithModel(op.Namespace, op.Model_).
			WithField(op.Field.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// RemoveField - removes a field from an existing model
// -----------------------------------------------------------------------------

// RemoveField represents removing a field from an existing model.
// Unique-together entries referencing the field are pruned with it.
type RemoveField struct {
	ModelRef
	Name string
}

func (op *RemoveField) Kind() OpKind { return OpRemoveField }

func (op *RemoveField) Validate() error {
	if op.Model_ == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required for remove field")
	}
	if op.Name == "" {
		return merr.New(merr.ErrInvalidOperation, "field name is required for remove field").
			WithModel(op.Namespace, op.Model_)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AddManyToMany - adds a many-to-many relation field
// -----------------------------------------------------------------------------

// AddManyToMany represents adding a many-to-many relation field, including
// reciprocal reverse-name registration on the target model.
type AddManyToMany struct {
	ModelRef
	Field *FieldDef
}

func (op *AddManyToMany) Kind() OpKind { return OpAddManyToMany }

func (op *AddManyToMany) Validate() error {
	return validateM2M(op.Namespace, op.Model_, op.Field)
}

// -----------------------------------------------------------------------------
// AlterManyToMany - replaces a many-to-many relation's descriptor
// -----------------------------------------------------------------------------

// AlterManyToMany represents replacing a many-to-many relation's descriptor,
// re-registering its reverse name on the (possibly different) target model.
type AlterManyToMany struct {
	ModelRef
	Field *FieldDef // Field.Name selects the relation to replace
}

func (op *AlterManyToMany) Kind() OpKind { return OpAlterManyToMany }

func (op *AlterManyToMany) Validate() error {
	return validateM2M(op.Namespace, op.Model_, op.Field)
}

// validateM2M is the shared structural check for many-to-many operations.
func validateM2M(ns, model string, field *FieldDef) error {
	if model == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required for many-to-many operation")
	}
	if field == nil {
		return merr.New(merr.ErrInvalidOperation, "field descriptor is required").
			WithModel(ns, model)
	}
	if field.Type != TypeManyToMany {
		return merr.New(merr.ErrInvalidOperation,
			"many-to-many operation requires a many_to_many field").
			WithModel(ns, model).
			WithField(field.Name)
	}
	if err := field.Validate(); err != nil {
		return merr.Wrap(merr.ErrInvalidOperation, err, "invalid field").
			WithModel(ns, model).
			WithField(field.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AlterUniqueTogether - replaces a model's unique-together set
// -----------------------------------------------------------------------------

// AlterUniqueTogether represents replacing a model's whole unique-together
// constraint set (full replacement, like AlterField).
type AlterUniqueTogether struct {
	ModelRef
	UniqueTogether [][]string
}

func (op *AlterUniqueTogether) Kind() OpKind { return OpAlterUniqueTogether }

func (op *AlterUniqueTogether) Validate() error {
	if op.Model_ == "" {
		return merr.New(merr.ErrInvalidOperation, "model name is required for alter unique-together")
	}
	for _, set := range op.UniqueTogether {
		if len(set) == 0 {
			return merr.New(merr.ErrInvalidOperation, "unique-together entry cannot be empty").
				WithModel(op.Namespace, op.Model_)
		}
		for _, name := range set {
			if err := validate.FieldName(name); err != nil {
				return err
			}
		}
	}
	return nil
}
