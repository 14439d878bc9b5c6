// Package ast defines the abstract syntax tree for declarative schema changes.
// Operations represent atomic edits to the application schema; migration nodes
// bundle ordered operations and are replayed into a schema snapshot.
package ast

// OpKind represents the kind of a schema change operation.
type OpKind int

const (
	// OpCreateModel creates a new model with its initial field set.
	OpCreateModel OpKind = iota

	// OpRenameModel changes a model's name within its namespace.
	OpRenameModel

	// OpRemoveModel removes an existing model.
	OpRemoveModel

	// OpAddField adds a new field to an existing model.
	OpAddField

	// OpAlterField replaces a field's descriptor (full replacement).
	OpAlterField

	// OpRemoveField removes a field from an existing model.
	OpRemoveField

	// OpAddManyToMany adds a many-to-many relation field.
	OpAddManyToMany

	// OpAlterManyToMany replaces a many-to-many relation's descriptor.
	OpAlterManyToMany

	// OpAlterUniqueTogether replaces a model's unique-together constraint set.
	OpAlterUniqueTogether
)

// String returns the string representation of an OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreateModel:
		return "CreateModel"
	case OpRenameModel:
		return "RenameModel"
	case OpRemoveModel:
		return "RemoveModel"
	case OpAddField:
		return "AddField"
	case OpAlterField:
		return "AlterField"
	case OpRemoveField:
		return "RemoveField"
	case OpAddManyToMany:
		return "AddManyToMany"
	case OpAlterManyToMany:
		return "AlterManyToMany"
	case OpAlterUniqueTogether:
		return "AlterUniqueTogether"
	default:
		return "Unknown"
	}
}
