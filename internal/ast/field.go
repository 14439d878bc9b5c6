package ast

import (
	"fmt"

	"github.com/migral/migral/internal/merr"
	"github.com/migral/migral/internal/validate"
)

// FieldType is the semantic type of a field descriptor.
// Types are portable: each maps to a concrete SQL type per dialect.
type FieldType string

const (
	TypeText       FieldType = "text"
	TypeChar       FieldType = "char"
	TypeInt        FieldType = "int"
	TypeSmallInt   FieldType = "small_int"
	TypeFloat      FieldType = "float"
	TypeBool       FieldType = "bool"
	TypeDate       FieldType = "date"
	TypeDateTime   FieldType = "datetime"
	TypeEmail      FieldType = "email"
	TypeUUID       FieldType = "uuid"
	TypeJSON       FieldType = "json"
	TypeEnum       FieldType = "enum"
	TypeForeignKey FieldType = "foreign_key"
	TypeManyToMany FieldType = "many_to_many"
)

// validFieldTypes is the closed set of supported semantic types.
var validFieldTypes = map[FieldType]bool{
	TypeText:       true,
	TypeChar:       true,
	TypeInt:        true,
	TypeSmallInt:   true,
	TypeFloat:      true,
	TypeBool:       true,
	TypeDate:       true,
	TypeDateTime:   true,
	TypeEmail:      true,
	TypeUUID:       true,
	TypeJSON:       true,
	TypeEnum:       true,
	TypeForeignKey: true,
	TypeManyToMany: true,
}

// ValidFieldType reports whether t is a supported semantic type.
func ValidFieldType(t FieldType) bool {
	return validFieldTypes[t]
}

// IsRelation reports whether t references another model.
func (t FieldType) IsRelation() bool {
	return t == TypeForeignKey || t == TypeManyToMany
}

// DeletePolicy is the referential action applied when a foreign key
// target row is deleted.
type DeletePolicy string

const (
	DeleteCascade  DeletePolicy = "cascade"
	DeleteSetNull  DeletePolicy = "set_null"
	DeleteProtect  DeletePolicy = "protect"
	DeleteNoAction DeletePolicy = "no_action"
)

// NormalizeDeletePolicy validates a delete policy string.
// An empty policy defaults to cascade, matching the dominant convention
// in application histories.
func NormalizeDeletePolicy(p DeletePolicy) (DeletePolicy, error) {
	switch p {
	case "":
		return DeleteCascade, nil
	case DeleteCascade, DeleteSetNull, DeleteProtect, DeleteNoAction:
		return p, nil
	default:
		return "", merr.New(merr.ErrInvalidPolicy,
			fmt.Sprintf("invalid on-delete policy %q; must be one of: cascade, set_null, protect, no_action", p))
	}
}

// Choice is one entry of an enum field's ordered choice set.
// Code is the stored value; Label is the human-readable caption.
type Choice struct {
	Code  string
	Label string
}

// FieldDef describes a single field on a model. It is the unit of full
// replacement for AlterField: altering a field swaps the whole descriptor.
type FieldDef struct {
	Name     string    // Field name (snake_case)
	Type     FieldType // Semantic type
	Nullable bool      // NULL allowed

	// Default value. DefaultSet distinguishes "no default" from a zero default.
	Default    any
	DefaultSet bool

	MaxLength int  // Required for char; unused otherwise
	Unique    bool // Single-field uniqueness

	// Enum fields only: ordered (code, label) pairs. A stored value must be
	// one of the listed codes.
	Choices []Choice

	// Relation fields only.
	Ref         string       // Target "namespace.model"
	OnDelete    DeletePolicy // foreign_key only
	RelatedName string       // Reverse accessor registered on the target model

	Docs string // Optional description
}

// IsRelation reports whether the field references another model.
func (f *FieldDef) IsRelation() bool {
	return f.Type.IsRelation()
}

// HasChoice reports whether code is one of the field's enum codes.
func (f *FieldDef) HasChoice(code string) bool {
	for _, c := range f.Choices {
		if c.Code == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the field descriptor.
func (f *FieldDef) Clone() *FieldDef {
	cp := *f
	if f.Choices != nil {
		cp.Choices = make([]Choice, len(f.Choices))
		copy(cp.Choices, f.Choices)
	}
	return &cp
}

// Validate checks that the field descriptor is well-formed.
func (f *FieldDef) Validate() error {
	if f.Name == "" {
		return merr.New(merr.ErrInvalidField, "field name is required")
	}
	if err := validate.FieldName(f.Name); err != nil {
		return err
	}
	if !ValidFieldType(f.Type) {
		return merr.New(merr.ErrInvalidType,
			fmt.Sprintf("unsupported field type %q", f.Type)).
			WithField(f.Name)
	}

	switch f.Type {
	case TypeChar:
		if f.MaxLength <= 0 {
			return merr.New(merr.ErrInvalidField, "char field requires max_length").
				WithField(f.Name)
		}
	case TypeEnum:
		if len(f.Choices) == 0 {
			return merr.New(merr.ErrInvalidField, "enum field requires a choice set").
				WithField(f.Name)
		}
		seen := make(map[string]bool, len(f.Choices))
		for _, c := range f.Choices {
			if c.Code == "" {
				return merr.New(merr.ErrInvalidField, "enum choice code cannot be empty").
					WithField(f.Name)
			}
			if seen[c.Code] {
				return merr.New(merr.ErrInvalidField,
					fmt.Sprintf("duplicate enum choice code %q", c.Code)).
					WithField(f.Name)
			}
			seen[c.Code] = true
		}
		if f.DefaultSet {
			code, ok := f.Default.(string)
			if !ok || !f.HasChoice(code) {
				return merr.New(merr.ErrInvalidField,
					fmt.Sprintf("default %v is not one of the enum codes", f.Default)).
					WithField(f.Name)
			}
		}
	case TypeForeignKey:
		if f.Ref == "" {
			return merr.New(merr.ErrInvalidField, "foreign_key field requires a target reference").
				WithField(f.Name)
		}
		if err := validate.QualifiedRef(f.Ref); err != nil {
			return err
		}
		if _, err := NormalizeDeletePolicy(f.OnDelete); err != nil {
			if e, ok := err.(*merr.Error); ok {
				e.WithField(f.Name)
			}
			return err
		}
	case TypeManyToMany:
		if f.Ref == "" {
			return merr.New(merr.ErrInvalidField, "many_to_many field requires a target reference").
				WithField(f.Name)
		}
		if err := validate.QualifiedRef(f.Ref); err != nil {
			return err
		}
		if f.Nullable {
			return merr.New(merr.ErrInvalidField, "many_to_many field cannot be nullable").
				WithField(f.Name)
		}
		if f.OnDelete != "" {
			return merr.New(merr.ErrInvalidField, "many_to_many field cannot set an on-delete policy").
				WithField(f.Name)
		}
	}

	if !f.IsRelation() {
		if f.Ref != "" {
			return merr.New(merr.ErrInvalidField,
				fmt.Sprintf("%s field cannot reference another model", f.Type)).
				WithField(f.Name)
		}
		if f.RelatedName != "" {
			return merr.New(merr.ErrInvalidField,
				fmt.Sprintf("%s field cannot declare a reverse name", f.Type)).
				WithField(f.Name)
		}
	} else if f.RelatedName != "" {
		if err := validate.ReverseName(f.RelatedName); err != nil {
			return err
		}
	}

	return nil
}
