package ast

import (
	"testing"
)

// -----------------------------------------------------------------------------
// FieldDef Validation Tests
// -----------------------------------------------------------------------------

func TestFieldValidate_Basic(t *testing.T) {
	tests := []struct {
		name    string
		field   *FieldDef
		wantErr bool
	}{
		{
			name:  "simple text field",
			field: &FieldDef{Name: "content", Type: TypeText},
		},
		{
			name:  "char with length",
			field: &FieldDef{Name: "subject", Type: TypeChar, MaxLength: 512},
		},
		{
			name:  "nullable date",
			field: &FieldDef{Name: "communication_date", Type: TypeDate, Nullable: true},
		},
		{
			name:    "missing name",
			field:   &FieldDef{Type: TypeText},
			wantErr: true,
		},
		{
			name:    "camelCase name",
			field:   &FieldDef{Name: "jobTitle", Type: TypeText},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			field:   &FieldDef{Name: "blob_data", Type: "blob"},
			wantErr: true,
		},
		{
			name:    "char without length",
			field:   &FieldDef{Name: "subject", Type: TypeChar},
			wantErr: true,
		},
		{
			name:    "plain field with reference",
			field:   &FieldDef{Name: "country", Type: TypeInt, Ref: "country.country"},
			wantErr: true,
		},
		{
			name:    "plain field with reverse name",
			field:   &FieldDef{Name: "country", Type: TypeInt, RelatedName: "contacts"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldValidate_Enum(t *testing.T) {
	designation := &FieldDef{
		Name: "designation",
		Type: TypeEnum,
		Choices: []Choice{
			{Code: "0", Label: "Mr"},
			{Code: "1", Label: "Ms"},
		},
	}
	if err := designation.Validate(); err != nil {
		t.Fatalf("valid enum rejected: %v", err)
	}

	empty := &FieldDef{Name: "designation", Type: TypeEnum}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for enum without choices")
	}

	dup := &FieldDef{
		Name: "medium",
		Type: TypeEnum,
		Choices: []Choice{
			{Code: "0", Label: "Mail"},
			{Code: "0", Label: "Phone"},
		},
	}
	if err := dup.Validate(); err == nil {
		t.Error("expected error for duplicate choice codes")
	}

	badDefault := &FieldDef{
		Name:       "medium",
		Type:       TypeEnum,
		Choices:    []Choice{{Code: "0", Label: "Mail"}},
		Default:    "9",
		DefaultSet: true,
	}
	if err := badDefault.Validate(); err == nil {
		t.Error("expected error for default outside choice codes")
	}

	goodDefault := &FieldDef{
		Name:       "medium",
		Type:       TypeEnum,
		Choices:    []Choice{{Code: "0", Label: "Mail"}},
		Default:    "0",
		DefaultSet: true,
	}
	if err := goodDefault.Validate(); err != nil {
		t.Errorf("valid enum default rejected: %v", err)
	}
}

func TestFieldValidate_ForeignKey(t *testing.T) {
	fk := &FieldDef{
		Name:        "organization",
		Type:        TypeForeignKey,
		Ref:         "organization.organization",
		OnDelete:    DeleteCascade,
		RelatedName: "contacts",
	}
	if err := fk.Validate(); err != nil {
		t.Fatalf("valid foreign key rejected: %v", err)
	}

	noRef := &FieldDef{Name: "organization", Type: TypeForeignKey}
	if err := noRef.Validate(); err == nil {
		t.Error("expected error for foreign key without reference")
	}

	unqualified := &FieldDef{Name: "organization", Type: TypeForeignKey, Ref: "organization"}
	if err := unqualified.Validate(); err == nil {
		t.Error("expected error for unqualified reference")
	}

	badPolicy := &FieldDef{
		Name:     "organization",
		Type:     TypeForeignKey,
		Ref:      "organization.organization",
		OnDelete: "restrict",
	}
	if err := badPolicy.Validate(); err == nil {
		t.Error("expected error for unknown on-delete policy")
	}
}

func TestFieldValidate_ManyToMany(t *testing.T) {
	m2m := &FieldDef{
		Name:        "countries_of_operation",
		Type:        TypeManyToMany,
		Ref:         "country.country",
		RelatedName: "operating_contacts",
	}
	if err := m2m.Validate(); err != nil {
		t.Fatalf("valid many-to-many rejected: %v", err)
	}

	nullable := &FieldDef{
		Name:     "countries_of_operation",
		Type:     TypeManyToMany,
		Ref:      "country.country",
		Nullable: true,
	}
	if err := nullable.Validate(); err == nil {
		t.Error("expected error for nullable many-to-many")
	}

	withPolicy := &FieldDef{
		Name:     "countries_of_operation",
		Type:     TypeManyToMany,
		Ref:      "country.country",
		OnDelete: DeleteCascade,
	}
	if err := withPolicy.Validate(); err == nil {
		t.Error("expected error for many-to-many with on-delete policy")
	}
}

func TestNormalizeDeletePolicy(t *testing.T) {
	tests := []struct {
		input   DeletePolicy
		want    DeletePolicy
		wantErr bool
	}{
		{"", DeleteCascade, false},
		{DeleteCascade, DeleteCascade, false},
		{DeleteSetNull, DeleteSetNull, false},
		{DeleteProtect, DeleteProtect, false},
		{DeleteNoAction, DeleteNoAction, false},
		{"restrict", "", true},
		{"CASCADE", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeDeletePolicy(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeDeletePolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDeletePolicy(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFieldClone(t *testing.T) {
	orig := &FieldDef{
		Name:    "medium",
		Type:    TypeEnum,
		Choices: []Choice{{Code: "0", Label: "Mail"}},
	}
	cp := orig.Clone()
	cp.Choices[0] = Choice{Code: "1", Label: "Phone"}
	if orig.Choices[0].Code != "0" {
		t.Error("Clone should not share the choice slice")
	}
}
