// Package metadata renders a schema snapshot as a JSON metadata file
// (.migral/metadata.json): physical table names, relation columns, and
// generated junction tables. External tools can audit the schema without
// replaying node files.
package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/sqlgen"
)

// DefaultDir is the directory holding the metadata file.
const DefaultDir = ".migral"

// Metadata is the serialized shape of one schema snapshot.
type Metadata struct {
	// Version of the metadata format
	Version string `json:"version"`

	// Generated timestamp
	GeneratedAt time.Time `json:"generated_at"`

	// Models in the schema, keyed "namespace.model"
	Models map[string]*ModelMeta `json:"models"`

	// Many-to-many relationships and their junction tables
	ManyToMany []*ManyToManyMeta `json:"many_to_many"`

	// Junction tables, keyed by physical name
	JunctionTables map[string]*JunctionMeta `json:"junction_tables"`
}

// ModelMeta holds metadata for a single model.
type ModelMeta struct {
	Namespace      string     `json:"namespace"`
	Name           string     `json:"name"`
	Table          string     `json:"table"`
	PrimaryKey     string     `json:"primary_key"`
	Columns        []string   `json:"columns"`
	ForeignKeys    []string   `json:"foreign_keys,omitempty"`
	UniqueTogether [][]string `json:"unique_together,omitempty"`
}

// ManyToManyMeta tracks one many-to-many relation.
type ManyToManyMeta struct {
	// Source model ("contact.contact")
	Source string `json:"source"`

	// Field on the source model
	Field string `json:"field"`

	// Target model ("country.country")
	Target string `json:"target"`

	// Physical junction table name
	JunctionTable string `json:"junction_table"`
}

// JunctionMeta holds metadata for one generated junction table.
type JunctionMeta struct {
	Name        string `json:"name"`
	SourceTable string `json:"source_table"`
	TargetTable string `json:"target_table"`
	SourceFK    string `json:"source_fk"`
	TargetFK    string `json:"target_fk"`
}

// FromSchema computes the metadata of a schema snapshot. Physical names
// follow the DDL generator, so the file matches what apply would create.
func FromSchema(schema *state.Schema) *Metadata {
	m := &Metadata{
		Version:        "1.0",
		GeneratedAt:    time.Now().UTC(),
		Models:         make(map[string]*ModelMeta),
		ManyToMany:     make([]*ManyToManyMeta, 0),
		JunctionTables: make(map[string]*JunctionMeta),
	}

	for _, model := range schema.ModelList() {
		key := model.Namespace + "." + model.Name
		meta := &ModelMeta{
			Namespace:      model.Namespace,
			Name:           model.Name,
			Table:          sqlgen.TableName(model),
			PrimaryKey:     "id",
			UniqueTogether: model.UniqueTogether,
		}

		for _, f := range model.Fields {
			if f.Type == ast.TypeManyToMany {
				junction := sqlgen.JunctionTableName(model, f)
				m.ManyToMany = append(m.ManyToMany, &ManyToManyMeta{
					Source:        key,
					Field:         f.Name,
					Target:        f.Ref,
					JunctionTable: junction,
				})
				if target, ok := schema.GetModel(f.Ref); ok {
					srcCol, dstCol := sqlgen.JunctionColumns(model, target)
					m.JunctionTables[junction] = &JunctionMeta{
						Name:        junction,
						SourceTable: sqlgen.TableName(model),
						TargetTable: sqlgen.TableName(target),
						SourceFK:    srcCol,
						TargetFK:    dstCol,
					}
				}
				continue
			}

			col := sqlgen.ColumnName(f)
			meta.Columns = append(meta.Columns, col)
			if f.Type == ast.TypeForeignKey {
				meta.ForeignKeys = append(meta.ForeignKeys, col)
			}
		}

		m.Models[key] = meta
	}

	return m
}

// Save writes the metadata under projectDir/.migral/metadata.json.
func (m *Metadata) Save(projectDir string) error {
	return m.SaveToFile(filepath.Join(projectDir, DefaultDir, "metadata.json"))
}

// SaveToFile writes the metadata to a JSON file at the given path.
func (m *Metadata) SaveToFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	m.GeneratedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// Load reads metadata from projectDir/.migral/metadata.json.
// A missing file yields an empty Metadata, not an error.
func Load(projectDir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, DefaultDir, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Metadata{
				Version:        "1.0",
				Models:         make(map[string]*ModelMeta),
				JunctionTables: make(map[string]*JunctionMeta),
			}, nil
		}
		return nil, err
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Models == nil {
		m.Models = make(map[string]*ModelMeta)
	}
	if m.JunctionTables == nil {
		m.JunctionTables = make(map[string]*JunctionMeta)
	}
	return &m, nil
}
