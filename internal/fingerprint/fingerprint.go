// Package fingerprint computes hierarchical hashes of schema snapshots.
// The hash is a merkle root over models, with per-model hashes over
// fields, unique constraints, and reverse names, so two snapshots can be
// compared cheaply and differences drilled into per model.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cbergoon/merkletree"

	"github.com/migral/migral/internal/ast"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/merr"
)

// SchemaFingerprint is the merkle root of a schema snapshot.
type SchemaFingerprint struct {
	Root   string                // root hash of the entire schema
	Models map[string]*ModelHash // per-model hashes for drill-down
}

// ModelHash is the hash of a single model.
type ModelHash struct {
	Name    string            // qualified name (namespace.model)
	Hash    string            // hash of the entire model structure
	Fields  map[string]string // field name -> hash
	Uniques map[string]string // joined unique-together set -> hash
}

// modelContent implements merkletree.Content for model-level hashing.
type modelContent struct {
	name string
	hash string
}

func (m modelContent) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(m.name + "=" + m.hash))
	return h[:], nil
}

func (m modelContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(modelContent)
	if !ok {
		return false, nil
	}
	return m.name == o.name && m.hash == o.hash, nil
}

// Compute builds the fingerprint of a schema snapshot.
// The hash is hierarchical: schema -> models -> fields/uniques.
func Compute(schema *state.Schema) (*SchemaFingerprint, error) {
	result := &SchemaFingerprint{
		Models: make(map[string]*ModelHash),
	}
	if schema == nil || len(schema.Models) == 0 {
		result.Root = emptyHash()
		return result, nil
	}

	var contents []merkletree.Content
	for _, name := range schema.ModelNames() { // sorted for determinism
		model, _ := schema.GetModel(name)
		mh := computeModelHash(model)
		result.Models[name] = mh
		contents = append(contents, modelContent{name: name, hash: mh.Hash})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, merr.Wrap(merr.ErrInternal, err, "failed to build merkle tree")
	}
	result.Root = hex.EncodeToString(tree.MerkleRoot())
	return result, nil
}

// computeModelHash computes the hash for a single model.
func computeModelHash(model *ast.ModelDef) *ModelHash {
	result := &ModelHash{
		Name:    model.QualifiedName(),
		Fields:  make(map[string]string),
		Uniques: make(map[string]string),
	}

	fieldNames := model.FieldNames()
	sort.Strings(fieldNames)

	var fieldHashes []string
	for _, name := range fieldNames {
		h := computeFieldHash(model.GetField(name))
		result.Fields[name] = h
		fieldHashes = append(fieldHashes, name+":"+h)
	}

	var uniqueHashes []string
	for _, set := range model.UniqueTogether {
		key := strings.Join(set, "+")
		h := hashString("unique:[" + key + "]")
		result.Uniques[key] = h
		uniqueHashes = append(uniqueHashes, key+":"+h)
	}
	sort.Strings(uniqueHashes)

	var reverseEntries []string
	for name, source := range model.ReverseNames {
		reverseEntries = append(reverseEntries, name+"<-"+source)
	}
	sort.Strings(reverseEntries)

	data := fmt.Sprintf("model:%s|fields:[%s]|uniques:[%s]|reverse:[%s]",
		model.QualifiedName(),
		strings.Join(fieldHashes, ","),
		strings.Join(uniqueHashes, ","),
		strings.Join(reverseEntries, ","),
	)
	result.Hash = hashString(data)
	return result
}

// computeFieldHash computes a deterministic hash for a field descriptor.
func computeFieldHash(f *ast.FieldDef) string {
	data := fmt.Sprintf("name:%s|type:%s|nullable:%v|unique:%v",
		f.Name, f.Type, f.Nullable, f.Unique)

	if f.MaxLength > 0 {
		data += fmt.Sprintf("|max_length:%d", f.MaxLength)
	}
	if f.DefaultSet {
		data += fmt.Sprintf("|default:%v", f.Default)
	}
	if len(f.Choices) > 0 {
		var choices []string
		for _, c := range f.Choices {
			choices = append(choices, c.Code+"="+c.Label)
		}
		data += fmt.Sprintf("|choices:[%s]", strings.Join(choices, ","))
	}
	if f.Ref != "" {
		data += fmt.Sprintf("|target:%s|on_delete:%s|related_name:%s",
			f.Ref, f.OnDelete, f.RelatedName)
	}

	return hashString(data)
}

// hashString computes SHA256 of a string and returns hex encoding.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// emptyHash returns a consistent hash for empty schemas.
func emptyHash() string {
	return hashString("empty_schema")
}

// Compare compares two fingerprints and returns their differences.
func Compare(expected, actual *SchemaFingerprint) *Comparison {
	result := &Comparison{
		Match:         expected.Root == actual.Root,
		ExpectedRoot:  expected.Root,
		ActualRoot:    actual.Root,
		ModelDiffs:    make(map[string]*ModelDiff),
		MissingModels: []string{},
		ExtraModels:   []string{},
	}
	if result.Match {
		return result
	}

	for name := range expected.Models {
		if _, exists := actual.Models[name]; !exists {
			result.MissingModels = append(result.MissingModels, name)
		}
	}
	sort.Strings(result.MissingModels)

	for name := range actual.Models {
		if _, exists := expected.Models[name]; !exists {
			result.ExtraModels = append(result.ExtraModels, name)
		}
	}
	sort.Strings(result.ExtraModels)

	for name, em := range expected.Models {
		am, exists := actual.Models[name]
		if !exists {
			continue // already captured as missing
		}
		if em.Hash != am.Hash {
			result.ModelDiffs[name] = compareModelHashes(em, am)
		}
	}

	return result
}

// Comparison is the result of comparing two schema fingerprints.
type Comparison struct {
	Match         bool
	ExpectedRoot  string
	ActualRoot    string
	ModelDiffs    map[string]*ModelDiff // models with differences
	MissingModels []string              // models missing from actual
	ExtraModels   []string              // extra models in actual
}

// ModelDiff lists the differences within one model.
type ModelDiff struct {
	Name           string
	MissingFields  []string
	ExtraFields    []string
	ModifiedFields []string
	MissingUniques []string
	ExtraUniques   []string
}

// HasDifferences reports whether the model diff contains anything.
func (d *ModelDiff) HasDifferences() bool {
	return len(d.MissingFields) > 0 ||
		len(d.ExtraFields) > 0 ||
		len(d.ModifiedFields) > 0 ||
		len(d.MissingUniques) > 0 ||
		len(d.ExtraUniques) > 0
}

func compareModelHashes(expected, actual *ModelHash) *ModelDiff {
	diff := &ModelDiff{Name: expected.Name}

	for name, hash := range expected.Fields {
		actualHash, exists := actual.Fields[name]
		if !exists {
			diff.MissingFields = append(diff.MissingFields, name)
		} else if hash != actualHash {
			diff.ModifiedFields = append(diff.ModifiedFields, name)
		}
	}
	for name := range actual.Fields {
		if _, exists := expected.Fields[name]; !exists {
			diff.ExtraFields = append(diff.ExtraFields, name)
		}
	}

	for key := range expected.Uniques {
		if _, exists := actual.Uniques[key]; !exists {
			diff.MissingUniques = append(diff.MissingUniques, key)
		}
	}
	for key := range actual.Uniques {
		if _, exists := expected.Uniques[key]; !exists {
			diff.ExtraUniques = append(diff.ExtraUniques, key)
		}
	}

	sort.Strings(diff.MissingFields)
	sort.Strings(diff.ExtraFields)
	sort.Strings(diff.ModifiedFields)
	sort.Strings(diff.MissingUniques)
	sort.Strings(diff.ExtraUniques)

	return diff
}
