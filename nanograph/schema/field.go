// Package schema defines how model fields turn raw input into stored records
// and stored records back into model instances.
//
// Every field of a model is governed by a FieldType. Plain values use Attr;
// associations implement RelationType, which adds foreign-key attachment
// during normalization and query-backed loading during hydration.
// BelongsToMany is the association-table variant: it synthesizes pivot
// records while normalizing and walks them back when loading.
package schema

import (
	"github.com/arthur-debert/nanograph/types"
)

// Mutator transforms a field value when an instance is made. Errors are
// returned to the caller unchanged.
type Mutator func(value types.Value) (types.Value, error)

// Mutators maps field name to mutator
type Mutators map[string]Mutator

// FieldType is the per-field policy shared by all records of a model.
type FieldType interface {
	// Normalize shapes a raw input value during normalization. It never fails.
	Normalize(value types.Value) types.Value

	// Fill shapes a value before it is stored or made, substituting defaults
	// for missing input.
	Fill(value types.Value) types.Value

	// Make converts a filled value into the model-ready property: a
	// types.Value for attributes, []*Instance for relations.
	Make(value types.Value, parent types.Record, key string) (any, error)
}
