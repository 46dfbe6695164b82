package schema

import (
	"github.com/arthur-debert/nanograph/types"
)

// Attr is a plain, non-relational field with a default value and an
// optional mutator.
type Attr struct {
	model   *Model
	value   types.Value
	mutator Mutator
}

var _ FieldType = (*Attr)(nil)

// AttrOption configures an Attr at definition time
type AttrOption func(*Attr)

// Mutate sets a per-field mutator, which takes precedence over the model's
// mutator registered under the same field name.
func Mutate(fn Mutator) AttrOption {
	return func(a *Attr) {
		a.mutator = fn
	}
}

// NewAttr creates an attribute of model with the given default value
func NewAttr(model *Model, value types.Value, opts ...AttrOption) *Attr {
	a := &Attr{model: model, value: value}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Default returns the configured default value
func (a *Attr) Default() types.Value {
	return a.value
}

// Normalize fills the value
func (a *Attr) Normalize(value types.Value) types.Value {
	return a.Fill(value)
}

// Fill returns value unless it is missing, in which case the default is
// returned. An explicit null is kept.
func (a *Attr) Fill(value types.Value) types.Value {
	if value.IsPresent() {
		return value
	}
	return a.value
}

// Make applies the field mutator, or the model mutator registered for key,
// and returns the value unchanged when neither exists.
func (a *Attr) Make(value types.Value, _ types.Record, key string) (any, error) {
	mutator := a.resolveMutator(key)
	if mutator == nil {
		return value, nil
	}
	return mutator(value)
}

func (a *Attr) resolveMutator(key string) Mutator {
	if a.mutator != nil {
		return a.mutator
	}
	if a.model == nil {
		return nil
	}
	return a.model.Mutators()[key]
}
