package schema

import (
	"errors"
	"fmt"

	"github.com/arthur-debert/nanograph/types"
)

// DefaultPrimaryKey is the identity field used when none is configured
const DefaultPrimaryKey = "id"

// Fields maps field name to its policy
type Fields map[string]FieldType

// FieldsFunc declares a model's fields. It runs when the registry boots, so
// relations may name models registered after this one.
type FieldsFunc func(d *Definer) Fields

// Model is the schema of one entity: its partition name, identity field,
// field policies and mutators.
type Model struct {
	entity     string
	primaryKey string
	mutators   Mutators
	define     FieldsFunc

	registry *Registry
	fields   Fields
	names    []string
}

// ModelOption configures a Model
type ModelOption func(*Model)

// WithPrimaryKey sets the identity field
func WithPrimaryKey(field string) ModelOption {
	return func(m *Model) {
		m.primaryKey = field
	}
}

// WithMutators registers model-level mutators keyed by field name
func WithMutators(mutators Mutators) ModelOption {
	return func(m *Model) {
		m.mutators = mutators
	}
}

// NewModel declares a model. Its fields are built when the registry boots.
func NewModel(entity string, define FieldsFunc, opts ...ModelOption) *Model {
	m := &Model{
		entity:     entity,
		primaryKey: DefaultPrimaryKey,
		define:     define,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Entity returns the partition name
func (m *Model) Entity() string {
	return m.entity
}

// PrimaryKey returns the identity field name
func (m *Model) PrimaryKey() string {
	return m.primaryKey
}

// Mutators returns the model-level mutators. The map may be nil.
func (m *Model) Mutators() Mutators {
	return m.mutators
}

// Relation resolves ref through the registry m belongs to
func (m *Model) Relation(ref Ref) (*Model, error) {
	if m.registry == nil {
		return nil, &ResolutionError{Identifier: ref.String()}
	}
	return m.registry.Resolve(ref)
}

// Booted reports whether the fields have been built
func (m *Model) Booted() bool {
	return m.fields != nil
}

// FieldNames returns the declared field names in sorted order
func (m *Model) FieldNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Field returns the policy of field name
func (m *Model) Field(name string) (FieldType, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Relations returns the relation fields keyed by field name
func (m *Model) Relations() map[string]RelationType {
	out := make(map[string]RelationType)
	for name, f := range m.fields {
		if rel, ok := f.(RelationType); ok {
			out[name] = rel
		}
	}
	return out
}

// IDOf returns the identity value of rec
func (m *Model) IDOf(rec types.Record) types.Value {
	return rec.Get(m.primaryKey)
}

// New builds an instance from a raw record: every declared field is filled
// and then made. Mutator and constructor errors are returned unchanged.
func (m *Model) New(record types.Record) (*Instance, error) {
	if !m.Booted() {
		return nil, fmt.Errorf("model %s: %w", m.entity, ErrNotBooted)
	}

	inst := &Instance{
		model: m,
		props: make(map[string]any, len(m.names)+1),
	}
	for _, name := range m.names {
		field := m.fields[name]
		made, err := field.Make(field.Fill(record.Get(name)), record, name)
		if err != nil {
			return nil, err
		}
		inst.props[name] = made
	}

	if _, declared := m.fields[m.primaryKey]; !declared {
		if id := m.IDOf(record); id.IsPresent() {
			inst.props[m.primaryKey] = id
		}
	}
	return inst, nil
}

// Fill shapes record for storage: declared fields go through their Fill,
// undeclared fields pass through unchanged.
func (m *Model) Fill(record types.Record) types.Record {
	out := record.Clone()
	if out == nil {
		out = types.Record{}
	}
	for _, name := range m.names {
		filled := m.fields[name].Fill(record.Get(name))
		if filled.IsMissing() {
			delete(out, name)
			continue
		}
		out[name] = filled
	}
	return out
}

// boot runs the FieldsFunc once
func (m *Model) boot() error {
	if m.Booted() {
		return nil
	}

	d := &Definer{model: m}
	var fields Fields
	if m.define != nil {
		fields = m.define(d)
	}
	if err := errors.Join(d.errs...); err != nil {
		return fmt.Errorf("model %s: %w", m.entity, err)
	}

	if fields == nil {
		fields = Fields{}
	}
	for name, f := range fields {
		if f == nil {
			return fmt.Errorf("model %s: field %s has no type", m.entity, name)
		}
	}

	names := types.SortedKeys(fields)
	// related ids are collected under the related entity's name, so two
	// relations to the same entity would share them
	byEntity := make(map[string]string)
	for _, name := range names {
		rel, ok := fields[name].(RelationType)
		if !ok {
			continue
		}
		related := rel.Related().Entity()
		if other, dup := byEntity[related]; dup {
			return fmt.Errorf("model %s: relations %s and %s both relate to %s", m.entity, other, name, related)
		}
		byEntity[related] = name
	}

	m.fields = fields
	m.names = names
	return nil
}

// Definer is handed to a FieldsFunc to build field policies bound to the
// model being defined. Construction errors are collected and reported by
// Registry.Boot.
type Definer struct {
	model *Model
	errs  []error
}

// Model returns the model being defined
func (d *Definer) Model() *Model {
	return d.model
}

// Attr declares a plain attribute with a default value
func (d *Definer) Attr(value types.Value, opts ...AttrOption) *Attr {
	return NewAttr(d.model, value, opts...)
}

// BelongsToMany declares a many-to-many relation through pivot
func (d *Definer) BelongsToMany(related, pivot Ref, foreignPivotKey, relatedPivotKey, parentKey, relatedKey string) FieldType {
	rel, err := NewBelongsToMany(d.model, related, pivot, foreignPivotKey, relatedPivotKey, parentKey, relatedKey)
	if err != nil {
		d.errs = append(d.errs, err)
		return nil
	}
	return rel
}

// Ref identifies a model either directly or by entity name
type Ref struct {
	model *Model
	name  string
}

// Of references a model value
func Of(m *Model) Ref {
	return Ref{model: m}
}

// Named references a model by entity name
func Named(entity string) Ref {
	return Ref{name: entity}
}

// String returns the entity name the reference points at
func (r Ref) String() string {
	if r.model != nil {
		return r.model.entity
	}
	return r.name
}
