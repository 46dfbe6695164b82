package schema

import (
	"errors"
	"fmt"

	"github.com/arthur-debert/nanograph/internal/validation"
)

// Registry resolves model references by entity name. Models are registered
// first and booted together, so relations can point at each other.
type Registry struct {
	models map[string]*Model
	order  []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register adds models. Entity names must be valid and unique.
func (r *Registry) Register(models ...*Model) error {
	for _, m := range models {
		if m == nil {
			return fmt.Errorf("cannot register a nil model")
		}
		if err := validation.ValidateEntityName(m.entity); err != nil {
			return err
		}
		if err := validation.ValidateFieldName(m.primaryKey); err != nil {
			return fmt.Errorf("model %s: primary key: %w", m.entity, err)
		}
		if existing, ok := r.models[m.entity]; ok && existing != m {
			return fmt.Errorf("model %q already registered", m.entity)
		}
		if m.registry != nil && m.registry != r {
			return fmt.Errorf("model %q belongs to another registry", m.entity)
		}
		if _, ok := r.models[m.entity]; !ok {
			r.order = append(r.order, m.entity)
		}
		m.registry = r
		r.models[m.entity] = m
	}
	return nil
}

// Boot builds the fields of every registered model. Resolution failures of
// all models are reported together.
func (r *Registry) Boot() error {
	var errs []error
	for _, entity := range r.order {
		m := r.models[entity]
		if err := m.boot(); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, name := range m.names {
			if err := validation.ValidateFieldName(name); err != nil {
				errs = append(errs, fmt.Errorf("model %s: %w", entity, err))
			}
		}
	}
	return errors.Join(errs...)
}

// MustBoot registers models and boots the registry, panicking on error. It
// is meant for package-level schema declarations and tests.
func MustBoot(models ...*Model) *Registry {
	r := NewRegistry()
	if err := r.Register(models...); err != nil {
		panic(err)
	}
	if err := r.Boot(); err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the registered model ref points at
func (r *Registry) Resolve(ref Ref) (*Model, error) {
	entity := ref.String()
	m, ok := r.models[entity]
	if !ok || (ref.model != nil && ref.model != m) {
		return nil, &ResolutionError{Identifier: entity, Known: r.Entities()}
	}
	return m, nil
}

// Model returns the model registered under entity
func (r *Registry) Model(entity string) (*Model, error) {
	return r.Resolve(Named(entity))
}

// Models returns registered models in registration order
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, len(r.order))
	for _, entity := range r.order {
		out = append(out, r.models[entity])
	}
	return out
}

// Entities returns registered entity names in registration order
func (r *Registry) Entities() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
