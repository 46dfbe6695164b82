// Package store provides the main orchestrator for nanograph.
// It coordinates the schema, the in-memory state and the query layer: nested
// input is normalized into flat partitions on the way in, and stored records
// are hydrated back into connected instances on the way out.
package store

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arthur-debert/nanograph/nanograph/query"
	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/nanograph/storage"
)

// RelationError reports an eager load naming a field that is not a relation
// of the model
type RelationError struct {
	Entity   string
	Relation string
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("model %s has no relation %q", e.Entity, e.Relation)
}

// Store ties a booted registry to the state its records live in. Callers
// serialize writes; the state only guards its own maps.
type Store struct {
	registry *schema.Registry
	state    *storage.State
	logger   *slog.Logger
	idFunc   func() string
}

// New creates a store for the models of registry, which must be booted
func New(registry *schema.Registry, opts ...Option) (*Store, error) {
	if registry == nil {
		return nil, fmt.Errorf("store requires a registry")
	}
	for _, m := range registry.Models() {
		if !m.Booted() {
			return nil, fmt.Errorf("model %s: %w", m.Entity(), schema.ErrNotBooted)
		}
	}

	s := &Store{
		registry: registry,
		logger:   slog.Default(),
		idFunc: func() string {
			return uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.state == nil {
		s.state = storage.New()
	}
	for _, entity := range registry.Entities() {
		s.state.Register(entity)
	}

	return s, nil
}

// Registry returns the schema registry
func (s *Store) Registry() *schema.Registry {
	return s.registry
}

// State returns the underlying state
func (s *Store) State() *storage.State {
	return s.state
}

// Query returns a new, independent query over entity's partition
func (s *Store) Query(entity string) *query.Query {
	return s.state.Query(entity)
}
