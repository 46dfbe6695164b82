// Package nanograph normalizes nested object graphs into a flat, entity-keyed
// in-memory store and hydrates stored records back into connected instances.
//
// Models are declared in Go or loaded from a YAML schema. Inserting a nested
// record flattens it into one partition per entity and synthesizes pivot
// records for many-to-many relations; Find, All and Get rebuild instances,
// eager-loading relations on request.
package nanograph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/nanograph/storage"
	"github.com/arthur-debert/nanograph/nanograph/store"
	"github.com/arthur-debert/nanograph/types"
)

// Store is the orchestrator tying a schema to its in-memory state
type Store = store.Store

// Option configures a Store
type Option = store.Option

// Store options
var (
	WithLogger = store.WithLogger
	WithIDFunc = store.WithIDFunc
	WithState  = store.WithState
)

// New creates a store for the models of a booted registry
func New(registry *Registry, opts ...Option) (*Store, error) {
	return store.New(registry, opts...)
}

// ParseSchema builds a booted registry from a YAML schema document
func ParseSchema(data []byte) (*Registry, error) {
	var cfg SchemaConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return schema.FromConfig(cfg)
}

// LoadSchema reads and builds a YAML schema file
func LoadSchema(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return ParseSchema(data)
}

// Seed inserts every entity of a seed file into s, in file order
func Seed(s *Store, path string) (types.NormalizedData, error) {
	seed, err := storage.ReadSeed(path)
	if err != nil {
		return nil, err
	}

	merged := types.NormalizedData{}
	for _, entity := range seed.Entities {
		data, err := s.Insert(entity, seed.Inputs[entity])
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", entity, err)
		}
		for _, name := range data.Entities() {
			for key, rec := range data[name] {
				merged.Put(name, key, rec)
			}
		}
	}
	return merged, nil
}
