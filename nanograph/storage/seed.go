package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanograph/types"
)

const (
	seedLockTimeout    = 3 * time.Second
	seedLockRetryDelay = 100 * time.Millisecond
)

// Seed is a decoded seed document: entity name to the nested input records
// to insert for it, in file order.
type Seed struct {
	Entities []string
	Inputs   map[string]types.Value
}

// ReadSeed reads a YAML or JSON seed document while holding a shared lock on
// path+".lock", so a writer holding the exclusive lock is never observed
// half-way. The top level must be a mapping of entity name to either one
// record or a list of records.
func ReadSeed(path string) (*Seed, error) {
	data, err := readLocked(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed data that was already read
func ParseSeed(data []byte) (*Seed, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	seed := &Seed{Inputs: make(map[string]types.Value)}
	if len(doc.Content) == 0 {
		return seed, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("seed must be a mapping of entity to records, got %s", nodeKind(root))
	}

	// Walk the mapping by hand to keep the entity order of the file.
	for i := 0; i+1 < len(root.Content); i += 2 {
		entity := root.Content[i].Value
		var raw any
		if err := root.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("seed entity %s: %w", entity, err)
		}
		value, err := types.From(raw)
		if err != nil {
			return nil, fmt.Errorf("seed entity %s: %w", entity, err)
		}
		if _, dup := seed.Inputs[entity]; !dup {
			seed.Entities = append(seed.Entities, entity)
		}
		seed.Inputs[entity] = value
	}
	return seed, nil
}

func readLocked(path string) ([]byte, error) {
	lock := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), seedLockTimeout)
	defer cancel()

	locked, err := lock.TryRLockContext(ctx, seedLockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire file lock")
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("seed file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
