// Package storage holds the process-wide keyed document store that the
// normalization engine writes into and the query layer reads from. Records
// live in one partition per entity, keyed by the canonical string form of
// their identity.
package storage

import (
	"fmt"
	"sort"

	"github.com/arthur-debert/nanograph/nanograph/query"
	"github.com/arthur-debert/nanograph/types"
)

// PartitionError reports access to an entity partition that was never registered
type PartitionError struct {
	Entity string
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("unknown partition %q", e.Entity)
}

// partition keeps records keyed by identity together with their insertion
// order, which is the order queries see them in.
type partition struct {
	keys    []string
	records map[string]types.Record
}

func newPartition() *partition {
	return &partition{records: make(map[string]types.Record)}
}

func (p *partition) put(key string, rec types.Record) {
	if _, exists := p.records[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.records[key] = rec
}

func (p *partition) list() []types.Record {
	out := make([]types.Record, 0, len(p.keys))
	for _, key := range p.keys {
		out = append(out, p.records[key].Clone())
	}
	return out
}

// State is the in-memory document store. It implements query.Source.
type State struct {
	lockManager *LockManager
	partitions  map[string]*partition
}

var _ query.Source = (*State)(nil)

// New creates a state with an empty partition for each entity
func New(entities ...string) *State {
	s := &State{
		lockManager: NewLockManager(),
		partitions:  make(map[string]*partition),
	}
	for _, entity := range entities {
		s.partitions[entity] = newPartition()
	}
	return s
}

// Register adds an empty partition for entity. Registering an existing
// entity keeps its records.
func (s *State) Register(entity string) {
	_ = s.lockManager.Execute(WriteOperation, func() error {
		if _, ok := s.partitions[entity]; !ok {
			s.partitions[entity] = newPartition()
		}
		return nil
	})
}

// Entities returns the registered entity names, sorted
func (s *State) Entities() []string {
	names, _ := WithResult(s.lockManager, ReadOperation, func() ([]string, error) {
		return types.SortedKeys(s.partitions), nil
	})
	return names
}

// Records returns copies of every record in entity's partition, in
// insertion order
func (s *State) Records(entity string) ([]types.Record, error) {
	return WithResult(s.lockManager, ReadOperation, func() ([]types.Record, error) {
		p, ok := s.partitions[entity]
		if !ok {
			return nil, &PartitionError{Entity: entity}
		}
		return p.list(), nil
	})
}

// Get returns a copy of the record stored under key in entity's partition
func (s *State) Get(entity, key string) (types.Record, bool, error) {
	var found bool
	rec, err := WithResult(s.lockManager, ReadOperation, func() (types.Record, error) {
		p, ok := s.partitions[entity]
		if !ok {
			return nil, &PartitionError{Entity: entity}
		}
		rec, ok := p.records[key]
		found = ok
		return rec.Clone(), nil
	})
	return rec, found, err
}

// Merge writes every record of data into its partition. A record replaces
// whatever is stored under the same key and keeps that key's position; new
// keys are appended in sorted key order so merges are deterministic. The
// merge is rejected before any write if data names an unknown partition.
func (s *State) Merge(data types.NormalizedData) error {
	return s.lockManager.Execute(WriteOperation, func() error {
		for _, entity := range data.Entities() {
			if _, ok := s.partitions[entity]; !ok {
				return &PartitionError{Entity: entity}
			}
		}

		for _, entity := range data.Entities() {
			p := s.partitions[entity]
			records := data[entity]
			keys := make([]string, 0, len(records))
			for key := range records {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				p.put(key, records[key].Clone())
			}
		}
		return nil
	})
}

// Flush empties entity's partition
func (s *State) Flush(entity string) error {
	return s.lockManager.Execute(WriteOperation, func() error {
		if _, ok := s.partitions[entity]; !ok {
			return &PartitionError{Entity: entity}
		}
		s.partitions[entity] = newPartition()
		return nil
	})
}

// Snapshot returns a deep copy of every partition
func (s *State) Snapshot() types.NormalizedData {
	data, _ := WithResult(s.lockManager, ReadOperation, func() (types.NormalizedData, error) {
		out := make(types.NormalizedData, len(s.partitions))
		for entity, p := range s.partitions {
			records := make(map[string]types.Record, len(p.records))
			for key, rec := range p.records {
				records[key] = rec.Clone()
			}
			out[entity] = records
		}
		return out, nil
	})
	return data
}

// Query returns a fresh query handle over entity's partition. Every call
// yields an independent handle.
func (s *State) Query(entity string) *query.Query {
	return query.New(s, entity)
}
