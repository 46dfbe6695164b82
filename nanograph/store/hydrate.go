package store

import (
	"github.com/arthur-debert/nanograph/nanograph/query"
	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/types"
)

// Find hydrates the record of entity stored under id, with loads applied
func (s *Store) Find(entity string, id types.Value, loads ...*schema.Load) (*schema.Instance, bool, error) {
	model, err := s.registry.Model(entity)
	if err != nil {
		return nil, false, err
	}

	rec, found, err := s.state.Get(entity, id.Key())
	if err != nil || !found {
		return nil, false, err
	}

	inst, err := s.Hydrate(model, rec, loads...)
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

// All hydrates every record of entity in store order
func (s *Store) All(entity string, loads ...*schema.Load) ([]*schema.Instance, error) {
	return s.Get(s.Query(entity), loads...)
}

// Get materializes q and hydrates each result with loads applied
func (s *Store) Get(q *query.Query, loads ...*schema.Load) ([]*schema.Instance, error) {
	model, err := s.registry.Model(q.Entity())
	if err != nil {
		return nil, err
	}

	records, err := q.Get()
	if err != nil {
		return nil, err
	}

	instances := make([]*schema.Instance, 0, len(records))
	for _, rec := range records {
		inst, err := s.Hydrate(model, rec, loads...)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// Hydrate builds an instance of model from a stored record. Each load
// queries its relation and the related records are hydrated with the
// load's nested loads before being made into instances.
func (s *Store) Hydrate(model *schema.Model, record types.Record, loads ...*schema.Load) (*schema.Instance, error) {
	expanded, err := s.expand(model, record, loads)
	if err != nil {
		return nil, err
	}
	return model.New(expanded)
}

// expand replaces each loaded relation field of record with the related
// records, themselves expanded, as embedded objects
func (s *Store) expand(model *schema.Model, record types.Record, loads []*schema.Load) (types.Record, error) {
	if len(loads) == 0 {
		return record, nil
	}

	out := record.Clone()
	if out == nil {
		out = types.Record{}
	}
	relations := model.Relations()

	for _, load := range loads {
		rel, ok := relations[load.Name]
		if !ok {
			return nil, &RelationError{Entity: model.Entity(), Relation: load.Name}
		}

		related, err := rel.Load(s.state, record, load)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("loaded relation",
			"entity", model.Entity(),
			"id", model.IDOf(record).Key(),
			"relation", load.Name,
			"records", len(related))

		items := make([]types.Value, 0, len(related))
		for _, rec := range related {
			nested, err := s.expand(rel.Related(), rec, load.With)
			if err != nil {
				return nil, err
			}
			items = append(items, types.Object(nested))
		}
		out[load.Name] = types.List(items...)
	}
	return out, nil
}
