package store

import (
	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/types"
)

// Insert normalizes input into flat partitions and merges them into the
// state. input is one object or a sequence of objects for entity's model;
// anything else normalizes to nothing. The merged data is returned.
func (s *Store) Insert(entity string, input types.Value) (types.NormalizedData, error) {
	data, err := s.Normalize(entity, input)
	if err != nil {
		return nil, err
	}

	if err := s.state.Merge(data); err != nil {
		return nil, err
	}

	s.logger.Debug("merged normalized data",
		"entity", entity,
		"partitions", len(data),
		"records", data.Count())
	return data, nil
}

// Normalize runs the write path without touching the state: nested records
// are flattened, pivot records synthesized and every record shaped for
// storage.
func (s *Store) Normalize(entity string, input types.Value) (types.NormalizedData, error) {
	model, err := s.registry.Model(entity)
	if err != nil {
		return nil, err
	}

	data := types.NormalizedData{}
	switch {
	case input.IsObject():
		s.normalizeRecord(model, input.Object(), data)
	case input.IsSequence():
		for _, item := range input.Items() {
			if item.IsObject() {
				s.normalizeRecord(model, item.Object(), data)
			}
		}
	default:
		s.logger.Debug("ignoring non-object input", "entity", entity, "kind", input.Kind())
	}

	s.createPivots(data)
	if err := s.fill(data); err != nil {
		return nil, err
	}

	for _, name := range data.Entities() {
		s.logger.Debug("normalized partition", "entity", name, "records", len(data[name]))
	}
	return data, nil
}

// normalizeRecord flattens raw into data and returns the record as stored
// in data. Embedded related objects are normalized first; the parent keeps
// their related key values under the related entity's name.
func (s *Store) normalizeRecord(model *schema.Model, raw types.Record, data types.NormalizedData) types.Record {
	rec := raw.Clone()
	if rec == nil {
		rec = types.Record{}
	}

	id := model.IDOf(rec)
	if id.IsMissing() || id.IsNull() {
		id = types.String(s.idFunc())
		rec[model.PrimaryKey()] = id
	}

	for _, name := range model.FieldNames() {
		field, _ := model.Field(name)

		rel, ok := field.(schema.RelationType)
		if !ok {
			normalized := field.Normalize(rec.Get(name))
			if normalized.IsMissing() {
				delete(rec, name)
				continue
			}
			rec[name] = normalized
			continue
		}

		ids := make([]types.Value, 0)
		for _, item := range rel.Normalize(rec.Get(name)).Items() {
			var relatedID types.Value
			switch {
			case item.IsObject():
				related := s.normalizeRecord(rel.Related(), item.Object(), data)
				relatedID = related.Get(relatedKey(rel))
				if relatedID.IsMissing() {
					continue
				}
			case item.IsScalar():
				relatedID = item
			default:
				continue
			}
			rel.Attach(relatedID, rec, data)
			ids = append(ids, relatedID)
		}
		rec[name] = types.List(ids...)
		rec[rel.Related().Entity()] = types.List(ids...)
	}

	data.Put(model.Entity(), id.Key(), rec)
	return rec
}

// relatedKey names the field of related records that rel references
func relatedKey(rel schema.RelationType) string {
	if keyed, ok := rel.(schema.KeyedRelation); ok && keyed.RelatedKey() != "" {
		return keyed.RelatedKey()
	}
	return rel.Related().PrimaryKey()
}

// createPivots lets every pivot-backed relation of every model synthesize
// its association records
func (s *Store) createPivots(data types.NormalizedData) {
	for _, model := range s.registry.Models() {
		if len(data[model.Entity()]) == 0 {
			continue
		}
		relations := model.Relations()
		for _, name := range types.SortedKeys(relations) {
			synth, ok := relations[name].(schema.PivotSynthesizer)
			if !ok {
				continue
			}
			before := data.Count()
			synth.CreatePivots(model, data)
			s.logger.Debug("created pivots",
				"entity", model.Entity(),
				"relation", name,
				"added", data.Count()-before)
		}
	}
}

// fill shapes every record for storage. Related-id lists kept under an
// entity name that is not a declared field are dropped once pivots exist.
func (s *Store) fill(data types.NormalizedData) error {
	for _, entity := range data.Entities() {
		model, err := s.registry.Model(entity)
		if err != nil {
			return err
		}

		var scratch []string
		for _, rel := range model.Relations() {
			related := rel.Related().Entity()
			if _, declared := model.Field(related); !declared {
				scratch = append(scratch, related)
			}
		}

		for key, rec := range data[entity] {
			filled := model.Fill(rec)
			for _, name := range scratch {
				delete(filled, name)
			}
			data[entity][key] = filled
		}
	}
	return nil
}
