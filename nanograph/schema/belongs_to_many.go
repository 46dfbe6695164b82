package schema

import (
	"github.com/arthur-debert/nanograph/types"
)

// BelongsToMany relates two models through a pivot model whose records each
// hold one edge: foreignPivotKey points at the parent's parentKey and
// relatedPivotKey at the related model's relatedKey.
type BelongsToMany struct {
	relation

	related *Model
	pivot   *Model

	foreignPivotKey string
	relatedPivotKey string
	parentKey       string
	relatedKey      string

	// records is a structural placeholder; instances never keep related
	// records here.
	records types.Collection
}

var (
	_ RelationType     = (*BelongsToMany)(nil)
	_ PivotSynthesizer = (*BelongsToMany)(nil)
)

// NewBelongsToMany resolves related and pivot through model and stores the
// key names verbatim. Unresolvable references fail with *ResolutionError.
func NewBelongsToMany(
	model *Model,
	related Ref,
	pivot Ref,
	foreignPivotKey string,
	relatedPivotKey string,
	parentKey string,
	relatedKey string,
) (*BelongsToMany, error) {
	relatedModel, err := model.Relation(related)
	if err != nil {
		return nil, err
	}
	pivotModel, err := model.Relation(pivot)
	if err != nil {
		return nil, err
	}

	return &BelongsToMany{
		relation:        relation{model: model},
		related:         relatedModel,
		pivot:           pivotModel,
		foreignPivotKey: foreignPivotKey,
		relatedPivotKey: relatedPivotKey,
		parentKey:       parentKey,
		relatedKey:      relatedKey,
		records:         types.Collection{},
	}, nil
}

// Related returns the related model
func (b *BelongsToMany) Related() *Model { return b.related }

// Pivot returns the pivot model
func (b *BelongsToMany) Pivot() *Model { return b.pivot }

// ForeignPivotKey is the pivot field pointing at the parent
func (b *BelongsToMany) ForeignPivotKey() string { return b.foreignPivotKey }

// RelatedPivotKey is the pivot field pointing at the related record
func (b *BelongsToMany) RelatedPivotKey() string { return b.relatedPivotKey }

// ParentKey is the parent field referenced by the pivot
func (b *BelongsToMany) ParentKey() string { return b.parentKey }

// RelatedKey is the related field referenced by the pivot
func (b *BelongsToMany) RelatedKey() string { return b.relatedKey }

// Normalize keeps sequences and treats anything else as no related ids
func (b *BelongsToMany) Normalize(value types.Value) types.Value {
	if value.IsSequence() {
		return value
	}
	return types.List()
}

// Fill keeps only the object elements of a sequence
func (b *BelongsToMany) Fill(value types.Value) types.Value {
	if !value.IsSequence() {
		return types.List()
	}

	kept := make([]types.Value, 0, value.Len())
	for _, item := range value.Items() {
		if item.IsObject() {
			kept = append(kept, item)
		}
	}
	return types.List(kept...)
}

// Attach does nothing: many-to-many keys live in pivot records, written by
// CreatePivots.
func (b *BelongsToMany) Attach(_ types.Value, _ types.Record, _ types.NormalizedData) {}

// Load returns the raw related records of record. The pivot partition is
// queried first; the related partition is only queried when at least one
// pivot points at record.
func (b *BelongsToMany) Load(repo Repo, record types.Record, load *Load) (types.Collection, error) {
	pivots, err := repo.Query(b.pivot.Entity()).
		Where(b.foreignPivotKey, record.Get(b.parentKey)).
		Get()
	if err != nil {
		return nil, err
	}

	if len(pivots) == 0 {
		return types.Collection{}, nil
	}

	relatedIDs := distinct(pivots.Pluck(b.relatedPivotKey))

	relatedQuery := repo.Query(b.related.Entity()).WhereIn(b.relatedKey, relatedIDs)

	b.addConstraint(relatedQuery, load)

	return relatedQuery.Get()
}

// Make builds one related instance per raw record, keeping duplicates
func (b *BelongsToMany) Make(value types.Value, _ types.Record, _ string) (any, error) {
	items := value.Items()
	if len(items) == 0 {
		return []*Instance{}, nil
	}

	instances := make([]*Instance, 0, len(items))
	for _, item := range items {
		inst, err := b.related.New(item.Object())
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// CreatePivots synthesizes pivot records for every parent record in data
// that lists related ids under the related entity's name. data is updated
// in place and returned.
func (b *BelongsToMany) CreatePivots(parent *Model, data types.NormalizedData) types.NormalizedData {
	records := data[parent.Entity()]
	for _, key := range types.SortedKeys(records) {
		record := records[key]
		related := record.Get(b.related.Entity())

		if !related.IsSequence() || related.Len() == 0 {
			continue
		}

		b.CreatePivotRecord(data, record, related.Items())
	}
	return data
}

// CreatePivotRecord upserts one pivot record per related id, unless record
// has no parent key value. The pivot key
// is the parent key value and the related id joined by an underscore, so
// repeated synthesis overwrites rather than duplicates.
func (b *BelongsToMany) CreatePivotRecord(data types.NormalizedData, record types.Record, relatedIDs []types.Value) {
	parentID := record.Get(b.parentKey)
	if parentID.IsMissing() || parentID.IsNull() {
		return
	}

	for _, id := range relatedIDs {
		if id.IsObject() {
			id = id.Object().Get(b.relatedKey)
		}
		if id.IsMissing() || id.IsNull() {
			continue
		}

		pivotKey := parentID.Key() + "_" + id.Key()

		data.Put(b.pivot.Entity(), pivotKey, types.Record{
			b.pivot.PrimaryKey(): types.String(pivotKey),
			b.foreignPivotKey:    parentID,
			b.relatedPivotKey:    id,
		})
	}
}

// distinct drops repeated, missing and null values, keeping first occurrences
func distinct(values []types.Value) []types.Value {
	seen := make(map[string]struct{}, len(values))
	out := make([]types.Value, 0, len(values))
	for _, v := range values {
		if v.IsMissing() || v.IsNull() {
			continue
		}
		if _, ok := seen[v.Key()]; ok {
			continue
		}
		seen[v.Key()] = struct{}{}
		out = append(out, v)
	}
	return out
}
