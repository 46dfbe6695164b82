package schema

import (
	"github.com/arthur-debert/nanograph/nanograph/query"
	"github.com/arthur-debert/nanograph/types"
)

// Repo hands out independent query handles, one partition at a time.
// storage.State satisfies it.
type Repo interface {
	Query(entity string) *query.Query
}

// RelationType is a FieldType describing an association to another model
type RelationType interface {
	FieldType

	// Related returns the model on the other side of the association
	Related() *Model

	// Attach writes the foreign key for key into record during normalization
	Attach(key types.Value, record types.Record, data types.NormalizedData)

	// Load queries the raw related records of record through repo, applying
	// the eager-load constraints of load
	Load(repo Repo, record types.Record, load *Load) (types.Collection, error)
}

// KeyedRelation is implemented by relations that reference related records
// through a field other than the related primary key
type KeyedRelation interface {
	RelatedKey() string
}

// PivotSynthesizer is implemented by relations that store their edges in a
// separate association partition
type PivotSynthesizer interface {
	CreatePivots(parent *Model, data types.NormalizedData) types.NormalizedData
}

// relation holds what every relation variant shares
type relation struct {
	model *Model
}

// Model returns the model owning the relation
func (r relation) Model() *Model {
	return r.model
}

// addConstraint applies the caller's eager-load constraints to q
func (r relation) addConstraint(q *query.Query, load *Load) {
	if load == nil {
		return
	}
	for _, constraint := range load.Constraints {
		if constraint != nil {
			constraint(q)
		}
	}
}
