// Package query provides filtered, ordered and paginated reads over one
// entity partition of the store. A Query is a builder: conditions accumulate
// until Get materializes the matching records.
package query

import (
	"github.com/arthur-debert/nanograph/types"
)

// Source exposes raw records of a named partition in store order
type Source interface {
	Records(entity string) ([]types.Record, error)
}

// Predicate reports whether a record should be kept
type Predicate func(rec types.Record) bool

// OrderClause represents a single ORDER BY clause
type OrderClause struct {
	Field      string
	Descending bool
}

// Query is a handle restricted to one partition. Handles never share state,
// so filters added to one do not leak into another.
type Query struct {
	source     Source
	entity     string
	predicates []Predicate
	orderBy    []OrderClause
	limit      *int
	offset     *int
	err        error
}

// New creates a query over entity's partition of source
func New(source Source, entity string) *Query {
	return &Query{source: source, entity: entity}
}

// Entity returns the partition this query reads from
func (q *Query) Entity() string {
	return q.entity
}

// Where keeps records whose field equals value. Equality uses the canonical
// key, so the number 1 matches the string "1"; an explicit null only matches
// null.
func (q *Query) Where(field string, value types.Value) *Query {
	return q.Filter(fieldEquals(field, value))
}

// WhereIn keeps records whose field is a member of values
func (q *Query) WhereIn(field string, values []types.Value) *Query {
	return q.Filter(fieldIn(field, values))
}

// WhereFn keeps records for which fn returns true on the field value
func (q *Query) WhereFn(field string, fn func(types.Value) bool) *Query {
	return q.Filter(func(rec types.Record) bool {
		return fn(rec.Get(field))
	})
}

// Filter keeps records satisfying an arbitrary predicate
func (q *Query) Filter(p Predicate) *Query {
	q.predicates = append(q.predicates, p)
	return q
}

// WhereClause adds conditions written as "field op value" joined by AND,
// with ? placeholders bound to args. A malformed clause makes Get fail.
func (q *Query) WhereClause(clause string, args ...interface{}) *Query {
	if q.err != nil {
		return q
	}
	evaluator, err := newWhereEvaluator(clause, args...)
	if err != nil {
		q.err = err
		return q
	}
	return q.Filter(evaluator.matches)
}

// OrderBy appends a sort key. Ties keep store order.
func (q *Query) OrderBy(field string, descending bool) *Query {
	q.orderBy = append(q.orderBy, OrderClause{Field: field, Descending: descending})
	return q
}

// Limit caps the number of results. Negative values mean no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = &n
	return q
}

// Offset skips the first n results. Negative values mean no offset.
func (q *Query) Offset(n int) *Query {
	q.offset = &n
	return q
}

// Get materializes the filtered view as an ordered collection
func (q *Query) Get() (types.Collection, error) {
	if q.err != nil {
		return nil, q.err
	}

	records, err := q.source.Records(q.entity)
	if err != nil {
		return nil, err
	}

	result := make(types.Collection, 0, len(records))
	for _, rec := range records {
		if q.matches(rec) {
			result = append(result, rec)
		}
	}

	if len(q.orderBy) > 0 {
		sortRecords(result, q.orderBy)
	}

	return paginate(result, q.offset, q.limit), nil
}

// First returns the first matching record, if any
func (q *Query) First() (types.Record, bool, error) {
	result, err := q.Get()
	if err != nil || len(result) == 0 {
		return nil, false, err
	}
	return result[0], true, nil
}

// Count returns the number of matching records after pagination
func (q *Query) Count() (int, error) {
	result, err := q.Get()
	if err != nil {
		return 0, err
	}
	return len(result), nil
}

func (q *Query) matches(rec types.Record) bool {
	for _, p := range q.predicates {
		if !p(rec) {
			return false
		}
	}
	return true
}

func paginate(result types.Collection, offset, limit *int) types.Collection {
	if offset != nil && *offset > 0 {
		if *offset >= len(result) {
			return types.Collection{}
		}
		result = result[*offset:]
	}

	if limit != nil && *limit >= 0 && *limit < len(result) {
		result = result[:*limit]
	}
	return result
}
