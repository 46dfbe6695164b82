package types

// Record is one row of raw field data for one entity instance
type Record map[string]Value

// Get returns the value stored under field, or Missing when absent
func (r Record) Get(field string) Value {
	if r == nil {
		return Missing()
	}
	return r[field]
}

// Has reports whether field is present, including explicit nulls
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Clone returns a deep copy of r
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether both records hold the same fields with equal values
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Native converts r into a map of plain Go values
func (r Record) Native() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if v.IsMissing() {
			continue
		}
		out[k] = v.Native()
	}
	return out
}

// RecordFrom converts a decoded map into a Record
func RecordFrom(raw map[string]any) (Record, error) {
	v, err := From(raw)
	if err != nil {
		return nil, err
	}
	return v.Object(), nil
}

// Collection is an ordered sequence of raw records returned by a query
type Collection []Record

// Values wraps every record as an object Value
func (c Collection) Values() Value {
	items := make([]Value, len(c))
	for i, rec := range c {
		items[i] = Object(rec)
	}
	return List(items...)
}

// Pluck returns the value of field for every record, in order
func (c Collection) Pluck(field string) []Value {
	out := make([]Value, len(c))
	for i, rec := range c {
		out[i] = rec.Get(field)
	}
	return out
}

// NormalizedData maps entity name to identity key to record. It is the flat
// store update produced by one normalization pass.
type NormalizedData map[string]map[string]Record

// Put stores rec under entity and key, replacing whatever was there
func (d NormalizedData) Put(entity, key string, rec Record) {
	partition, ok := d[entity]
	if !ok {
		partition = make(map[string]Record)
		d[entity] = partition
	}
	partition[key] = rec
}

// Get returns the record stored under entity and key
func (d NormalizedData) Get(entity, key string) (Record, bool) {
	rec, ok := d[entity][key]
	return rec, ok
}

// Entities returns the entity names present, sorted
func (d NormalizedData) Entities() []string {
	return SortedKeys(d)
}

// Count returns the number of records held across all entities
func (d NormalizedData) Count() int {
	n := 0
	for _, partition := range d {
		n += len(partition)
	}
	return n
}

// Native converts the data into nested maps of plain Go values
func (d NormalizedData) Native() map[string]any {
	out := make(map[string]any, len(d))
	for entity, partition := range d {
		records := make(map[string]any, len(partition))
		for key, rec := range partition {
			records[key] = rec.Native()
		}
		out[entity] = records
	}
	return out
}
