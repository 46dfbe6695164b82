package query

import (
	"github.com/arthur-debert/nanograph/types"
)

// fieldEquals matches records whose field has the same canonical key as
// value. Missing fields never match.
func fieldEquals(field string, value types.Value) Predicate {
	want := value.Key()
	wantNull := value.IsNull()
	return func(rec types.Record) bool {
		got := rec.Get(field)
		if got.IsMissing() {
			return false
		}
		if got.IsNull() || wantNull {
			return got.IsNull() && wantNull
		}
		return got.Key() == want
	}
}

// fieldIn matches records whose field key is one of values
func fieldIn(field string, values []types.Value) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v.IsMissing() || v.IsNull() {
			continue
		}
		set[v.Key()] = struct{}{}
	}
	return func(rec types.Record) bool {
		got := rec.Get(field)
		if got.IsMissing() || got.IsNull() {
			return false
		}
		_, ok := set[got.Key()]
		return ok
	}
}
