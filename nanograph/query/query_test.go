package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanograph/types"
)

// memorySource serves fixed partitions and counts reads per entity
type memorySource struct {
	partitions map[string][]types.Record
	reads      map[string]int
}

var errUnknown = errors.New("unknown partition")

func (s *memorySource) Records(entity string) ([]types.Record, error) {
	if s.reads == nil {
		s.reads = make(map[string]int)
	}
	s.reads[entity]++
	recs, ok := s.partitions[entity]
	if !ok {
		return nil, errUnknown
	}
	return recs, nil
}

func newSource() *memorySource {
	return &memorySource{
		partitions: map[string][]types.Record{
			"users": {
				{"id": types.Int(3), "name": types.String("carol"), "age": types.Int(41), "active": types.Bool(true)},
				{"id": types.Int(1), "name": types.String("alice"), "age": types.Int(30), "active": types.Bool(false)},
				{"id": types.Int(2), "name": types.String("bob"), "age": types.Int(30), "nick": types.Null()},
				{"id": types.String("4"), "name": types.String("dave"), "age": types.Int(9)},
			},
		},
	}
}

func ids(c types.Collection) []string {
	out := make([]string, len(c))
	for i, rec := range c {
		out[i] = rec.Get("id").Key()
	}
	return out
}

func TestGetKeepsStoreOrder(t *testing.T) {
	src := newSource()
	got, err := New(src, "users").Get()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"3", "1", "2", "4"}, ids(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestWhere(t *testing.T) {
	tests := []struct {
		name  string
		build func(q *Query) *Query
		want  []string
	}{
		{
			name:  "equality",
			build: func(q *Query) *Query { return q.Where("age", types.Int(30)) },
			want:  []string{"1", "2"},
		},
		{
			name:  "canonical key matches across kinds",
			build: func(q *Query) *Query { return q.Where("id", types.Int(4)) },
			want:  []string{"4"},
		},
		{
			name:  "null matches only explicit null",
			build: func(q *Query) *Query { return q.Where("nick", types.Null()) },
			want:  []string{"2"},
		},
		{
			name: "membership",
			build: func(q *Query) *Query {
				return q.WhereIn("id", []types.Value{types.String("1"), types.Int(4), types.Int(99)})
			},
			want: []string{"1", "4"},
		},
		{
			name: "field predicate",
			build: func(q *Query) *Query {
				return q.WhereFn("age", func(v types.Value) bool {
					n, ok := v.Float()
					return ok && n > 20
				})
			},
			want: []string{"3", "1", "2"},
		},
		{
			name: "conditions are combined with AND",
			build: func(q *Query) *Query {
				return q.Where("age", types.Int(30)).Filter(func(r types.Record) bool {
					name, _ := r.Get("name").Str()
					return name == "bob"
				})
			},
			want: []string{"2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build(New(newSource(), "users")).Get()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderingAndPagination(t *testing.T) {
	t.Run("numeric ordering is stable", func(t *testing.T) {
		got, err := New(newSource(), "users").OrderBy("age", false).Get()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"4", "1", "2", "3"}, ids(got)); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("descending with secondary key", func(t *testing.T) {
		got, err := New(newSource(), "users").OrderBy("age", true).OrderBy("name", true).Get()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"3", "2", "1", "4"}, ids(got)); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("offset and limit", func(t *testing.T) {
		got, err := New(newSource(), "users").OrderBy("name", false).Offset(1).Limit(2).Get()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"2", "3"}, ids(got)); diff != "" {
			t.Errorf("page mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		n, err := New(newSource(), "users").Offset(10).Count()
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("expected 0 results, got %d", n)
		}
	})
}

func TestIndependentHandles(t *testing.T) {
	src := newSource()
	filtered := New(src, "users").Where("name", types.String("alice"))
	plain := New(src, "users")

	a, err := filtered.Get()
	if err != nil {
		t.Fatal(err)
	}
	b, err := plain.Get()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 1 || len(b) != 4 {
		t.Errorf("filters leaked between handles: got %d and %d results", len(a), len(b))
	}
}

func TestSourceErrorsPropagate(t *testing.T) {
	_, err := New(newSource(), "ghosts").Get()
	if !errors.Is(err, errUnknown) {
		t.Errorf("expected source error to propagate unchanged, got %v", err)
	}
}

func TestFirst(t *testing.T) {
	rec, ok, err := New(newSource(), "users").Where("name", types.String("bob")).First()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rec.Get("id").Key() != "2" {
		t.Errorf("First: got %v (found=%v)", rec, ok)
	}

	_, ok, err = New(newSource(), "users").Where("name", types.String("nobody")).First()
	if err != nil || ok {
		t.Errorf("First on empty result: found=%v err=%v", ok, err)
	}
}
