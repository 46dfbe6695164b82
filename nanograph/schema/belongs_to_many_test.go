package schema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanograph/nanograph/query"
	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/nanograph/storage"
	"github.com/arthur-debert/nanograph/types"
)

// newUniverse declares users and roles joined through role_user
func newUniverse(t *testing.T) (*schema.Registry, *schema.BelongsToMany) {
	t.Helper()

	users := schema.NewModel("users", func(d *schema.Definer) schema.Fields {
		return schema.Fields{
			"id":   d.Attr(types.Missing()),
			"name": d.Attr(types.String("")),
			"roles": d.BelongsToMany(
				schema.Named("roles"), schema.Named("role_user"),
				"user_id", "role_id", "id", "id",
			),
		}
	})
	roles := schema.NewModel("roles", func(d *schema.Definer) schema.Fields {
		return schema.Fields{
			"id":   d.Attr(types.Missing()),
			"name": d.Attr(types.String("")),
		}
	})
	roleUser := schema.NewModel("role_user", func(d *schema.Definer) schema.Fields {
		return schema.Fields{
			"id":      d.Attr(types.Missing()),
			"user_id": d.Attr(types.Null()),
			"role_id": d.Attr(types.Null()),
		}
	})

	registry := schema.NewRegistry()
	if err := registry.Register(users, roles, roleUser); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Boot(); err != nil {
		t.Fatalf("boot: %v", err)
	}

	field, ok := users.Field("roles")
	if !ok {
		t.Fatal("users has no roles field")
	}
	rel, ok := field.(*schema.BelongsToMany)
	if !ok {
		t.Fatalf("roles is %T, want *schema.BelongsToMany", field)
	}
	return registry, rel
}

// countingRepo records which partitions were queried
type countingRepo struct {
	state   *storage.State
	queried []string
}

func (r *countingRepo) Query(entity string) *query.Query {
	r.queried = append(r.queried, entity)
	return r.state.Query(entity)
}

func mustMerge(t *testing.T, state *storage.State, data types.NormalizedData) {
	t.Helper()
	if err := state.Merge(data); err != nil {
		t.Fatalf("merge: %v", err)
	}
}

func TestBelongsToManyConstruction(t *testing.T) {
	_, rel := newUniverse(t)

	if rel.Related().Entity() != "roles" || rel.Pivot().Entity() != "role_user" {
		t.Errorf("resolved %s through %s", rel.Related().Entity(), rel.Pivot().Entity())
	}
	got := []string{rel.ForeignPivotKey(), rel.RelatedPivotKey(), rel.ParentKey(), rel.RelatedKey()}
	if diff := cmp.Diff([]string{"user_id", "role_id", "id", "id"}, got); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if rel.Model().Entity() != "users" {
		t.Errorf("owner = %s", rel.Model().Entity())
	}
}

func TestBelongsToManyResolutionError(t *testing.T) {
	orphan := schema.NewModel("orphans", nil)
	_, err := schema.NewBelongsToMany(orphan, schema.Named("roles"), schema.Named("role_user"), "a", "b", "c", "d")
	var resErr *schema.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError for unregistered model, got %v", err)
	}

	users := schema.NewModel("users", func(d *schema.Definer) schema.Fields {
		return schema.Fields{
			"roles": d.BelongsToMany(schema.Named("roles"), schema.Named("missing"), "a", "b", "c", "d"),
		}
	})
	roles := schema.NewModel("roles", nil)

	registry := schema.NewRegistry()
	if err := registry.Register(users, roles); err != nil {
		t.Fatalf("register: %v", err)
	}
	err = registry.Boot()
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError from Boot, got %v", err)
	}
	if resErr.Identifier != "missing" {
		t.Errorf("identifier = %q", resErr.Identifier)
	}
	if diff := cmp.Diff([]string{"users", "roles"}, resErr.Known); diff != "" {
		t.Errorf("known mismatch (-want +got):\n%s", diff)
	}
	if users.Booted() {
		t.Error("users should not be booted after a failed boot")
	}
}

func TestBelongsToManyNormalize(t *testing.T) {
	_, rel := newUniverse(t)

	tests := []struct {
		name  string
		input types.Value
		want  types.Value
	}{
		{"empty list", types.List(), types.List()},
		{"string", types.String("x"), types.List()},
		{"missing", types.Missing(), types.List()},
		{"null", types.Null(), types.List()},
		{"object", types.Object(types.Record{"id": types.Int(1)}), types.List()},
		{"ids kept", types.List(types.Int(1), types.Int(2)), types.List(types.Int(1), types.Int(2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, rel.Normalize(tt.input)); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBelongsToManyFill(t *testing.T) {
	_, rel := newUniverse(t)

	first := types.Object(types.Record{"id": types.Int(1)})
	second := types.Object(types.Record{"id": types.Int(2)})

	got := rel.Fill(types.List(first, types.Int(5), types.Null(), second))
	if diff := cmp.Diff(types.List(first, second), got); diff != "" {
		t.Errorf("Fill mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(types.List(), rel.Fill(types.String("x"))); diff != "" {
		t.Errorf("Fill of non-sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestBelongsToManyAttachIsNoop(t *testing.T) {
	_, rel := newUniverse(t)

	record := types.Record{"id": types.Int(1)}
	data := types.NormalizedData{}
	rel.Attach(types.Int(10), record, data)

	if diff := cmp.Diff(types.Record{"id": types.Int(1)}, record); diff != "" {
		t.Errorf("record changed (-want +got):\n%s", diff)
	}
	if data.Count() != 0 {
		t.Errorf("data changed: %v", data.Native())
	}
}

func TestCreatePivots(t *testing.T) {
	registry, rel := newUniverse(t)
	users, _ := registry.Model("users")

	input := func() types.NormalizedData {
		data := types.NormalizedData{}
		data.Put("users", "1", types.Record{
			"id":    types.Int(1),
			"roles": types.List(types.Int(10), types.Object(types.Record{"id": types.Int(20)}), types.Null()),
		})
		data.Put("users", "2", types.Record{"id": types.Int(2), "roles": types.List()})
		data.Put("users", "3", types.Record{"id": types.Int(3)})
		return data
	}

	want := map[string]types.Record{
		"1_10": {"id": types.String("1_10"), "user_id": types.Int(1), "role_id": types.Int(10)},
		"1_20": {"id": types.String("1_20"), "user_id": types.Int(1), "role_id": types.Int(20)},
	}

	data := rel.CreatePivots(users, input())
	if diff := cmp.Diff(want, data["role_user"]); diff != "" {
		t.Errorf("pivots mismatch (-want +got):\n%s", diff)
	}

	t.Run("idempotent", func(t *testing.T) {
		again := rel.CreatePivots(users, rel.CreatePivots(users, input()))
		if diff := cmp.Diff(want, again["role_user"]); diff != "" {
			t.Errorf("repeated pivots mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("related id order does not matter", func(t *testing.T) {
		data := types.NormalizedData{}
		data.Put("users", "1", types.Record{
			"id":    types.Int(1),
			"roles": types.List(types.Int(20), types.Int(10)),
		})
		got := rel.CreatePivots(users, data)
		if diff := cmp.Diff(want, got["role_user"]); diff != "" {
			t.Errorf("pivots mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCreatePivotRecordKeysUseCanonicalForm(t *testing.T) {
	_, rel := newUniverse(t)

	data := types.NormalizedData{}
	rel.CreatePivotRecord(data, types.Record{"id": types.String("u1")}, []types.Value{types.Number(7.0), types.String("admin")})

	got := types.SortedKeys(data["role_user"])
	if diff := cmp.Diff([]string{"u1_7", "u1_admin"}, got); diff != "" {
		t.Errorf("pivot keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatePivotRecordSkipsRecordsWithoutParentKey(t *testing.T) {
	_, rel := newUniverse(t)

	data := types.NormalizedData{}
	rel.CreatePivotRecord(data, types.Record{"name": types.String("anon")}, []types.Value{types.Int(10)})
	rel.CreatePivotRecord(data, types.Record{"id": types.Null()}, []types.Value{types.Int(20)})

	if n := len(data["role_user"]); n != 0 {
		t.Errorf("expected no pivots, got %v", data.Native())
	}
}

func hydrateState(t *testing.T) *storage.State {
	t.Helper()
	state := storage.New("users", "roles", "role_user")
	mustMerge(t, state, types.NormalizedData{
		"role_user": {
			"1_10": {"id": types.String("1_10"), "user_id": types.Int(1), "role_id": types.Int(10)},
			"1_20": {"id": types.String("1_20"), "user_id": types.Int(1), "role_id": types.Int(20)},
		},
		"roles": {
			"10": {"id": types.Int(10), "name": types.String("A")},
			"20": {"id": types.Int(20), "name": types.String("B")},
			"30": {"id": types.Int(30), "name": types.String("C")},
		},
	})
	return state
}

func TestBelongsToManyLoad(t *testing.T) {
	_, rel := newUniverse(t)
	repo := &countingRepo{state: hydrateState(t)}

	parent := types.Record{"id": types.Int(1), "name": types.String("ada")}
	got, err := rel.Load(repo, parent, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := types.Collection{
		{"id": types.Int(10), "name": types.String("A")},
		{"id": types.Int(20), "name": types.String("B")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("load mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"role_user", "roles"}, repo.queried); diff != "" {
		t.Errorf("queried partitions mismatch (-want +got):\n%s", diff)
	}

	made, err := rel.Make(got.Values(), parent, "roles")
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	instances := made.([]*schema.Instance)
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	for i, inst := range instances {
		if diff := cmp.Diff(want[i], types.Record{"id": inst.ID(), "name": inst.Get("name")}); diff != "" {
			t.Errorf("instance %d mismatch (-want +got):\n%s", i, diff)
		}
		if inst.Model() != rel.Related() {
			t.Errorf("instance %d built from %s", i, inst.Model().Entity())
		}
	}
}

func TestBelongsToManyLoadShortCircuits(t *testing.T) {
	_, rel := newUniverse(t)
	repo := &countingRepo{state: hydrateState(t)}

	got, err := rel.Load(repo, types.Record{"id": types.String("2")}, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no related records, got %v", got)
	}
	if diff := cmp.Diff([]string{"role_user"}, repo.queried); diff != "" {
		t.Errorf("related partition should not be queried (-want +got):\n%s", diff)
	}
}

func TestBelongsToManyLoadConstraints(t *testing.T) {
	_, rel := newUniverse(t)
	repo := &countingRepo{state: hydrateState(t)}

	load := schema.NewLoad("roles", func(q *query.Query) {
		q.OrderBy("name", true).Limit(1)
	})
	got, err := rel.Load(repo, types.Record{"id": types.Int(1)}, load)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := types.Collection{{"id": types.Int(20), "name": types.String("B")}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("constrained load mismatch (-want +got):\n%s", diff)
	}
}

func TestBelongsToManyLoadPropagatesQueryErrors(t *testing.T) {
	_, rel := newUniverse(t)
	repo := &countingRepo{state: storage.New("users")}

	_, err := rel.Load(repo, types.Record{"id": types.Int(1)}, nil)
	var partErr *storage.PartitionError
	if !errors.As(err, &partErr) {
		t.Fatalf("expected PartitionError, got %v", err)
	}
	if partErr.Entity != "role_user" {
		t.Errorf("entity = %q", partErr.Entity)
	}
}

func TestBelongsToManyMake(t *testing.T) {
	_, rel := newUniverse(t)

	made, err := rel.Make(types.List(), nil, "roles")
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if got := made.([]*schema.Instance); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}

	dup := types.Object(types.Record{"id": types.Int(10), "name": types.String("A")})
	made, err = rel.Make(types.List(dup, dup), nil, "roles")
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if got := made.([]*schema.Instance); len(got) != 2 {
		t.Errorf("duplicates should be kept, got %d instances", len(got))
	}
}
