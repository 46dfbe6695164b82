package nanograph_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanograph/nanograph"
	"github.com/arthur-debert/nanograph/nanograph/testutil"
	"github.com/arthur-debert/nanograph/types"
)

func TestGoDeclaredSchema(t *testing.T) {
	posts := nanograph.NewModel("posts", func(d *nanograph.Definer) nanograph.Fields {
		return nanograph.Fields{
			"id":    d.Attr(types.Missing()),
			"title": d.Attr(types.String("untitled")),
			"tags": d.BelongsToMany(
				nanograph.Named("tags"), nanograph.Named("post_tag"),
				"post_id", "tag_id", "id", "slug",
			),
		}
	})
	tags := nanograph.NewModel("tags", func(d *nanograph.Definer) nanograph.Fields {
		return nanograph.Fields{"label": d.Attr(types.Missing())}
	}, nanograph.WithPrimaryKey("slug"))
	postTag := nanograph.NewModel("post_tag", nil)

	s, err := nanograph.New(nanograph.MustBoot(posts, tags, postTag))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	input := types.MustFrom(map[string]any{
		"id": 1,
		"tags": []any{
			map[string]any{"slug": "go", "label": "Go"},
			map[string]any{"slug": "orm", "label": "ORM"},
		},
	})
	if _, err := s.Insert("posts", input); err != nil {
		t.Fatalf("insert: %v", err)
	}

	post, found, err := s.Find("posts", types.Int(1), nanograph.ParseWith("tags")...)
	if err != nil || !found {
		t.Fatalf("find: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(types.String("untitled"), post.Get("title")); diff != "" {
		t.Errorf("title mismatch (-want +got):\n%s", diff)
	}
	testutil.AssertIDs(t, post.Related("tags"), "go", "orm")
	testutil.AssertPartitionKeys(t, s.State(), "post_tag", "1_go", "1_orm")
}

func TestLoadSchemaAndSeed(t *testing.T) {
	registry, err := nanograph.LoadSchema(testutil.TestdataPath(t, "schema.yaml"))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	s, err := nanograph.New(registry, nanograph.WithIDFunc(testutil.SequentialIDs("seed")))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	merged, err := nanograph.Seed(s, testutil.TestdataPath(t, "universe.yaml"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	want := map[string]int{
		"users":           4,
		"roles":           3,
		"permissions":     3,
		"role_user":       3,
		"permission_role": 6,
	}
	got := map[string]int{}
	for _, entity := range merged.Entities() {
		got[entity] = len(merged[entity])
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("seeded counts mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSchemaErrors(t *testing.T) {
	if _, err := nanograph.ParseSchema([]byte("models: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := nanograph.LoadSchema("does-not-exist.yaml"); err == nil {
		t.Error("expected read error")
	}
}
