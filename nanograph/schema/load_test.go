package schema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanograph/nanograph/schema"
)

// loadTree renders loads as name -> children for comparison
func loadTree(loads []*schema.Load) map[string]any {
	out := make(map[string]any, len(loads))
	for _, l := range loads {
		out[l.Name] = loadTree(l.With)
	}
	return out
}

func TestParseWith(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  map[string]any
	}{
		{
			name:  "nothing",
			paths: nil,
			want:  map[string]any{},
		},
		{
			name:  "single",
			paths: []string{"roles"},
			want:  map[string]any{"roles": map[string]any{}},
		},
		{
			name:  "shared prefix",
			paths: []string{"roles.permissions", "roles.users", "teams"},
			want: map[string]any{
				"roles": map[string]any{
					"permissions": map[string]any{},
					"users":       map[string]any{},
				},
				"teams": map[string]any{},
			},
		},
		{
			name:  "blank segments ignored",
			paths: []string{" roles..permissions ", ""},
			want: map[string]any{
				"roles": map[string]any{"permissions": map[string]any{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, loadTree(schema.ParseWith(tt.paths...))); diff != "" {
				t.Errorf("ParseWith mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadNest(t *testing.T) {
	l := schema.NewLoad("roles").Nest(schema.NewLoad("permissions"))
	if l.Child("permissions") == nil {
		t.Error("expected nested permissions load")
	}
	if l.Child("users") != nil {
		t.Error("unexpected users load")
	}
}
