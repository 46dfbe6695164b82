package testutil

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/nanograph/storage"
	"github.com/arthur-debert/nanograph/types"
)

// IDs returns the canonical identity of each instance, in order
func IDs(instances []*schema.Instance) []string {
	out := make([]string, len(instances))
	for i, inst := range instances {
		out[i] = inst.ID().Key()
	}
	return out
}

// RecordIDs returns the canonical value of field for each record, in order
func RecordIDs(records types.Collection, field string) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Get(field).Key()
	}
	return out
}

// AssertIDs checks the identities of instances, including their order
func AssertIDs(t *testing.T, instances []*schema.Instance, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, IDs(instances)); diff != "" {
		t.Errorf("instance ids mismatch (-want +got):\n%s", diff)
	}
}

// AssertPartitionKeys checks the keys stored in entity's partition,
// regardless of order
func AssertPartitionKeys(t *testing.T, state *storage.State, entity string, want ...string) {
	t.Helper()
	data := state.Snapshot()
	records, ok := data[entity]
	if !ok {
		t.Fatalf("partition %s does not exist", entity)
	}
	sorted := append([]string{}, want...)
	sort.Strings(sorted)
	if diff := cmp.Diff(sorted, types.SortedKeys(records)); diff != "" {
		t.Errorf("%s keys mismatch (-want +got):\n%s", entity, diff)
	}
}
