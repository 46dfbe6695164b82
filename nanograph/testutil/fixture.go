package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/nanograph/storage"
	"github.com/arthur-debert/nanograph/nanograph/store"
	"github.com/arthur-debert/nanograph/types"
)

// Universe gives tests access to the loaded fixture
type Universe struct {
	Store    *store.Store
	Registry *schema.Registry

	// Generated is the identity given to the seed user without an id
	Generated string
}

// Fixture ids, see testdata/universe.yaml
const (
	Alice = "1" // admin and editor
	Bob   = "2" // editor only
	Carol = "3" // no roles

	Admin  = "10" // read, write, delete
	Editor = "20" // read, write
	Viewer = "30" // read, owned by no user

	Read   = "100"
	Write  = "101"
	Delete = "102"
)

// TestdataPath returns the path of a file in the shared testdata directory
func TestdataPath(t *testing.T, name string) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get runtime caller info")
	}
	return filepath.Join(filepath.Dir(filename), "..", "testdata", name)
}

// LoadSchema builds the fixture registry from testdata/schema.yaml
func LoadSchema(t *testing.T) *schema.Registry {
	t.Helper()

	data, err := os.ReadFile(TestdataPath(t, "schema.yaml"))
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}

	var cfg schema.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}

	registry, err := schema.FromConfig(cfg)
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}
	return registry
}

// SequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// LoadUniverse returns a store populated with testdata/universe.yaml
func LoadUniverse(t *testing.T, opts ...store.Option) *Universe {
	t.Helper()

	registry := LoadSchema(t)
	opts = append([]store.Option{store.WithIDFunc(SequentialIDs("gen"))}, opts...)
	s, err := store.New(registry, opts...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	seed, err := storage.ReadSeed(TestdataPath(t, "universe.yaml"))
	if err != nil {
		t.Fatalf("failed to read seed: %v", err)
	}

	for _, entity := range seed.Entities {
		if _, err := s.Insert(entity, seed.Inputs[entity]); err != nil {
			t.Fatalf("failed to insert %s: %v", entity, err)
		}
	}

	return &Universe{
		Store:     s,
		Registry:  registry,
		Generated: "gen-1",
	}
}

// Record returns the stored record of entity under key, failing the test
// when it is absent
func (u *Universe) Record(t *testing.T, entity, key string) types.Record {
	t.Helper()

	rec, found, err := u.Store.State().Get(entity, key)
	if err != nil {
		t.Fatalf("failed to get %s/%s: %v", entity, key, err)
	}
	if !found {
		t.Fatalf("%s/%s not found", entity, key)
	}
	return rec
}
