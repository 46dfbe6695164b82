package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanograph/nanograph/storage"
	"github.com/arthur-debert/nanograph/types"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}
	return path
}

func TestReadSeed(t *testing.T) {
	path := writeSeed(t, `
users:
  - id: 1
    name: Alice
    roles: [10, 20]
roles:
  id: 30
  name: viewer
`)

	seed, err := storage.ReadSeed(path)
	if err != nil {
		t.Fatalf("read seed: %v", err)
	}

	if diff := cmp.Diff([]string{"users", "roles"}, seed.Entities); diff != "" {
		t.Errorf("entity order mismatch (-want +got):\n%s", diff)
	}

	want := types.List(types.Object(types.Record{
		"id":    types.Int(1),
		"name":  types.String("Alice"),
		"roles": types.List(types.Int(10), types.Int(20)),
	}))
	if diff := cmp.Diff(want, seed.Inputs["users"]); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}
	if !seed.Inputs["roles"].IsObject() {
		t.Errorf("single record should decode as an object, got %s", seed.Inputs["roles"].Kind())
	}
}

func TestParseSeedJSON(t *testing.T) {
	seed, err := storage.ParseSeed([]byte(`{"permissions": [{"id": 100, "name": "read"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"permissions"}, seed.Entities); diff != "" {
		t.Errorf("entities mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSeedErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"not a mapping", "- 1\n- 2\n", "sequence"},
		{"invalid yaml", "users: [", "failed to parse seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.ParseSeed([]byte(tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	seed, err := storage.ParseSeed(nil)
	if err != nil || len(seed.Entities) != 0 {
		t.Errorf("empty seed: %v, %v", seed, err)
	}
}

func TestReadSeedMissingFile(t *testing.T) {
	_, err := storage.ReadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "seed file not found") {
		t.Errorf("expected not found error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected error to wrap os.ErrNotExist, got %v", err)
	}
}

func TestReadSeedWaitsForWriter(t *testing.T) {
	path := writeSeed(t, "users: []\n")

	writer := flock.New(path + ".lock")
	if err := writer.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}
	t.Cleanup(func() { _ = writer.Unlock() })

	if _, err := storage.ReadSeed(path); err == nil {
		t.Fatal("expected lock timeout while a writer holds the lock")
	}

	if err := writer.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := storage.ReadSeed(path); err != nil {
		t.Errorf("read after unlock: %v", err)
	}
}
