package headercache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupMissThenHit(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	path := filepath.Join(dir, "foo.dtf")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if _, ok := cache.Lookup(path, info); ok {
		t.Fatalf("Lookup before Store: want miss")
	}

	if err := cache.Store(path, info, 42); err != nil {
		t.Fatalf("Store: %v", err)
	}

	count, ok := cache.Lookup(path, info)
	if !ok {
		t.Fatalf("Lookup after Store: want hit")
	}
	if count != 42 {
		t.Errorf("Lookup count = %d, want 42", count)
	}
}

func TestLookupMissAfterModification(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	path := filepath.Join(dir, "foo.dtf")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := cache.Store(path, info, 42); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := os.WriteFile(path, []byte("different-size-data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	newInfo, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if _, ok := cache.Lookup(path, newInfo); ok {
		t.Errorf("Lookup after modification: want miss, key should not match stale entry")
	}
}
