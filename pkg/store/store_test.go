package store

import (
	"testing"

	"github.com/erismart/tectonic/pkg/dtf"
)

func TestAddIncrementsSize(t *testing.T) {
	s := New("foo", t.TempDir())
	s.Add(dtf.Update{Ts: 1, Price: 1, Size: 1})
	s.Add(dtf.Update{Ts: 2, Price: 2, Size: 2})
	if s.Size != 2 {
		t.Errorf("Size = %d, want 2", s.Size)
	}
	if len(s.V) != 2 {
		t.Errorf("len(V) = %d, want 2", len(s.V))
	}
}

func TestFlushThenLoad(t *testing.T) {
	dir := t.TempDir()
	s := New("foo", dir)
	s.Add(dtf.Update{Ts: 1, Price: 1, Size: 1})
	s.Add(dtf.Update{Ts: 2, Price: 2, Size: 2})

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	loaded := New("foo", dir)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.InMemory {
		t.Errorf("InMemory = false after Load, want true")
	}
	if loaded.Size != 2 {
		t.Errorf("Size = %d, want 2", loaded.Size)
	}
}

func TestFlushTwiceAppendsOnlyNewer(t *testing.T) {
	dir := t.TempDir()
	s := New("foo", dir)
	s.Add(dtf.Update{Ts: 1, Price: 1, Size: 1})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	s2 := New("foo", dir)
	s2.Add(dtf.Update{Ts: 1, Price: 1, Size: 1}) // same ts, should not duplicate
	s2.Add(dtf.Update{Ts: 2, Price: 2, Size: 2})
	if err := s2.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := s2.LoadSizeFromFile(); err != nil {
		t.Fatalf("LoadSizeFromFile: %v", err)
	}
	if s2.Size != 2 {
		t.Errorf("Size after second flush = %d, want 2", s2.Size)
	}
}

func TestClearResetsBufferAndSize(t *testing.T) {
	dir := t.TempDir()
	s := New("foo", dir)
	s.Add(dtf.Update{Ts: 1, Price: 1, Size: 1})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.InMemory {
		t.Errorf("InMemory = true after Clear, want false")
	}
	if len(s.V) != 0 {
		t.Errorf("V = %v after Clear, want empty", s.V)
	}
	if s.Size != 1 {
		t.Errorf("Size after Clear = %d, want 1 (recomputed from disk)", s.Size)
	}
}
