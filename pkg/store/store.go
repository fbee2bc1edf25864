// Package store holds the in-memory and on-disk state of a single named
// tick store: a symbol's updates, its backing .dtf file, and whether its
// updates currently live in memory.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/erismart/tectonic/pkg/dtf"
)

// Store is one named collection of updates, backed by a <folder>/<name>.dtf
// file. Size tracks the true record count even when InMemory is false and V
// is empty.
type Store struct {
	Name     string
	Folder   string
	InMemory bool
	Size     uint64
	V        []dtf.Update
}

// New returns a Store for name rooted at folder, with no updates loaded.
func New(name, folder string) *Store {
	return &Store{Name: name, Folder: folder}
}

func (s *Store) path() string {
	return filepath.Join(s.Folder, s.Name+".dtf")
}

// Add appends up to the in-memory vector and increments Size.
func (s *Store) Add(up dtf.Update) {
	s.Size++
	s.V = append(s.V, up)
}

// Flush writes the in-memory updates to disk. If the backing file already
// exists, it appends only the updates newer than the file's current
// maximum timestamp; otherwise it encodes a fresh file.
func (s *Store) Flush() error {
	if err := os.MkdirAll(s.Folder, 0o755); err != nil {
		return fmt.Errorf("store: create folder %s: %w", s.Folder, err)
	}

	path := s.path()
	if _, err := os.Stat(path); err == nil {
		if _, err := dtf.Append(path, s.V); err != nil {
			return fmt.Errorf("store: flush append: %w", err)
		}
		return nil
	}

	if err := dtf.Encode(path, s.Name, s.V); err != nil {
		return fmt.Errorf("store: flush encode: %w", err)
	}
	return nil
}

// Load reads the updates from the backing file into memory, if they are
// not already in memory. When no backing file exists yet, the in-memory
// buffer is authoritative and the store is marked InMemory as it is.
func (s *Store) Load() error {
	if s.InMemory {
		return nil
	}
	path := s.path()
	if _, err := os.Stat(path); err != nil {
		s.InMemory = true
		return nil
	}
	updates, err := dtf.Decode(path)
	if err != nil {
		return fmt.Errorf("store: load: %w", err)
	}
	s.V = updates
	s.Size = uint64(len(updates))
	s.InMemory = true
	return nil
}

// LoadSizeFromFile refreshes Size from the backing file's header, without
// loading the updates themselves.
func (s *Store) LoadSizeFromFile() error {
	size, err := dtf.GetSize(s.path())
	if err != nil {
		return fmt.Errorf("store: load size: %w", err)
	}
	s.Size = size
	return nil
}

// Clear drops the in-memory updates and reloads Size from disk.
func (s *Store) Clear() error {
	s.V = nil
	s.InMemory = false
	return s.LoadSizeFromFile()
}
