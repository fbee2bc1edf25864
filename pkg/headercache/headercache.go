// Package headercache is a badger-backed cache of .dtf file header record
// counts, keyed by path, modification time, and size. Bootstrap consults it
// before reading a file's header off disk so that reopening the same data
// folder repeatedly (one scan per new connection) doesn't re-read every
// header from every store file every time.
package headercache

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Cache wraps a badger database dedicated to header-count lookups.
type Cache struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("headercache: open %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying badger database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func key(path string, info os.FileInfo) []byte {
	return []byte(fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size()))
}

// Lookup returns the cached record count for path, given its current
// os.FileInfo. ok is false on a cache miss (including when the file's
// mtime/size no longer match what was cached).
func (c *Cache) Lookup(path string, info os.FileInfo) (count uint64, ok bool) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(path, info))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("headercache: corrupt value for %s", path)
			}
			count = binary.BigEndian.Uint64(val)
			ok = true
			return nil
		})
	})
	if err != nil {
		return 0, false
	}
	return count, ok
}

// Store records count for path under its current os.FileInfo.
func (c *Cache) Store(path string, info os.FileInfo, count uint64) error {
	var val [8]byte
	binary.BigEndian.PutUint64(val[:], count)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(path, info), val[:])
	})
}
