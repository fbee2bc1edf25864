// Package bootstrap builds a fresh session.State for a newly accepted
// connection by scanning the data folder for existing .dtf files and
// registering a Store for each, without loading any update payloads.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/erismart/tectonic/pkg/dtf"
	"github.com/erismart/tectonic/pkg/headercache"
	"github.com/erismart/tectonic/pkg/session"
	"github.com/erismart/tectonic/pkg/store"
)

// State builds a session.State for settings, ensuring the data folder
// exists, registering the "default" store, and scanning for existing .dtf
// files. cache may be nil, in which case header sizes are always read
// directly from disk.
func State(settings session.Settings, cache *headercache.Cache) (*session.State, error) {
	if err := os.MkdirAll(settings.DtfFolder, 0o755); err != nil {
		return nil, fmt.Errorf("bootstrap: create data folder %s: %w", settings.DtfFolder, err)
	}

	state := session.New(settings)

	defaultPath := filepath.Join(settings.DtfFolder, "default.dtf")
	defaultInMemory := true
	if _, err := os.Stat(defaultPath); err == nil {
		defaultInMemory = false
	}
	state.Store["default"] = &store.Store{
		Name:     "default",
		Folder:   settings.DtfFolder,
		InMemory: defaultInMemory,
	}

	entries, err := os.ReadDir(settings.DtfFolder)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: scan %s: %w", settings.DtfFolder, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dtf") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".dtf")
		path := filepath.Join(settings.DtfFolder, entry.Name())

		size, err := headerSize(path, cache)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: header size for %s: %w", path, err)
		}

		state.Store[name] = &store.Store{
			Name:     name,
			Folder:   settings.DtfFolder,
			Size:     size,
			InMemory: false,
		}
	}

	return state, nil
}

func headerSize(path string, cache *headercache.Cache) (uint64, error) {
	if cache == nil {
		return dtf.GetSize(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if size, ok := cache.Lookup(path, info); ok {
		return size, nil
	}

	size, err := dtf.GetSize(path)
	if err != nil {
		return 0, err
	}
	if err := cache.Store(path, info, size); err != nil {
		return 0, fmt.Errorf("bootstrap: cache store for %s: %w", path, err)
	}
	return size, nil
}
