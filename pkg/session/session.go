// Package session holds the per-connection state of the tick-database
// protocol: the set of stores known to this connection, which one is
// selected, whether BULKADD mode is active, and the autoflush settings
// that govern it.
package session

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/erismart/tectonic/pkg/dtf"
	"github.com/erismart/tectonic/pkg/store"
)

// Settings controls autoflush behavior for a connection's stores.
type Settings struct {
	Autoflush     bool
	DtfFolder     string
	FlushInterval uint32
}

// State is the private, per-connection view of the server: every protocol
// operation in pkg/dispatch reads and mutates one of these. It is not safe
// for concurrent use; each TCP connection owns exactly one.
type State struct {
	IsAdding         bool
	Store            map[string]*store.Store
	CurrentStoreName string
	Settings         Settings
}

// New returns a State with an empty store map and BULKADD mode off.
func New(settings Settings) *State {
	return &State{
		IsAdding:         false,
		Store:            make(map[string]*store.Store),
		CurrentStoreName: "default",
		Settings:         settings,
	}
}

func (s *State) current() (*store.Store, error) {
	st, ok := s.Store[s.CurrentStoreName]
	if !ok {
		return nil, fmt.Errorf("session: current store %q not found", s.CurrentStoreName)
	}
	return st, nil
}

// Insert adds up to the named store, independent of which store is
// currently selected.
func (s *State) Insert(up dtf.Update, storeName string) error {
	st, ok := s.Store[storeName]
	if !ok {
		return fmt.Errorf("session: store %q not found", storeName)
	}
	st.Add(up)
	return nil
}

// Add adds up to the currently selected store.
func (s *State) Add(up dtf.Update) error {
	st, err := s.current()
	if err != nil {
		return err
	}
	st.Add(up)
	return nil
}

// Autoflush flushes the current store to disk if autoflush is enabled and
// its size is a multiple of the configured flush interval.
func (s *State) Autoflush() error {
	st, err := s.current()
	if err != nil {
		return err
	}
	if !s.Settings.Autoflush || s.Settings.FlushInterval == 0 {
		return nil
	}
	if st.Size%uint64(s.Settings.FlushInterval) != 0 {
		return nil
	}
	slog.Debug("autoflushing store", "store", st.Name, "size", st.Size)
	if err := st.Flush(); err != nil {
		return err
	}
	return st.LoadSizeFromFile()
}

// Get returns the binary wire encoding of the first count updates in the
// current store, or all of them when count is negative. It reports false
// when fewer than count updates are available or the store is empty.
func (s *State) Get(count int) ([]byte, bool, error) {
	st, err := s.current()
	if err != nil {
		return nil, false, err
	}
	if st.Size == 0 || (count >= 0 && int(st.Size) < count) {
		return nil, false, nil
	}
	if count > len(st.V) {
		return nil, false, nil
	}

	updates := st.V
	if count >= 0 {
		updates = updates[:count]
	}

	var buf bytes.Buffer
	if err := dtf.WriteBatches(&buf, updates); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}
