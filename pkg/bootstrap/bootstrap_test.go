package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/erismart/tectonic/pkg/dtf"
	"github.com/erismart/tectonic/pkg/session"
)

func TestStateCreatesDefaultInMemoryWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	state, err := State(session.Settings{DtfFolder: dir}, nil)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	st, ok := state.Store["default"]
	if !ok {
		t.Fatalf("State: missing default store")
	}
	if !st.InMemory {
		t.Errorf("default store InMemory = false, want true when no file exists")
	}
}

func TestStateScansExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := dtf.Encode(filepath.Join(dir, "default.dtf"), "default", []dtf.Update{
		{Ts: 1, Price: 1, Size: 1},
	}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := dtf.Encode(filepath.Join(dir, "btc.dtf"), "btc", []dtf.Update{
		{Ts: 1, Price: 1, Size: 1},
		{Ts: 2, Price: 2, Size: 2},
	}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	state, err := State(session.Settings{DtfFolder: dir}, nil)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	def, ok := state.Store["default"]
	if !ok {
		t.Fatalf("State: missing default store")
	}
	if def.InMemory {
		t.Errorf("default store InMemory = true, want false when file exists")
	}

	btc, ok := state.Store["btc"]
	if !ok {
		t.Fatalf("State: missing btc store")
	}
	if btc.Size != 2 {
		t.Errorf("btc store Size = %d, want 2", btc.Size)
	}
	if btc.InMemory {
		t.Errorf("btc store InMemory = true, want false")
	}
	if len(btc.V) != 0 {
		t.Errorf("btc store V = %v, want empty (bootstrap must not load payloads)", btc.V)
	}
}
