package dtf

import (
	"bytes"
	"path/filepath"
	"testing"
)

func sampleUpdates() []Update {
	return []Update{
		{Ts: 1000, Seq: 1, IsTrade: true, IsBid: true, Price: 1.0, Size: 2.0},
		{Ts: 2000, Seq: 2, IsTrade: false, IsBid: false, Price: 1.5, Size: 2.5},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.dtf")

	want := sampleUpdates()
	if err := Encode(path, "foo", want); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Decode returned %d updates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGetSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.dtf")

	if err := Encode(path, "foo", sampleUpdates()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	size, err := GetSize(path)
	if err != nil {
		t.Fatalf("GetSize: %v", err)
	}
	if size != 2 {
		t.Errorf("GetSize = %d, want 2", size)
	}
}

func TestAppendFiltersToStrictlyNewer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.dtf")

	if err := Encode(path, "foo", sampleUpdates()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// max ts in file is 2000; only the 2500 record should survive.
	n, err := Append(path, []Update{
		{Ts: 1500, Seq: 3, Price: 1.0, Size: 1.0},
		{Ts: 2500, Seq: 4, Price: 1.0, Size: 1.0},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 1 {
		t.Fatalf("Append returned %d, want 1", n)
	}

	size, err := GetSize(path)
	if err != nil {
		t.Fatalf("GetSize: %v", err)
	}
	if size != 3 {
		t.Errorf("GetSize after append = %d, want 3", size)
	}

	updates, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if updates[2].Seq != 4 {
		t.Errorf("appended record seq = %d, want 4", updates[2].Seq)
	}
}

func TestAppendNoNewRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.dtf")
	if err := Encode(path, "foo", sampleUpdates()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	n, err := Append(path, []Update{{Ts: 500, Seq: 9, Price: 1.0, Size: 1.0}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n != 0 {
		t.Errorf("Append returned %d, want 0", n)
	}
}

func TestWriteReadBatches(t *testing.T) {
	var buf bytes.Buffer
	want := sampleUpdates()
	if err := WriteBatches(&buf, want); err != nil {
		t.Fatalf("WriteBatches: %v", err)
	}

	got, err := ReadBatches(&buf)
	if err != nil {
		t.Fatalf("ReadBatches: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("ReadBatches returned %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestUpdateVecToJSON(t *testing.T) {
	if got := UpdateVecToJSON(nil); got != "" {
		t.Errorf("UpdateVecToJSON(nil) = %q, want empty", got)
	}

	json := UpdateVecToJSON(sampleUpdates()[:1])
	want := `{"ts": 1000, "seq": 1, "is_trade": true, "is_bid": true, "price": 1, "size": 2}`
	if json != want {
		t.Errorf("UpdateVecToJSON = %q, want %q", json, want)
	}
}
