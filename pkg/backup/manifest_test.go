package backup

import (
	"bytes"
	"testing"

	xdr "github.com/rasky/go-xdr/xdr2"
)

func TestObjectKeyWithAndWithoutPrefix(t *testing.T) {
	if got := objectKey("", 100, "btc.dtf"); got != "100/btc.dtf" {
		t.Errorf("objectKey = %q, want 100/btc.dtf", got)
	}
	if got := objectKey("backups/", 100, "btc.dtf"); got != "backups/100/btc.dtf" {
		t.Errorf("objectKey = %q, want backups/100/btc.dtf", got)
	}
}

func TestManifestKeyUsesManifestName(t *testing.T) {
	if got := manifestKey("backups", 100); got != "backups/100/manifest.xdr" {
		t.Errorf("manifestKey = %q, want backups/100/manifest.xdr", got)
	}
}

func TestManifestXDRRoundTrip(t *testing.T) {
	want := Manifest{
		CreatedAtUnix: 1700000000,
		Files: []FileManifest{
			{Name: "btc.dtf", Count: 3, Checksum: "abc123"},
			{Name: "eth.dtf", Count: 1, Checksum: "def456"},
		},
	}

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &want); err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Manifest
	if _, err := xdr.Unmarshal(bytes.NewReader(buf.Bytes()), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.CreatedAtUnix != want.CreatedAtUnix || len(got.Files) != len(want.Files) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want.Files {
		if got.Files[i] != want.Files[i] {
			t.Errorf("Files[%d] = %+v, want %+v", i, got.Files[i], want.Files[i])
		}
	}
}
