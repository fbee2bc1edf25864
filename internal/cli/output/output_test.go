package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":      FormatTable,
		"table": FormatTable,
		"JSON":  FormatJSON,
		"yaml":  FormatYAML,
		"yml":   FormatYAML,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Errorf("ParseFormat(\"xml\") should fail")
	}
}

type fakeTable struct{}

func (fakeTable) Headers() []string { return []string{"NAME", "COUNT"} }
func (fakeTable) Rows() [][]string  { return [][]string{{"btc", "3"}} }

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintTable(&buf, fakeTable{}); err != nil {
		t.Fatalf("PrintTable: %v", err)
	}
	if !strings.Contains(buf.String(), "btc") {
		t.Errorf("table output = %q, want it to contain btc", buf.String())
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]string{"name": "btc"}); err != nil {
		t.Fatalf("PrintJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "btc"`) {
		t.Errorf("json output = %q", buf.String())
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintYAML(&buf, map[string]string{"name": "btc"}); err != nil {
		t.Fatalf("PrintYAML: %v", err)
	}
	if !strings.Contains(buf.String(), "name: btc") {
		t.Errorf("yaml output = %q", buf.String())
	}
}

func TestPrintFallsBackToJSONForTableFormatWithoutRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatTable, map[string]string{"name": "btc"}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if !strings.Contains(buf.String(), `"name"`) {
		t.Errorf("output = %q, want JSON fallback", buf.String())
	}
}
