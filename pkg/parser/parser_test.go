package parser

import (
	"testing"

	"github.com/erismart/tectonic/pkg/dtf"
)

func TestParseLineOkay(t *testing.T) {
	got, ok := ParseLine("1505177459.658, 139010, f, t, 0.0703629, 7.65064249;")
	if !ok {
		t.Fatalf("ParseLine returned not-ok, want ok")
	}
	want := dtf.Update{
		Ts:      1505177459658,
		Seq:     139010,
		IsTrade: false,
		IsBid:   true,
		Price:   0.0703629,
		Size:    7.65064249,
	}
	if got != want {
		t.Errorf("ParseLine = %+v, want %+v", got, want)
	}

	got1, ok := ParseLine("1505177459.650, 139010, t, f, 0.0703620, 7.65064240;")
	if !ok {
		t.Fatalf("ParseLine returned not-ok, want ok")
	}
	want1 := dtf.Update{
		Ts:      1505177459650,
		Seq:     139010,
		IsTrade: true,
		IsBid:   false,
		Price:   0.0703620,
		Size:    7.65064240,
	}
	if got1 != want1 {
		t.Errorf("ParseLine = %+v, want %+v", got1, want1)
	}
}

func TestParseLineNotOkay(t *testing.T) {
	cases := []string{
		"1505177459.658, 139010,,, f, t, 0.0703629, 7.65064249;",
		"150517;",
		"something;",
	}
	for _, s := range cases {
		if _, ok := ParseLine(s); ok {
			t.Errorf("ParseLine(%q) returned ok, want not-ok", s)
		}
	}
}
