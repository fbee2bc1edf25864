// Package parser turns a single ASCII update line into a dtf.Update.
//
// Lines look like:
//
//	1505177459.658, 139010, f, t, 0.0703629, 7.65064249;
//
// The six comma/semicolon-delimited fields are, in order: timestamp,
// sequence number, is_trade, is_bid, price, size. The parser has one
// surprising rule inherited from the wire format: the decimal point in
// field 0 (the timestamp) is stripped before parsing, so "1505177459.658"
// becomes the integer 1505177459658. No other field treats '.' specially;
// price and size keep their decimal points and parse as floats.
package parser

import (
	"strconv"
	"strings"

	"github.com/erismart/tectonic/pkg/dtf"
)

// ParseLine parses string into an Update. It returns false if any numeric
// field fails to parse, or if the resulting price or size is negative.
func ParseLine(s string) (dtf.Update, bool) {
	u := dtf.Update{Price: -0.1, Size: -0.1}

	var buf strings.Builder
	var field int
	var mostCurrentBool bool

	for _, ch := range s {
		switch {
		case ch == '.' && field == 0:
			// Timestamp field: drop the decimal point entirely.
			continue
		case ch == '.' || ch == '-':
			buf.WriteRune(ch)
		case ch >= '0' && ch <= '9':
			buf.WriteRune(ch)
		case ch == 't' || ch == 'f':
			mostCurrentBool = ch == 't'
		case ch == ',' || ch == ';':
			if !assignField(&u, field, buf.String(), mostCurrentBool) {
				return dtf.Update{}, false
			}
			field++
			buf.Reset()
		}
	}

	if u.Price < 0 || u.Size < 0 {
		return dtf.Update{}, false
	}
	return u, true
}

func assignField(u *dtf.Update, field int, buf string, mostCurrentBool bool) bool {
	switch field {
	case 0:
		ts, err := strconv.ParseUint(buf, 10, 64)
		if err != nil {
			return false
		}
		u.Ts = ts
	case 1:
		seq, err := strconv.ParseUint(buf, 10, 32)
		if err != nil {
			return false
		}
		u.Seq = uint32(seq)
	case 2:
		u.IsTrade = mostCurrentBool
	case 3:
		u.IsBid = mostCurrentBool
	case 4:
		price, err := strconv.ParseFloat(buf, 32)
		if err != nil {
			return false
		}
		u.Price = float32(price)
	case 5:
		size, err := strconv.ParseFloat(buf, 32)
		if err != nil {
			return false
		}
		u.Size = float32(size)
	}
	return true
}
