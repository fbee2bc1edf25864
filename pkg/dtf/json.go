package dtf

import "fmt"

// UpdateVecToJSON renders updates as the comma-joined body of a JSON array
// (without the surrounding brackets, matching the convention that callers
// wrap the result in "[" + ... + "]").
func UpdateVecToJSON(updates []Update) string {
	out := make([]byte, 0, 64*len(updates))
	for i, u := range updates {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = fmt.Appendf(out, `{"ts": %d, "seq": %d, "is_trade": %t, "is_bid": %t, "price": %v, "size": %v}`,
			u.Ts, u.Seq, u.IsTrade, u.IsBid, u.Price, u.Size)
	}
	return string(out)
}
