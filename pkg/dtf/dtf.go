// Package dtf implements the on-disk and on-wire binary format for a store's
// updates. It is the "external tick-file primitive" referred to by the rest
// of the server: Store calls Encode/Append/Decode/GetSize, and the wire layer
// calls WriteBatches to produce the binary payload for GET.
//
// File layout ("DTF1"):
//
//	offset 0  : 4-byte magic "DTF1"
//	offset 4  : 1-byte symbol length N
//	offset 5  : N bytes symbol (UTF-8, usually the store name)
//	offset 5+N: 8-byte big-endian record count
//	offset ...: count * recordSize fixed-width records
//
// Record layout (21 bytes, big-endian):
//
//	ts(8) seq(4) flags(1) price(4) size(4)
//
// flags bit 0 is IsTrade, bit 1 is IsBid.
package dtf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Update is one market event: a trade or an order-book quote.
type Update struct {
	Ts      uint64
	Seq     uint32
	IsTrade bool
	IsBid   bool
	Price   float32
	Size    float32
}

const (
	magic      = "DTF1"
	recordSize = 21 // 8 + 4 + 1 + 4 + 4
)

const (
	flagIsTrade = 1 << 0
	flagIsBid   = 1 << 1
)

func encodeFlags(u Update) byte {
	var f byte
	if u.IsTrade {
		f |= flagIsTrade
	}
	if u.IsBid {
		f |= flagIsBid
	}
	return f
}

func writeRecord(w io.Writer, u Update) error {
	var buf [recordSize]byte
	binary.BigEndian.PutUint64(buf[0:8], u.Ts)
	binary.BigEndian.PutUint32(buf[8:12], u.Seq)
	buf[12] = encodeFlags(u)
	binary.BigEndian.PutUint32(buf[13:17], uint32FromFloat32(u.Price))
	binary.BigEndian.PutUint32(buf[17:21], uint32FromFloat32(u.Size))
	_, err := w.Write(buf[:])
	return err
}

func readRecord(r io.Reader) (Update, error) {
	var buf [recordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Update{}, err
	}
	flags := buf[12]
	return Update{
		Ts:      binary.BigEndian.Uint64(buf[0:8]),
		Seq:     binary.BigEndian.Uint32(buf[8:12]),
		IsTrade: flags&flagIsTrade != 0,
		IsBid:   flags&flagIsBid != 0,
		Price:   float32FromUint32(binary.BigEndian.Uint32(buf[13:17])),
		Size:    float32FromUint32(binary.BigEndian.Uint32(buf[17:21])),
	}, nil
}

// Encode writes a fresh .dtf file at path containing symbol and updates,
// overwriting any existing file.
func Encode(path string, symbol string, updates []Update) error {
	if len(symbol) > 255 {
		return fmt.Errorf("dtf: symbol %q too long", symbol)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dtf: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeHeader(w, symbol, uint64(len(updates))); err != nil {
		return err
	}
	for _, u := range updates {
		if err := writeRecord(w, u); err != nil {
			return fmt.Errorf("dtf: write record: %w", err)
		}
	}
	return w.Flush()
}

func writeHeader(w io.Writer, symbol string, count uint64) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(len(symbol))}); err != nil {
		return err
	}
	if _, err := io.WriteString(w, symbol); err != nil {
		return err
	}
	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], count)
	_, err := w.Write(countBuf[:])
	return err
}

// readHeader reads the magic, symbol, and count from r, returning the
// symbol and count. It does not consume any record bytes.
func readHeader(r io.Reader) (symbol string, count uint64, err error) {
	var magicBuf [4]byte
	if _, err = io.ReadFull(r, magicBuf[:]); err != nil {
		return "", 0, fmt.Errorf("dtf: read magic: %w", err)
	}
	if string(magicBuf[:]) != magic {
		return "", 0, fmt.Errorf("dtf: bad magic %q", magicBuf[:])
	}

	var lenBuf [1]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return "", 0, fmt.Errorf("dtf: read symbol length: %w", err)
	}
	symBuf := make([]byte, lenBuf[0])
	if _, err = io.ReadFull(r, symBuf); err != nil {
		return "", 0, fmt.Errorf("dtf: read symbol: %w", err)
	}

	var countBuf [8]byte
	if _, err = io.ReadFull(r, countBuf[:]); err != nil {
		return "", 0, fmt.Errorf("dtf: read count: %w", err)
	}
	return string(symBuf), binary.BigEndian.Uint64(countBuf[:]), nil
}

// Decode reads the whole file at path into a slice of Updates.
func Decode(path string) ([]Update, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dtf: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	_, count, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	updates := make([]Update, 0, count)
	for i := uint64(0); i < count; i++ {
		u, err := readRecord(r)
		if err != nil {
			return nil, fmt.Errorf("dtf: read record %d: %w", i, err)
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// GetSize reads only the header count from the file at path, without
// decoding any records.
func GetSize(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("dtf: open %s: %w", path, err)
	}
	defer f.Close()

	_, count, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return 0, err
	}
	return count, nil
}

// maxTimestamp returns the largest Ts found in the file, or 0 if it is empty.
func maxTimestamp(path string) (uint64, error) {
	updates, err := Decode(path)
	if err != nil {
		return 0, err
	}
	var max uint64
	for _, u := range updates {
		if u.Ts > max {
			max = u.Ts
		}
	}
	return max, nil
}

// Append adds updates whose Ts is strictly greater than the file's current
// maximum timestamp to the existing file at path, rewriting the header
// count. It returns the number of records actually appended.
func Append(path string, updates []Update) (int, error) {
	max, err := maxTimestamp(path)
	if err != nil {
		return 0, fmt.Errorf("dtf: append: %w", err)
	}

	fresh := make([]Update, 0, len(updates))
	for _, u := range updates {
		if u.Ts > max {
			fresh = append(fresh, u)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return 0, fmt.Errorf("dtf: open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	_, oldCount, err := readHeader(br)
	if err != nil {
		return 0, err
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return 0, fmt.Errorf("dtf: seek end: %w", err)
	}
	for _, u := range fresh {
		if err := writeRecord(f, u); err != nil {
			return 0, fmt.Errorf("dtf: append record: %w", err)
		}
	}

	// Rewrite the count field in place. It sits right after magic+symbol-len+symbol.
	symLenOff := int64(len(magic))
	if _, err := f.Seek(symLenOff, io.SeekStart); err != nil {
		return 0, fmt.Errorf("dtf: seek symbol length: %w", err)
	}
	var lenBuf [1]byte
	if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
		return 0, fmt.Errorf("dtf: reread symbol length: %w", err)
	}
	countOff := symLenOff + 1 + int64(lenBuf[0])
	if _, err := f.Seek(countOff, io.SeekStart); err != nil {
		return 0, fmt.Errorf("dtf: seek count: %w", err)
	}
	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], oldCount+uint64(len(fresh)))
	if _, err := f.Write(countBuf[:]); err != nil {
		return 0, fmt.Errorf("dtf: rewrite count: %w", err)
	}

	return len(fresh), nil
}

// WriteBatches writes the wire form of updates to w: an 8-byte big-endian
// count followed by the fixed-width records, with no file header. This is
// the binary payload a GET response carries.
func WriteBatches(w io.Writer, updates []Update) error {
	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], uint64(len(updates)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}
	for _, u := range updates {
		if err := writeRecord(w, u); err != nil {
			return err
		}
	}
	return nil
}

// ReadBatches parses the wire form written by WriteBatches.
func ReadBatches(r io.Reader) ([]Update, error) {
	var countBuf [8]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("dtf: read batch count: %w", err)
	}
	count := binary.BigEndian.Uint64(countBuf[:])
	updates := make([]Update, 0, count)
	for i := uint64(0); i < count; i++ {
		u, err := readRecord(r)
		if err != nil {
			return nil, fmt.Errorf("dtf: read batch record %d: %w", i, err)
		}
		updates = append(updates, u)
	}
	return updates, nil
}
