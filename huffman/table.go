package huffman

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/hupe1980/vqz/internal/bitio"
)

// Code is a canonical bit pattern. The low Len bits of Bits hold the code,
// most significant bit first.
type Code struct {
	Bits uint64
	Len  uint8
}

// String renders the code as a string of '0' and '1'.
func (c Code) String() string {
	b := make([]byte, c.Len)
	for i := range b {
		if (c.Bits>>(uint(c.Len)-1-uint(i)))&1 == 1 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// Table is a canonical Huffman code over the alphabet [0, Alphabet()).
// A Table is immutable and safe for concurrent use.
type Table struct {
	lengths []uint8
	codes   []Code

	// Canonical decoding state: number of codes per length and the symbols
	// ordered by (length, symbol).
	counts  [MaxCodeLen + 1]uint32
	sorted  []uint32
	maxLen  uint8
	numUsed int
}

// NewTable builds the canonical table for the given per-symbol code lengths.
// A length of 0 means the symbol has no code.
func NewTable(lengths []uint8) (*Table, error) {
	t := &Table{
		lengths: append([]uint8(nil), lengths...),
		codes:   make([]Code, len(lengths)),
	}

	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		if l > MaxCodeLen {
			return nil, fmt.Errorf("%w: symbol %d has length %d", ErrInvalidTable, sym, l)
		}
		t.counts[l]++
		t.sorted = append(t.sorted, uint32(sym))
		t.maxLen = max(t.maxLen, l)
	}
	t.numUsed = len(t.sorted)

	// Kraft inequality: the code space must not be oversubscribed.
	// left never needs to exceed the number of symbols, so it is clamped to
	// stay within int64 for 64-bit codes.
	left := int64(1)
	for l := 1; l <= int(t.maxLen); l++ {
		left <<= 1
		left -= int64(t.counts[l])
		if left < 0 {
			return nil, fmt.Errorf("%w: code lengths oversubscribed at length %d", ErrInvalidTable, l)
		}
		if left > int64(len(lengths))+1 {
			left = int64(len(lengths)) + 1
		}
	}

	sort.Slice(t.sorted, func(i, j int) bool {
		a, b := t.sorted[i], t.sorted[j]
		if lengths[a] != lengths[b] {
			return lengths[a] < lengths[b]
		}
		return a < b
	})

	var code uint64
	var prevLen uint8
	for i, sym := range t.sorted {
		l := lengths[sym]
		if i > 0 {
			code++
		}
		code <<= l - prevLen
		prevLen = l
		t.codes[sym] = Code{Bits: code, Len: l}
	}

	return t, nil
}

// Alphabet returns the size of the symbol alphabet.
func (t *Table) Alphabet() int { return len(t.lengths) }

// MaxLen returns the longest code length in the table.
func (t *Table) MaxLen() int { return int(t.maxLen) }

// Lengths returns a copy of the per-symbol code lengths.
func (t *Table) Lengths() []uint8 { return append([]uint8(nil), t.lengths...) }

// Code returns the code assigned to sym.
func (t *Table) Code(sym uint32) (Code, bool) {
	if int(sym) >= len(t.codes) || t.codes[sym].Len == 0 {
		return Code{}, false
	}
	return t.codes[sym], true
}

// EncodedBits returns the number of bits needed to encode the given frequencies.
func (t *Table) EncodedBits(freqs []uint64) uint64 {
	var total uint64
	for sym, f := range freqs {
		if sym < len(t.lengths) {
			total += f * uint64(t.lengths[sym])
		}
	}
	return total
}

// Encode packs symbols MSB-first. It returns the packed stream (final byte
// zero padded) and the number of valid bits.
func (t *Table) Encode(symbols []uint32) ([]byte, uint64, error) {
	w := bitio.NewWriter(len(symbols)/2 + 1)
	for i, s := range symbols {
		c, ok := t.Code(s)
		if !ok {
			return nil, 0, fmt.Errorf("%w: symbol %d at position %d has no code", ErrSymbolOutOfRange, s, i)
		}
		w.WriteBits(c.Bits, uint(c.Len))
	}
	bits := w.Bits()
	return w.Bytes(), bits, nil
}

// Decode reads exactly n symbols from a stream holding bits valid bits.
// Decoding fails with ErrCorrupt if the stream is exhausted before the n-th
// symbol completes or if bits remain unconsumed afterwards.
func (t *Table) Decode(stream []byte, bits uint64, n uint64) ([]uint32, error) {
	if bits > uint64(len(stream))*8 {
		return nil, fmt.Errorf("%w: %d bits declared, stream holds %d", ErrCorrupt, bits, uint64(len(stream))*8)
	}
	if n > 0 && t.numUsed == 0 {
		return nil, fmt.Errorf("%w: empty code table", ErrCorrupt)
	}
	// Every code is at least one bit long.
	if n > bits {
		return nil, fmt.Errorf("%w: %d symbols cannot fit in %d bits", ErrCorrupt, n, bits)
	}

	r := bitio.NewReader(stream, bits)
	out := make([]uint32, n)
	for i := range out {
		sym, err := t.decodeOne(r)
		if err != nil {
			return nil, fmt.Errorf("%w: symbol %d of %d", err, i, n)
		}
		out[i] = sym
	}

	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bits after %d symbols", ErrCorrupt, r.Remaining(), n)
	}
	return out, nil
}

// decodeOne walks the canonical code one bit at a time.
func (t *Table) decodeOne(r *bitio.Reader) (uint32, error) {
	var code, first uint64
	var index uint64
	for l := 1; l <= int(t.maxLen); l++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, ErrCorrupt
		}
		code |= uint64(bit)
		count := uint64(t.counts[l])
		if code-first < count {
			return t.sorted[index+code-first], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, ErrCorrupt
}

// entrySize is the serialized size of one (symbol, length) pair.
const entrySize = 5

// MarshalBinary serializes the used entries of the table.
//
// Format (little-endian):
// [count:uint32]
// [symbol_0:uint32][length_0:uint8]...[symbol_n:uint32][length_n:uint8]
//
// Entries are sorted by symbol.
func (t *Table) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4, 4+t.numUsed*entrySize)
	binary.LittleEndian.PutUint32(buf, uint32(t.numUsed))
	for sym, l := range t.lengths {
		if l == 0 {
			continue
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(sym))
		buf = append(buf, l)
	}
	return buf, nil
}

// UnmarshalTable parses a table produced by MarshalBinary for the given alphabet.
func UnmarshalTable(data []byte, alphabet int) (*Table, error) {
	if alphabet <= 0 {
		return nil, fmt.Errorf("%w: alphabet size %d", ErrInvalidTable, alphabet)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: table too short (%d bytes)", ErrInvalidTable, len(data))
	}
	count := binary.LittleEndian.Uint32(data)
	if uint64(count) > uint64(alphabet) {
		return nil, fmt.Errorf("%w: %d entries for alphabet %d", ErrInvalidTable, count, alphabet)
	}
	if want := 4 + uint64(count)*entrySize; uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: table length %d, expected %d", ErrInvalidTable, len(data), want)
	}

	lengths := make([]uint8, alphabet)
	off := 4
	prev := int64(-1)
	for i := uint32(0); i < count; i++ {
		sym := binary.LittleEndian.Uint32(data[off:])
		l := data[off+4]
		off += entrySize

		if int64(sym) <= prev {
			return nil, fmt.Errorf("%w: symbols not strictly ascending at entry %d", ErrInvalidTable, i)
		}
		if uint64(sym) >= uint64(alphabet) {
			return nil, fmt.Errorf("%w: symbol %d outside alphabet %d", ErrInvalidTable, sym, alphabet)
		}
		if l == 0 || l > MaxCodeLen {
			return nil, fmt.Errorf("%w: symbol %d has length %d", ErrInvalidTable, sym, l)
		}
		prev = int64(sym)
		lengths[sym] = l
	}

	return NewTable(lengths)
}
