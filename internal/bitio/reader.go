package bitio

import "errors"

// ErrExhausted is returned when a read goes past the declared bit count.
var ErrExhausted = errors.New("bitio: bit stream exhausted")

// Reader reads bits MSB-first from a packed stream limited to a bit count.
type Reader struct {
	data  []byte
	limit uint64 // number of valid bits
	pos   uint64 // next bit position
}

// NewReader returns a Reader over data that yields at most bits bits.
// If bits exceeds the capacity of data it is clamped.
func NewReader(data []byte, bits uint64) *Reader {
	if max := uint64(len(data)) * 8; bits > max {
		bits = max
	}
	return &Reader{data: data, limit: bits}
}

// ReadBit returns the next bit.
func (r *Reader) ReadBit() (uint, error) {
	if r.pos >= r.limit {
		return 0, ErrExhausted
	}
	b := r.data[r.pos>>3]
	bit := uint(b>>(7-(r.pos&7))) & 1
	r.pos++
	return bit, nil
}

// Consumed returns the number of bits read so far.
func (r *Reader) Consumed() uint64 {
	return r.pos
}

// Remaining returns the number of unread valid bits.
func (r *Reader) Remaining() uint64 {
	return r.limit - r.pos
}
