package bitio

// Writer accumulates bits MSB-first into a growing byte slice.
type Writer struct {
	buf   []byte
	accum uint64 // pending bits, left-aligned
	nbits uint   // number of pending bits in accum
	total uint64 // total bits written
}

// NewWriter creates a Writer with capacity for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// WriteBits appends the low length bits of code, most significant first.
// length must be in [0, 64].
func (w *Writer) WriteBits(code uint64, length uint) {
	for length > 0 {
		// Never hold more than 56 pending bits so a whole byte always fits.
		n := length
		if free := 64 - w.nbits - 8; n > free {
			n = free
		}
		chunk := code >> (length - n)
		if n < 64 {
			chunk &= (uint64(1) << n) - 1
		}
		w.accum |= chunk << (64 - w.nbits - n)
		w.nbits += n
		w.total += uint64(n)
		length -= n

		for w.nbits >= 8 {
			w.buf = append(w.buf, byte(w.accum>>56))
			w.accum <<= 8
			w.nbits -= 8
		}
	}
}

// Bits returns the number of valid bits written so far.
func (w *Writer) Bits() uint64 {
	return w.total
}

// Bytes flushes any partial byte (zero padded) and returns the packed stream.
// The Writer must not be used after Bytes.
func (w *Writer) Bytes() []byte {
	if w.nbits > 0 {
		w.buf = append(w.buf, byte(w.accum>>56))
		w.accum = 0
		w.nbits = 0
	}
	return w.buf
}
